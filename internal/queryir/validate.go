package queryir

import "fmt"

// Validation error codes (E300-E399)
const (
	ErrUnknownTarget        = "E301" // target must be systems or runs
	ErrFilterTargetMismatch = "E302" // filter does not apply to the target
	ErrEmptyFilterValue     = "E303" // filter value must be non-empty
	ErrNegativeLimit        = "E304" // limit must be >= 0
	ErrNilFilter            = "E305" // nil filter inside a conjunction
)

// ValidationError represents one query validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a query against the target rules. It returns all
// errors found (does not fail fast).
func Validate(q Query) []ValidationError {
	v := &validator{target: q.Target}

	switch q.Target {
	case TargetSystems, TargetRuns:
	default:
		v.add("target", ErrUnknownTarget, "unknown target %q", q.Target)
	}
	if q.Limit < 0 {
		v.add("limit", ErrNegativeLimit, "limit must not be negative, got %d", q.Limit)
	}
	if q.Filter != nil {
		v.validateFilter("filter", q.Filter)
	}
	return v.errs
}

type validator struct {
	target Target
	errs   []ValidationError
}

func (v *validator) add(field, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) requireTarget(field string, want Target, filter string) {
	if v.target != want {
		v.add(field, ErrFilterTargetMismatch,
			"%s filter only applies to target %q", filter, want)
	}
}

func (v *validator) requireValue(field, filter, value string) {
	if value == "" {
		v.add(field, ErrEmptyFilterValue, "%s filter value must be non-empty", filter)
	}
}

func (v *validator) validateFilter(field string, f Filter) {
	switch filter := f.(type) {
	case NameIs:
		v.requireTarget(field, TargetSystems, "name")
		v.requireValue(field, "name", filter.Name)
	case *NameIs:
		v.validateFilter(field, *filter)
	case HashIs:
		v.requireTarget(field, TargetSystems, "hash")
		v.requireValue(field, "hash", filter.Hash)
	case *HashIs:
		v.validateFilter(field, *filter)
	case HasProcess:
		v.requireTarget(field, TargetSystems, "process")
		v.requireValue(field, "process", filter.ProcessID)
	case *HasProcess:
		v.validateFilter(field, *filter)
	case HasComponent:
		v.requireTarget(field, TargetSystems, "component")
		v.requireValue(field, "component", filter.ComponentID)
	case *HasComponent:
		v.validateFilter(field, *filter)
	case ForSystem:
		v.requireTarget(field, TargetRuns, "system")
		v.requireValue(field, "system", filter.SystemHash)
	case *ForSystem:
		v.validateFilter(field, *filter)
	case CreatedAfter:
		v.requireValue(field, "created-after", filter.Timestamp)
	case *CreatedAfter:
		v.validateFilter(field, *filter)
	case And:
		for i, sub := range filter.Filters {
			sf := fmt.Sprintf("%s[%d]", field, i)
			if sub == nil {
				v.add(sf, ErrNilFilter, "conjunction must not contain nil filters")
				continue
			}
			v.validateFilter(sf, sub)
		}
	case *And:
		v.validateFilter(field, *filter)
	default:
		v.add(field, ErrFilterTargetMismatch, "unknown filter type %T", f)
	}
}
