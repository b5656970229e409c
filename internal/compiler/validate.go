package compiler

import (
	"fmt"
	"strings"
)

// Validation error codes (E100-E199)
const (
	ErrSystemNameEmpty           = "E101" // system name must be non-empty
	ErrNoComponents              = "E102" // at least one component required
	ErrNoProcesses               = "E103" // at least one process required
	ErrDuplicateComponent        = "E104" // duplicate component ID
	ErrDuplicateProcess          = "E105" // duplicate process ID
	ErrUnknownQuantity           = "E106" // unsupported conserved quantity
	ErrMissingReaction           = "E107" // reaction text required
	ErrMissingRefComponent       = "E108" // ref_component required
	ErrUnknownRefComponent       = "E109" // ref_component not declared
	ErrDuplicateParameter        = "E110" // duplicate parameter name
	ErrParameterShadowsComponent = "E111" // parameter name collides with component ID
)

// knownQuantities are the conserved quantities the registry can check.
var knownQuantities = map[string]bool{
	"mass": true, "C": true, "N": true, "P": true, "COD": true, "charge": true,
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a SystemSpec against the schema rules. It returns
// all errors found (does not fail fast).
func Validate(spec *SystemSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field: "name", Message: "system name is required", Code: ErrSystemNameEmpty,
		})
	}
	if len(spec.Components) == 0 {
		errs = append(errs, ValidationError{
			Field: "components", Message: "at least one component is required", Code: ErrNoComponents,
		})
	}
	if len(spec.Processes) == 0 {
		errs = append(errs, ValidationError{
			Field: "processes", Message: "at least one process is required", Code: ErrNoProcesses,
		})
	}

	for i, q := range spec.ConservedFor {
		if !knownQuantities[q] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("conserved_for[%d]", i),
				Message: fmt.Sprintf("unknown conserved quantity %q", q),
				Code:    ErrUnknownQuantity,
			})
		}
	}

	componentIDs := make(map[string]bool)
	for i, c := range spec.Components {
		if componentIDs[c.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("components[%d]", i),
				Message: fmt.Sprintf("duplicate component ID %q", c.ID),
				Code:    ErrDuplicateComponent,
			})
		}
		componentIDs[c.ID] = true
	}

	paramNames := make(map[string]bool)
	for i, p := range spec.Parameters {
		if paramNames[p] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("parameters[%d]", i),
				Message: fmt.Sprintf("duplicate parameter %q", p),
				Code:    ErrDuplicateParameter,
			})
		}
		paramNames[p] = true
		if componentIDs[p] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("parameters[%d]", i),
				Message: fmt.Sprintf("parameter %q shadows a component ID", p),
				Code:    ErrParameterShadowsComponent,
			})
		}
	}

	processIDs := make(map[string]bool)
	for i, p := range spec.Processes {
		field := func(name string) string { return fmt.Sprintf("processes[%d].%s", i, name) }
		if processIDs[p.ID] {
			errs = append(errs, ValidationError{
				Field:   field("id"),
				Message: fmt.Sprintf("duplicate process ID %q", p.ID),
				Code:    ErrDuplicateProcess,
			})
		}
		processIDs[p.ID] = true

		if strings.TrimSpace(p.Reaction) == "" {
			errs = append(errs, ValidationError{
				Field: field("reaction"), Message: "reaction text is required", Code: ErrMissingReaction,
			})
		}
		if strings.TrimSpace(p.RefComponent) == "" {
			errs = append(errs, ValidationError{
				Field: field("ref_component"), Message: "ref_component is required", Code: ErrMissingRefComponent,
			})
		} else if len(componentIDs) > 0 && !componentIDs[p.RefComponent] {
			errs = append(errs, ValidationError{
				Field:   field("ref_component"),
				Message: fmt.Sprintf("ref_component %q is not a declared component", p.RefComponent),
				Code:    ErrUnknownRefComponent,
			})
		}
		for j, q := range p.ConservedFor {
			if !knownQuantities[q] {
				errs = append(errs, ValidationError{
					Field:   field(fmt.Sprintf("conserved_for[%d]", j)),
					Message: fmt.Sprintf("unknown conserved quantity %q", q),
					Code:    ErrUnknownQuantity,
				})
			}
		}
	}

	return errs
}
