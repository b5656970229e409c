package queryir

// Target selects the archive table a query runs against.
type Target string

const (
	TargetSystems Target = "systems"
	TargetRuns    Target = "runs"
)

// Query is one archive query: a target table, an optional filter tree
// and a result limit (0 means unlimited).
type Query struct {
	Target Target
	Filter Filter
	Limit  int
}

// Filter represents one filter condition over archive records.
//
// This is a sealed interface; only types in this package implement it.
// The marker method prevents external implementations and lets backend
// compilers type-switch exhaustively.
type Filter interface {
	filterNode() // seals the interface to this package
}

// NameIs matches systems stored under the given name.
type NameIs struct {
	Name string
}

func (NameIs) filterNode() {}

// HashIs matches the system with the given content hash.
type HashIs struct {
	Hash string
}

func (HashIs) filterNode() {}

// HasProcess matches systems whose compiled matrix contains the given
// process row.
type HasProcess struct {
	ProcessID string
}

func (HasProcess) filterNode() {}

// HasComponent matches systems whose registry contains the given
// component.
type HasComponent struct {
	ComponentID string
}

func (HasComponent) filterNode() {}

// ForSystem matches runs recorded against the given system hash.
type ForSystem struct {
	SystemHash string
}

func (ForSystem) filterNode() {}

// CreatedAfter matches records created strictly after the given
// timestamp. The store records creation times as ISO-8601 UTC strings
// ("2026-01-01T00:00:00.000Z"), so the timestamp must use the same
// form for the lexicographic comparison to order correctly.
type CreatedAfter struct {
	Timestamp string
}

func (CreatedAfter) filterNode() {}

// And matches records satisfying every sub-filter. An empty filter
// list is always true.
type And struct {
	Filters []Filter
}

func (And) filterNode() {}
