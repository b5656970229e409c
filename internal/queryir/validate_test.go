package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsSystemsQuery(t *testing.T) {
	q := Query{
		Target: TargetSystems,
		Filter: And{Filters: []Filter{
			NameIs{Name: "PM2"},
			HasProcess{ProcessID: "growth_pho"},
			HasComponent{ComponentID: "X_ALG"},
			CreatedAfter{Timestamp: "2026-01-01T00:00:00.000Z"},
		}},
		Limit: 10,
	}
	assert.Empty(t, Validate(q))
}

func TestValidateAcceptsRunsQuery(t *testing.T) {
	q := Query{
		Target: TargetRuns,
		Filter: ForSystem{SystemHash: "abc123"},
	}
	assert.Empty(t, Validate(q))
}

func TestValidateUnknownTarget(t *testing.T) {
	errs := Validate(Query{Target: "snapshots"})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownTarget, errs[0].Code)
}

func TestValidateTargetMismatch(t *testing.T) {
	errs := Validate(Query{Target: TargetRuns, Filter: NameIs{Name: "PM2"}})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrFilterTargetMismatch, errs[0].Code)

	errs = Validate(Query{Target: TargetSystems, Filter: ForSystem{SystemHash: "abc"}})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrFilterTargetMismatch, errs[0].Code)
}

func TestValidatePointerFilters(t *testing.T) {
	q := Query{Target: TargetSystems, Filter: &NameIs{Name: "PM2"}}
	assert.Empty(t, Validate(q))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	q := Query{
		Target: TargetSystems,
		Filter: And{Filters: []Filter{
			NameIs{},                  // empty value
			ForSystem{SystemHash: ""}, // wrong target and empty value
			nil,                       // nil sub-filter
		}},
		Limit: -1,
	}
	errs := Validate(q)

	codes := map[string]int{}
	for _, e := range errs {
		codes[e.Code]++
	}
	assert.Equal(t, 1, codes[ErrNegativeLimit])
	assert.Equal(t, 2, codes[ErrEmptyFilterValue])
	assert.Equal(t, 1, codes[ErrFilterTargetMismatch])
	assert.Equal(t, 1, codes[ErrNilFilter])
}

func TestValidationErrorFormat(t *testing.T) {
	errs := Validate(Query{Target: TargetRuns, Filter: And{Filters: []Filter{NameIs{Name: "x"}}}})
	require.Len(t, errs, 1)
	assert.Equal(t, `[E302] filter[0]: name filter only applies to target "systems"`, errs[0].Error())
}

func TestValidateEmptyConjunction(t *testing.T) {
	assert.Empty(t, Validate(Query{Target: TargetSystems, Filter: And{}}))
}
