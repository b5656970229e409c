package components

import "fmt"

// UndefinedComponentError reports a lookup for a component ID absent
// from the registry. It is distinguishable from a generic key error so
// callers can tell "never defined" from other failures.
type UndefinedComponentError struct {
	ID string
}

func (e *UndefinedComponentError) Error() string {
	return fmt.Sprintf("undefined component %q", e.ID)
}

// DuplicateComponentError reports an append of an already-present ID.
type DuplicateComponentError struct {
	ID string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q already defined in registry", e.ID)
}

// Components is a growable, insertion-ordered, uniquely-keyed
// collection of components.
type Components struct {
	ordered []*Component
	byID    map[string]*Component
}

// New builds a collection from the given components, de-duplicating by
// ID: the first occurrence wins and later duplicates are skipped. This
// is the merge-union constructor used when compiling processes.
func New(cmps ...*Component) *Components {
	c := &Components{byID: make(map[string]*Component, len(cmps))}
	for _, cmp := range cmps {
		if _, ok := c.byID[cmp.ID]; ok {
			continue
		}
		c.byID[cmp.ID] = cmp
		c.ordered = append(c.ordered, cmp)
	}
	return c
}

// Append adds a component, rejecting duplicate IDs.
func (c *Components) Append(cmp *Component) error {
	if _, ok := c.byID[cmp.ID]; ok {
		return &DuplicateComponentError{ID: cmp.ID}
	}
	c.byID[cmp.ID] = cmp
	c.ordered = append(c.ordered, cmp)
	return nil
}

// Len returns the number of components.
func (c *Components) Len() int { return len(c.ordered) }

// All returns the components in insertion order. The slice is shared;
// callers must not mutate it.
func (c *Components) All() []*Component { return c.ordered }

// Compile freezes the collection into an immutable, index-addressable
// registry with dense conversion-factor vectors.
func (c *Components) Compile() (*CompiledComponents, error) {
	n := len(c.ordered)
	cc := &CompiledComponents{
		ordered: append([]*Component(nil), c.ordered...),
		ids:     make([]string, n),
		index:   make(map[string]int, n),
		factors: make(map[string][]float64, 6),
	}
	for i, cmp := range cc.ordered {
		cc.ids[i] = cmp.ID
		cc.index[cmp.ID] = i
	}
	for _, q := range []string{QuantityMass, QuantityC, QuantityN, QuantityP, QuantityCOD, QuantityCharge} {
		row := make([]float64, n)
		for i, cmp := range cc.ordered {
			v, err := cmp.Conversion(q)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		cc.factors[q] = row
	}
	return cc, nil
}

// CompiledComponents is the frozen registry: fixed order, ID index and
// dense per-quantity factor vectors. Structurally read-only.
type CompiledComponents struct {
	ordered []*Component
	ids     []string
	index   map[string]int
	factors map[string][]float64
}

// Size returns the number of components.
func (c *CompiledComponents) Size() int { return len(c.ordered) }

// IDs returns component IDs in registry order. The slice is shared;
// callers must not mutate it.
func (c *CompiledComponents) IDs() []string { return c.ids }

// Get returns the component with the given ID.
func (c *CompiledComponents) Get(id string) (*Component, error) {
	cmp, ok := c.byID(id)
	if !ok {
		return nil, &UndefinedComponentError{ID: id}
	}
	return cmp, nil
}

func (c *CompiledComponents) byID(id string) (*Component, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.ordered[i], true
}

// At returns the component at a registry position.
func (c *CompiledComponents) At(i int) *Component { return c.ordered[i] }

// All returns the components in registry order. The slice is shared;
// callers must not mutate it.
func (c *CompiledComponents) All() []*Component { return c.ordered }

// Index returns the registry position of the given ID.
func (c *CompiledComponents) Index(id string) (int, error) {
	i, ok := c.index[id]
	if !ok {
		return 0, &UndefinedComponentError{ID: id}
	}
	return i, nil
}

// Indices returns registry positions for multiple IDs.
func (c *CompiledComponents) Indices(ids []string) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		idx, err := c.Index(id)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// ConversionFactors returns the dense factor vector for a quantity,
// aligned to registry order. The slice is shared; callers must not
// mutate it.
func (c *CompiledComponents) ConversionFactors(quantity string) ([]float64, error) {
	row, ok := c.factors[quantity]
	if !ok {
		return nil, &UnknownQuantityError{Quantity: quantity}
	}
	return row, nil
}
