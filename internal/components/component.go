package components

import "fmt"

// Quantity names accepted by conversion-factor lookups. These mirror
// the conserved quantities a reaction may be balanced over.
const (
	QuantityMass   = "mass"
	QuantityC      = "C"
	QuantityN      = "N"
	QuantityP      = "P"
	QuantityCOD    = "COD"
	QuantityCharge = "charge"
)

// Component is one chemical or biological species. Conversion factors
// are expressed per unit of the component's measured-as basis, e.g.
// IN is g N per g of component as measured.
type Component struct {
	ID          string
	Description string

	IMass   float64 // g total mass / g measured
	IC      float64 // g C / g measured
	IN      float64 // g N / g measured
	IP      float64 // g P / g measured
	ICOD    float64 // g COD / g measured
	ICharge float64 // mol charge / g measured
}

// UnknownQuantityError reports a conversion-factor lookup for a
// quantity the registry does not track.
type UnknownQuantityError struct {
	Quantity string
}

func (e *UnknownQuantityError) Error() string {
	return fmt.Sprintf("unknown conserved quantity %q (want one of mass, C, N, P, COD, charge)", e.Quantity)
}

// Conversion returns the conversion factor for the named quantity.
func (c *Component) Conversion(quantity string) (float64, error) {
	switch quantity {
	case QuantityMass:
		return c.IMass, nil
	case QuantityC:
		return c.IC, nil
	case QuantityN:
		return c.IN, nil
	case QuantityP:
		return c.IP, nil
	case QuantityCOD:
		return c.ICOD, nil
	case QuantityCharge:
		return c.ICharge, nil
	}
	return 0, &UnknownQuantityError{Quantity: quantity}
}
