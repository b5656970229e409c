// Package compiler parses CUE process-system definitions into plain
// spec structs, validates them against the schema rules and builds the
// compiled stoichiometry matrix from them.
//
// A definition file has the shape:
//
//	system: ASM1: {
//		conserved_for: ["COD", "N"]
//		parameters: ["Y_H", "mu_H", "K_S"]
//		components: S_S: {i_COD: 1, i_C: 0.4, ...}
//		processes: [{
//			id:            "aerobic_growth"
//			reaction:      "[1/Y_H]S_S + [?]S_O2 -> X_BH"
//			ref_component: "X_BH"
//			rate_equation: "mu_H*S_S/(K_S + S_S)*X_BH"
//		}, ...]
//	}
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// SystemSpec is the compiled form of one process-system definition.
type SystemSpec struct {
	Name         string          `json:"name"`
	ConservedFor []string        `json:"conserved_for"`
	Parameters   []string        `json:"parameters,omitempty"`
	Components   []ComponentSpec `json:"components"`
	Processes    []ProcessSpec   `json:"processes"`
}

// ComponentSpec declares one registry entry with its conversion
// factors.
type ComponentSpec struct {
	ID          string  `json:"id"`
	Description string  `json:"description,omitempty"`
	IMass       float64 `json:"i_mass"`
	IC          float64 `json:"i_C"`
	IN          float64 `json:"i_N"`
	IP          float64 `json:"i_P"`
	ICOD        float64 `json:"i_COD"`
	ICharge     float64 `json:"i_charge"`
}

// ProcessSpec declares one reaction row.
type ProcessSpec struct {
	ID           string   `json:"id"`
	Reaction     string   `json:"reaction"`
	RefComponent string   `json:"ref_component"`
	RateEquation string   `json:"rate_equation,omitempty"`
	// ConservedFor overrides the system-wide conservation set for this
	// row; nil means inherit.
	ConservedFor []string `json:"conserved_for,omitempty"`
}

// CompileError reports a structural problem in a CUE definition.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from a CUE error chain.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: firstErr.Error(), Pos: positions[0]}
	}
	return err
}

// CompileSource compiles CUE source text containing a `system` struct
// with exactly one named system.
func CompileSource(src []byte, filename string) (*SystemSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	sysVal := v.LookupPath(cue.ParsePath("system"))
	if !sysVal.Exists() {
		return nil, &CompileError{Field: "system", Message: "top-level system struct is required", Pos: v.Pos()}
	}
	iter, err := sysVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var spec *SystemSpec
	for iter.Next() {
		if spec != nil {
			return nil, &CompileError{Field: "system", Message: "definition must contain exactly one system", Pos: iter.Value().Pos()}
		}
		spec, err = CompileSystem(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
	}
	if spec == nil {
		return nil, &CompileError{Field: "system", Message: "system struct is empty", Pos: sysVal.Pos()}
	}
	return spec, nil
}

// CompileSystem parses a single named system value into a SystemSpec.
func CompileSystem(name string, v cue.Value) (*SystemSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	spec := &SystemSpec{Name: name}

	conserved, err := parseStringList(v, "conserved_for")
	if err != nil {
		return nil, err
	}
	if conserved == nil {
		return nil, &CompileError{Field: "conserved_for", Message: "conserved_for is required", Pos: v.Pos()}
	}
	spec.ConservedFor = conserved

	if spec.Parameters, err = parseStringList(v, "parameters"); err != nil {
		return nil, err
	}
	if spec.Components, err = parseComponents(v); err != nil {
		return nil, err
	}
	if spec.Processes, err = parseProcesses(v); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseStringList(v cue.Value, field string) ([]string, error) {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseComponents reads the components struct in declaration order.
func parseComponents(v cue.Value) ([]ComponentSpec, error) {
	val := v.LookupPath(cue.ParsePath("components"))
	if !val.Exists() {
		return nil, &CompileError{Field: "components", Message: "at least one component is required", Pos: v.Pos()}
	}
	iter, err := val.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ComponentSpec
	for iter.Next() {
		cs := ComponentSpec{ID: iter.Label()}
		cv := iter.Value()
		fields := []struct {
			name string
			dst  *float64
		}{
			{"i_mass", &cs.IMass},
			{"i_C", &cs.IC},
			{"i_N", &cs.IN},
			{"i_P", &cs.IP},
			{"i_COD", &cs.ICOD},
			{"i_charge", &cs.ICharge},
		}
		for _, f := range fields {
			fv := cv.LookupPath(cue.ParsePath(f.name))
			if !fv.Exists() {
				continue
			}
			x, err := fv.Float64()
			if err != nil {
				return nil, &CompileError{Field: fmt.Sprintf("components.%s.%s", cs.ID, f.name),
					Message: "must be a number", Pos: fv.Pos()}
			}
			*f.dst = x
		}
		if dv := cv.LookupPath(cue.ParsePath("description")); dv.Exists() {
			if cs.Description, err = dv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		out = append(out, cs)
	}
	if len(out) == 0 {
		return nil, &CompileError{Field: "components", Message: "at least one component is required", Pos: val.Pos()}
	}
	return out, nil
}

func parseProcesses(v cue.Value) ([]ProcessSpec, error) {
	val := v.LookupPath(cue.ParsePath("processes"))
	if !val.Exists() {
		return nil, &CompileError{Field: "processes", Message: "at least one process is required", Pos: v.Pos()}
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ProcessSpec
	for iter.Next() {
		pv := iter.Value()
		ps := ProcessSpec{}
		strFields := []struct {
			name     string
			dst      *string
			required bool
		}{
			{"id", &ps.ID, true},
			{"reaction", &ps.Reaction, true},
			{"ref_component", &ps.RefComponent, true},
			{"rate_equation", &ps.RateEquation, false},
		}
		for _, f := range strFields {
			fv := pv.LookupPath(cue.ParsePath(f.name))
			if !fv.Exists() {
				if f.required {
					return nil, &CompileError{
						Field:   fmt.Sprintf("processes[%d].%s", len(out), f.name),
						Message: f.name + " is required",
						Pos:     pv.Pos(),
					}
				}
				continue
			}
			if *f.dst, err = fv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if ps.ConservedFor, err = parseStringList(pv, "conserved_for"); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	if len(out) == 0 {
		return nil, &CompileError{Field: "processes", Message: "at least one process is required", Pos: val.Pos()}
	}
	return out, nil
}
