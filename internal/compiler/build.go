package compiler

import (
	"fmt"
	"os"

	"github.com/KimmieDC/qsdsan/internal/components"
	"github.com/KimmieDC/qsdsan/internal/process"
)

// Build constructs the compiled stoichiometry matrix from a validated
// SystemSpec: registry first, then one Process per row (inheriting the
// system conservation set unless the row overrides it), then the
// freeze.
func Build(spec *SystemSpec) (*process.CompiledProcesses, error) {
	if errs := Validate(spec); len(errs) > 0 {
		return nil, fmt.Errorf("system %q failed validation: %w", spec.Name, errs[0])
	}

	reg := components.New()
	for i := range spec.Components {
		c := spec.Components[i]
		if err := reg.Append(&components.Component{
			ID:          c.ID,
			Description: c.Description,
			IMass:       c.IMass,
			IC:          c.IC,
			IN:          c.IN,
			IP:          c.IP,
			ICOD:        c.ICOD,
			ICharge:     c.ICharge,
		}); err != nil {
			return nil, err
		}
	}
	cmps, err := reg.Compile()
	if err != nil {
		return nil, err
	}

	procs, err := process.NewProcesses()
	if err != nil {
		return nil, err
	}
	for _, row := range spec.Processes {
		conserved := row.ConservedFor
		if conserved == nil {
			conserved = spec.ConservedFor
		}
		p, err := process.New(process.Config{
			ID:           row.ID,
			Reaction:     row.Reaction,
			RefComponent: row.RefComponent,
			RateEquation: row.RateEquation,
			Components:   cmps,
			ConservedFor: conserved,
			Parameters:   spec.Parameters,
		})
		if err != nil {
			return nil, err
		}
		if err := procs.Append(p); err != nil {
			return nil, err
		}
	}
	return procs.Compile()
}

// LoadFile compiles a definition file into a SystemSpec.
func LoadFile(path string) (*SystemSpec, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	return CompileSource(src, path)
}

// BuildFile is LoadFile followed by Build.
func BuildFile(path string) (*process.CompiledProcesses, error) {
	spec, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Build(spec)
}
