package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KimmieDC/qsdsan/internal/compiler"
	"github.com/KimmieDC/qsdsan/internal/process"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Tolerance float64
}

// checkReport is the JSON payload of one conservation check.
type checkReport struct {
	System    string         `json:"system"`
	Tolerance float64        `json:"tolerance"`
	Processes []processCheck `json:"processes"`
	Violated  int            `json:"violated"`
	Skipped   int            `json:"skipped"`
}

type processCheck struct {
	ID         string           `json:"id"`
	Status     string           `json:"status"`
	Violations []violationEntry `json:"violations,omitempty"`
}

type violationEntry struct {
	Quantity string  `json:"quantity"`
	Residual float64 `json:"residual"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <definition.cue>",
		Short: "Check mass and charge conservation of a compiled definition",
		Long: `Compile a CUE process definition and verify every row against its
conservation set. Rows with symbolic coefficients cannot be checked
numerically and are reported as skipped.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 1e-8, "largest residual still considered conserved")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); err != nil {
		formatter.Error(ErrCodeCompile, fmt.Sprintf("definition file not found: %s", path), nil)
		return NewExitError(ExitCommandError, "definition file not found")
	}

	spec, err := compiler.LoadFile(path)
	if err != nil {
		formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}
	cp, err := compiler.Build(spec)
	if err != nil {
		formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitFailure, "compilation failed", err)
	}

	report := checkReport{System: spec.Name, Tolerance: opts.Tolerance}
	for _, p := range cp.Processes() {
		entry := processCheck{ID: p.ID(), Status: "ok"}
		err := p.CheckConservation(opts.Tolerance)
		var consErr *process.ConservationError
		var symErr *process.SymbolicStoichiometryError
		switch {
		case err == nil:
		case errors.As(err, &symErr):
			entry.Status = "skipped"
			report.Skipped++
		case errors.As(err, &consErr):
			entry.Status = "violated"
			report.Violated++
			for _, v := range consErr.Violations {
				entry.Violations = append(entry.Violations, violationEntry{
					Quantity: v.Quantity,
					Residual: v.Residual,
				})
			}
		default:
			formatter.Error(ErrCodeConservation, err.Error(), nil)
			return WrapExitError(ExitFailure, "conservation check failed", err)
		}
		report.Processes = append(report.Processes, entry)
	}

	if opts.Format == "json" {
		if report.Violated > 0 {
			if err := formatter.Success(report); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "conservation violated")
		}
		return formatter.Success(report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "system: %s\n", report.System)
	for _, entry := range report.Processes {
		fmt.Fprintf(w, "%s: %s\n", entry.ID, entry.Status)
		for _, v := range entry.Violations {
			verb := "created"
			if v.Residual < 0 {
				verb = "destroyed"
			}
			fmt.Fprintf(w, "  %s: %g %s\n", v.Quantity, v.Residual, verb)
		}
	}
	if report.Violated > 0 {
		fmt.Fprintf(w, "%d of %d processes violate conservation\n", report.Violated, len(report.Processes))
		return NewExitError(ExitFailure, "conservation violated")
	}
	if report.Skipped > 0 {
		fmt.Fprintf(w, "all checked processes conserved (%d skipped)\n", report.Skipped)
		return nil
	}
	fmt.Fprintf(w, "all %d processes conserved\n", len(report.Processes))
	return nil
}
