package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KimmieDC/qsdsan/internal/pm2"
	"github.com/KimmieDC/qsdsan/internal/store"
)

// RatesOptions holds flags for the rates command.
type RatesOptions struct {
	*RootOptions
	State      string
	ParamsPath string
	StorePath  string
}

// ratesReport is the JSON payload of one rate evaluation.
type ratesReport struct {
	SystemHash string             `json:"system_hash"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Rates      map[string]float64 `json:"rates"`
	Production map[string]float64 `json:"production"`
	RunID      string             `json:"run_id,omitempty"`
}

// NewRatesCommand creates the rates command.
func NewRatesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RatesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Evaluate phototrophic process rates at a state point",
		Long: `Evaluate the built-in phototrophic-mixotrophic model at one state
point and print the process rates and the net production rate of each
component.

The state vector is 17 comma-separated values: the 14 component
concentrations in definition order, then flow rate, temperature in
Kelvin and light intensity.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRates(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "comma-separated state vector (required)")
	cmd.Flags().StringVar(&opts.ParamsPath, "params", "", "YAML file with parameter overrides")
	cmd.Flags().StringVar(&opts.StorePath, "store", "", "record the evaluation in this SQLite database")
	cmd.MarkFlagRequired("state")

	return cmd
}

func parseStateVector(raw string) ([]float64, error) {
	fields := strings.Split(raw, ",")
	state := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("state entry %d: %q is not a number", i, strings.TrimSpace(f))
		}
		state = append(state, v)
	}
	if len(state) != pm2.StateDim {
		return nil, fmt.Errorf("state vector must have %d entries, got %d", pm2.StateDim, len(state))
	}
	return state, nil
}

func runRates(opts *RatesOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	state, err := parseStateVector(opts.State)
	if err != nil {
		formatter.Error(ErrCodeState, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid state", err)
	}

	model, err := pm2.New()
	if err != nil {
		formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitFailure, "model construction failed", err)
	}

	report := ratesReport{SystemHash: model.Compiled().Hash()}
	if opts.ParamsPath != "" {
		overrides, err := pm2.LoadParameterFile(opts.ParamsPath)
		if err != nil {
			formatter.Error(ErrCodeParameter, err.Error(), nil)
			return WrapExitError(ExitCommandError, "parameter file error", err)
		}
		if err := model.SetParameters(overrides); err != nil {
			var paramErr *pm2.InvalidParameterError
			if errors.As(err, &paramErr) {
				formatter.Error(ErrCodeParameter, err.Error(), nil)
				return WrapExitError(ExitFailure, "invalid parameter", err)
			}
			formatter.Error(ErrCodeParameter, err.Error(), nil)
			return WrapExitError(ExitFailure, "parameter error", err)
		}
		report.Parameters = overrides
		formatter.VerboseLog("Applied %d parameter overrides from %s", len(overrides), opts.ParamsPath)
	}

	rhos, err := model.Rates(state)
	if err != nil {
		formatter.Error(ErrCodeState, err.Error(), nil)
		return WrapExitError(ExitFailure, "rate evaluation failed", err)
	}
	prod, err := model.ProductionRates(state)
	if err != nil {
		formatter.Error(ErrCodeState, err.Error(), nil)
		return WrapExitError(ExitFailure, "rate evaluation failed", err)
	}

	ids := model.Compiled().IDs()
	report.Rates = make(map[string]float64, len(ids))
	for i, id := range ids {
		report.Rates[id] = rhos[i]
	}
	componentIDs := model.Components().IDs()
	report.Production = make(map[string]float64, len(componentIDs))
	for i, id := range componentIDs {
		report.Production[id] = prod[i]
	}

	if opts.StorePath != "" {
		s, err := store.Open(opts.StorePath)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "store error", err)
		}
		defer s.Close()
		ctx := cmd.Context()
		if _, err := s.SaveSystem(ctx, "PM2", model.Compiled()); err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "store error", err)
		}
		runID, err := s.RecordRun(ctx, report.SystemHash, state, rhos)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "store error", err)
		}
		report.RunID = runID
		formatter.VerboseLog("Recorded run %s in %s", runID, opts.StorePath)
	}

	if opts.Format == "json" {
		return formatter.Success(report)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "process rates:")
	for i, id := range ids {
		fmt.Fprintf(w, "  %s: %g\n", id, rhos[i])
	}
	fmt.Fprintln(w, "production rates:")
	for i, id := range componentIDs {
		fmt.Fprintf(w, "  %s: %g\n", id, prod[i])
	}
	if report.RunID != "" {
		fmt.Fprintf(w, "run: %s\n", report.RunID)
	}
	return nil
}
