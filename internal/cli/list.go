package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KimmieDC/qsdsan/internal/queryir"
	"github.com/KimmieDC/qsdsan/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	StorePath string
	Name      string
	Process   string
	Component string
	System    string
	After     string
	Limit     int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <systems|runs>",
		Short: "List archived systems or recorded runs",
		Long: `List records from a system archive. Filters combine with AND:
systems can be narrowed by name, process row or component, runs by the
system hash they were recorded against.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.StorePath, "store", "", "SQLite database to query (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "match systems stored under this name")
	cmd.Flags().StringVar(&opts.Process, "process", "", "match systems containing this process row")
	cmd.Flags().StringVar(&opts.Component, "component", "", "match systems containing this component")
	cmd.Flags().StringVar(&opts.System, "system", "", "match runs recorded against this system hash")
	cmd.Flags().StringVar(&opts.After, "after", "", "match records created after this ISO-8601 UTC timestamp")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records (0 = unlimited)")
	cmd.MarkFlagRequired("store")

	return cmd
}

// buildFilter assembles the filter tree from the set flags. Returns
// nil when no flag narrows the query.
func buildFilter(opts *ListOptions) queryir.Filter {
	var filters []queryir.Filter
	if opts.Name != "" {
		filters = append(filters, queryir.NameIs{Name: opts.Name})
	}
	if opts.Process != "" {
		filters = append(filters, queryir.HasProcess{ProcessID: opts.Process})
	}
	if opts.Component != "" {
		filters = append(filters, queryir.HasComponent{ComponentID: opts.Component})
	}
	if opts.System != "" {
		filters = append(filters, queryir.ForSystem{SystemHash: opts.System})
	}
	if opts.After != "" {
		filters = append(filters, queryir.CreatedAfter{Timestamp: opts.After})
	}
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return queryir.And{Filters: filters}
	}
}

func runList(opts *ListOptions, target string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if target != string(queryir.TargetSystems) && target != string(queryir.TargetRuns) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown list target %q: must be systems or runs", target))
	}

	s, err := store.Open(opts.StorePath)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "store error", err)
	}
	defer s.Close()

	q := queryir.Query{
		Target: queryir.Target(target),
		Filter: buildFilter(opts),
		Limit:  opts.Limit,
	}
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if q.Target == queryir.TargetSystems {
		systems, err := s.QuerySystems(ctx, q)
		if err != nil {
			formatter.Error(ErrCodeQuery, err.Error(), nil)
			return WrapExitError(ExitFailure, "query failed", err)
		}
		if opts.Format == "json" {
			return formatter.Success(systems)
		}
		for _, rec := range systems {
			fmt.Fprintf(w, "%s %s (%d processes, %d components) %s\n",
				rec.Hash, rec.Name, len(rec.ProcessIDs), len(rec.ComponentIDs), rec.CreatedAt)
		}
		fmt.Fprintf(w, "%d system(s)\n", len(systems))
		return nil
	}

	runs, err := s.QueryRuns(ctx, q)
	if err != nil {
		formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", err)
	}
	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	for _, rec := range runs {
		fmt.Fprintf(w, "%s %s %s\n", rec.ID, rec.SystemHash, rec.CreatedAt)
	}
	fmt.Fprintf(w, "%d run(s)\n", len(runs))
	return nil
}
