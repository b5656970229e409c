package store

import (
	"context"
	"fmt"

	"github.com/KimmieDC/qsdsan/internal/queryir"
	"github.com/KimmieDC/qsdsan/internal/querysql"
)

// QuerySystems runs a filtered archive query against the systems
// table. An empty target defaults to systems.
func (s *Store) QuerySystems(ctx context.Context, q queryir.Query) ([]SystemRecord, error) {
	if q.Target == "" {
		q.Target = queryir.TargetSystems
	}
	if q.Target != queryir.TargetSystems {
		return nil, fmt.Errorf("query systems: target must be %q, got %q", queryir.TargetSystems, q.Target)
	}
	sqlText, params, err := querysql.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query systems: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query systems: %w", err)
	}
	defer rows.Close()

	var out []SystemRecord
	for rows.Next() {
		rec, err := scanSystem(rows)
		if err != nil {
			return nil, fmt.Errorf("query systems: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query systems: %w", err)
	}
	return out, nil
}

// QueryRuns runs a filtered archive query against the runs table. An
// empty target defaults to runs.
func (s *Store) QueryRuns(ctx context.Context, q queryir.Query) ([]RunRecord, error) {
	if q.Target == "" {
		q.Target = queryir.TargetRuns
	}
	if q.Target != queryir.TargetRuns {
		return nil, fmt.Errorf("query runs: target must be %q, got %q", queryir.TargetRuns, q.Target)
	}
	sqlText, params, err := querysql.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("query runs: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return out, nil
}
