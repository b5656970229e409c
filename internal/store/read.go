package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// GetSystem loads a stored system by content hash.
func (s *Store) GetSystem(ctx context.Context, hash string) (SystemRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, name, process_ids, component_ids, stoichiometry, rate_equations, parameters, created_at
		FROM systems
		WHERE hash = ?
	`, hash)

	rec, err := scanSystem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SystemRecord{}, fmt.Errorf("system %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return SystemRecord{}, fmt.Errorf("get system: %w", err)
	}
	return rec, nil
}

// ListSystems returns all stored systems, oldest first. Ties on
// created_at are broken by hash for deterministic listings.
func (s *Store) ListSystems(ctx context.Context) ([]SystemRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, name, process_ids, component_ids, stoichiometry, rate_equations, parameters, created_at
		FROM systems
		ORDER BY created_at ASC, hash ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}
	defer rows.Close()

	var out []SystemRecord
	for rows.Next() {
		rec, err := scanSystem(rows)
		if err != nil {
			return nil, fmt.Errorf("list systems: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}
	return out, nil
}

// ListRuns returns the recorded evaluations for one system, oldest
// first.
func (s *Store) ListRuns(ctx context.Context, systemHash string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, system_hash, state, rates, created_at
		FROM runs
		WHERE system_hash = ?
		ORDER BY created_at ASC, id ASC
	`, systemHash)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// scanner covers sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var rec RunRecord
	var state, rates string
	if err := sc.Scan(&rec.ID, &rec.SystemHash, &state, &rates, &rec.CreatedAt); err != nil {
		return RunRecord{}, err
	}
	if err := unmarshalJSON(state, &rec.State); err != nil {
		return RunRecord{}, err
	}
	if err := unmarshalJSON(rates, &rec.Rates); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

func scanSystem(sc scanner) (SystemRecord, error) {
	var rec SystemRecord
	var processIDs, componentIDs, matrix, rates, params string
	if err := sc.Scan(&rec.Hash, &rec.Name, &processIDs, &componentIDs, &matrix, &rates, &params, &rec.CreatedAt); err != nil {
		return SystemRecord{}, err
	}
	if err := unmarshalJSON(processIDs, &rec.ProcessIDs); err != nil {
		return SystemRecord{}, err
	}
	if err := unmarshalJSON(componentIDs, &rec.ComponentIDs); err != nil {
		return SystemRecord{}, err
	}
	if err := unmarshalJSON(matrix, &rec.Stoichiometry); err != nil {
		return SystemRecord{}, err
	}
	if err := unmarshalJSON(rates, &rec.RateEquations); err != nil {
		return SystemRecord{}, err
	}
	if err := unmarshalJSON(params, &rec.Parameters); err != nil {
		return SystemRecord{}, err
	}
	return rec, nil
}
