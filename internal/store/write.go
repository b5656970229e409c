package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/KimmieDC/qsdsan/internal/process"
)

// SaveSystem stores a compiled system under its content hash. Uses ON
// CONFLICT(hash) DO NOTHING for idempotency: re-saving an identical
// compilation is a no-op, under any name.
func (s *Store) SaveSystem(ctx context.Context, name string, cp *process.CompiledProcesses) (SystemRecord, error) {
	rec := NewSystemRecord(name, cp)

	processIDs, err := marshalJSON(rec.ProcessIDs)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("save system: %w", err)
	}
	componentIDs, err := marshalJSON(rec.ComponentIDs)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("save system: %w", err)
	}
	matrix, err := marshalJSON(rec.Stoichiometry)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("save system: %w", err)
	}
	rates, err := marshalJSON(rec.RateEquations)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("save system: %w", err)
	}
	params, err := marshalJSON(rec.Parameters)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("save system: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO systems
		(hash, name, process_ids, component_ids, stoichiometry, rate_equations, parameters)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		rec.Hash, rec.Name, processIDs, componentIDs, matrix, rates, params,
	)
	if err != nil {
		return SystemRecord{}, fmt.Errorf("save system: %w", err)
	}
	return rec, nil
}

// RecordRun stores one rate evaluation against a stored system and
// returns the generated run ID. The system must have been saved first
// (foreign key constraint).
func (s *Store) RecordRun(ctx context.Context, systemHash string, state, rates []float64) (string, error) {
	stateJSON, err := marshalJSON(state)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	ratesJSON, err := marshalJSON(rates)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, system_hash, state, rates)
		VALUES (?, ?, ?, ?)
	`,
		id, systemHash, stateJSON, ratesJSON,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}
