package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KimmieDC/qsdsan/internal/process"
)

// SystemRecord is the stored form of a compiled system: orderings plus
// the canonical textual form of the matrix and rate expressions.
type SystemRecord struct {
	Hash          string     `json:"hash"`
	Name          string     `json:"name"`
	ProcessIDs    []string   `json:"process_ids"`
	ComponentIDs  []string   `json:"component_ids"`
	Stoichiometry [][]string `json:"stoichiometry"`
	RateEquations []string   `json:"rate_equations"`
	Parameters    []string   `json:"parameters"`
	CreatedAt     string     `json:"created_at,omitempty"`
}

// RunRecord is one recorded rate evaluation.
type RunRecord struct {
	ID         string    `json:"id"`
	SystemHash string    `json:"system_hash"`
	State      []float64 `json:"state"`
	Rates      []float64 `json:"rates"`
	CreatedAt  string    `json:"created_at,omitempty"`
}

// NewSystemRecord flattens a compiled system into its stored form.
// Matrix entries and rate equations are serialized via the canonical
// expression strings, so structurally identical compilations produce
// identical records.
func NewSystemRecord(name string, cp *process.CompiledProcesses) SystemRecord {
	matrix := cp.Stoichiometry()
	rows := make([][]string, len(matrix))
	for i, row := range matrix {
		rows[i] = make([]string, len(row))
		for j, e := range row {
			rows[i][j] = e.String()
		}
	}
	rates := make([]string, len(cp.RateEquations()))
	for i, e := range cp.RateEquations() {
		rates[i] = e.String()
	}
	return SystemRecord{
		Hash:          cp.Hash(),
		Name:          name,
		ProcessIDs:    append([]string(nil), cp.IDs()...),
		ComponentIDs:  append([]string(nil), cp.Components().IDs()...),
		Stoichiometry: rows,
		RateEquations: rates,
		Parameters:    cp.Parameters(),
	}
}

// marshalJSON serializes v without HTML escaping, for stable stored
// text.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalJSON(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
