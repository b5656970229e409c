// Package querysql compiles archive query IR into parameterized SQL
// for SQLite.
//
// Every compiled query carries a deterministic ORDER BY so listings
// are stable across runs; filter values are always bound through
// placeholders, never interpolated.
package querysql

import (
	"fmt"
	"strings"

	"github.com/KimmieDC/qsdsan/internal/queryir"
)

// Column lists match the scanners in the store package.
const (
	systemColumns = "hash, name, process_ids, component_ids, stoichiometry, rate_equations, parameters, created_at"
	runColumns    = "id, system_hash, state, rates, created_at"
)

// Compile converts a query to SQL and its bound parameters. The query
// is validated first; the first validation error aborts compilation.
func Compile(q queryir.Query) (string, []any, error) {
	if errs := queryir.Validate(q); len(errs) > 0 {
		return "", nil, fmt.Errorf("query failed validation: %w", errs[0])
	}

	var columns, orderBy string
	switch q.Target {
	case queryir.TargetSystems:
		columns = systemColumns
		orderBy = "created_at ASC, hash ASC"
	case queryir.TargetRuns:
		columns = runColumns
		orderBy = "created_at ASC, id ASC"
	}

	var sb strings.Builder
	var params []any
	fmt.Fprintf(&sb, "SELECT %s FROM %s", columns, q.Target)
	if q.Filter != nil {
		cond, condParams, err := compileFilter(q.Filter)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(cond)
		params = append(params, condParams...)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy)
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return sb.String(), params, nil
}

func compileFilter(f queryir.Filter) (string, []any, error) {
	switch filter := f.(type) {
	case queryir.NameIs:
		return "name = ?", []any{filter.Name}, nil
	case *queryir.NameIs:
		return compileFilter(*filter)
	case queryir.HashIs:
		return "hash = ?", []any{filter.Hash}, nil
	case *queryir.HashIs:
		return compileFilter(*filter)
	case queryir.HasProcess:
		return jsonListContains("process_ids", filter.ProcessID)
	case *queryir.HasProcess:
		return compileFilter(*filter)
	case queryir.HasComponent:
		return jsonListContains("component_ids", filter.ComponentID)
	case *queryir.HasComponent:
		return compileFilter(*filter)
	case queryir.ForSystem:
		return "system_hash = ?", []any{filter.SystemHash}, nil
	case *queryir.ForSystem:
		return compileFilter(*filter)
	case queryir.CreatedAfter:
		return "created_at > ?", []any{filter.Timestamp}, nil
	case *queryir.CreatedAfter:
		return compileFilter(*filter)
	case queryir.And:
		return compileAnd(filter)
	case *queryir.And:
		return compileAnd(*filter)
	default:
		return "", nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

func compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Filters) == 0 {
		return "1 = 1", nil, nil
	}
	var parts []string
	var params []any
	for _, sub := range and.Filters {
		cond, condParams, err := compileFilter(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, cond)
		params = append(params, condParams...)
	}
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

// jsonListContains matches an ID inside a stored JSON string array.
// The arrays are written compact and without HTML escaping, so the
// quoted ID is a reliable substring.
func jsonListContains(column, id string) (string, []any, error) {
	return column + ` LIKE ? ESCAPE '\'`, []any{`%"` + escapeLike(id) + `"%`}, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
