package query

import (
	"context"
	"fmt"

	"herdapi/internal/db"
	"herdapi/internal/logger"
	"herdapi/internal/resource"

	"github.com/jackc/pgx/v5"
)

// Result is the outbound shape of one list query.
type Result struct {
	Items      []map[string]any `json:"items"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalItems int64            `json:"total_items"`
}

// List runs the selection plus its count query and returns the paginated
// result. The count reflects the filtered set independent of the window.
func List(ctx context.Context, q db.Querier, desc *resource.Descriptor, req *Request) (*Result, error) {
	built, err := Build(desc, req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Items: []map[string]any{},
		Page:  req.Page,
		Limit: req.Limit,
	}
	if built.Empty {
		return res, nil
	}

	countSQL, countArgs, err := built.Count.ToSql()
	if err != nil {
		return nil, err
	}
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&res.TotalItems); err != nil {
		return nil, fmt.Errorf("count %s: %w", desc.Name, err)
	}

	sqlStr, args, err := built.Select.ToSql()
	if err != nil {
		return nil, err
	}
	logger.Debug("sql", logger.Fields{
		"resource": desc.Name,
		"sql":      sqlStr,
		"args":     args,
	})

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", desc.Name, err)
	}
	defer rows.Close()

	items, err := scanRows(rows, built.Columns)
	if err != nil {
		return nil, err
	}
	res.Items = items
	return res, nil
}

// Get fetches a single row by id, all descriptor fields projected.
func Get(ctx context.Context, q db.Querier, desc *resource.Descriptor, id int64) (map[string]any, error) {
	req := &Request{Page: 1, Limit: 1, Filters: map[string][]string{
		desc.IDCol(): {fmt.Sprintf("%d", id)},
	}}
	built, err := Build(desc, req)
	if err != nil {
		return nil, err
	}
	sqlStr, args, err := built.Select.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", desc.Name, err)
	}
	defer rows.Close()

	items, err := scanRows(rows, built.Columns)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// scanRows folds flat rows into items; relation summary columns land in an
// embedded object under the relation name.
func scanRows(rows pgx.Rows, cols []Column) ([]map[string]any, error) {
	byAlias := make(map[string]Column, len(cols))
	for _, c := range cols {
		byAlias[c.Alias] = c
	}

	items := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		fds := rows.FieldDescriptions()

		item := map[string]any{}
		for i, fd := range fds {
			if i >= len(values) {
				break
			}
			col, ok := byAlias[string(fd.Name)]
			if !ok {
				item[string(fd.Name)] = values[i]
				continue
			}
			if col.Relation == "" {
				item[col.Field] = values[i]
				continue
			}
			nested, ok := item[col.Relation].(map[string]any)
			if !ok {
				nested = map[string]any{}
				item[col.Relation] = nested
			}
			nested[col.Field] = values[i]
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
