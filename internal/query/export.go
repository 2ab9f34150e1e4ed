package query

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"herdapi/internal/db"
	"herdapi/internal/resource"
)

// ExportCSVTo streams the full filtered set as CSV, row by row, without
// materializing it. Pagination applies only when the caller paged explicitly.
func ExportCSVTo(ctx context.Context, q db.Querier, desc *resource.Descriptor, req *Request, w io.Writer) error {
	req.Export = ExportCSV
	built, err := Build(desc, req)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(built.Columns))
	for _, c := range built.Columns {
		name := c.Field
		if c.Relation != "" {
			name = c.Relation + "." + c.Field
		}
		header = append(header, name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	if built.Empty {
		cw.Flush()
		return cw.Error()
	}

	sqlStr, args, err := built.Select.ToSql()
	if err != nil {
		return err
	}
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("export %s: %w", desc.Name, err)
	}
	defer rows.Close()

	record := make([]string, len(built.Columns))
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return err
		}
		for i := range built.Columns {
			if i < len(values) {
				record[i] = csvCell(values[i])
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func csvCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.RFC3339)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
