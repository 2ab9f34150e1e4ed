package query

import (
	"fmt"
	"strconv"
	"strings"

	"herdapi/internal/resource"

	"github.com/Masterminds/squirrel"
)

// Column describes one projected output column. Relation is set for summary
// columns folded into an embedded object on scan.
type Column struct {
	Alias    string // column name as it appears in the row
	Field    string // output key
	Relation string // output object for relation summaries, "" for own fields
}

// Built carries the ready-to-run selection and its sibling count query.
// Both share one predicate tree. Empty marks a search that can match
// nothing by definition (dates mode with a non-date term).
type Built struct {
	Select  squirrel.SelectBuilder
	Count   squirrel.SelectBuilder
	Columns []Column
	Empty   bool
}

// Build composes the SELECT and COUNT queries for one list request:
// filters, search, sort, projection, relation summaries and pagination.
func Build(desc *resource.Descriptor, req *Request) (*Built, error) {
	if req.Page < 1 {
		return nil, validationErr("page", "must be a positive integer")
	}
	if req.Limit < 1 {
		return nil, validationErr("limit", "must be a positive integer")
	}
	switch req.SortOrder {
	case "", "asc", "desc":
	default:
		return nil, validationErr("sort_order", "must be asc or desc")
	}

	sb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar)
	sb = sb.From(fmt.Sprintf("%s AS main", desc.Table))

	// projection
	cols, selectExprs, err := projection(desc, req)
	if err != nil {
		return nil, err
	}
	sb = sb.Columns(selectExprs...)

	if req.IncludeRelations {
		for i := range desc.Relations {
			rel := &desc.Relations[i]
			target := rel.GetTargetRef()
			join := desc.Field(rel.JoinColumn)
			if target == nil || join == nil {
				continue
			}
			alias := "rel_" + rel.Name
			sb = sb.LeftJoin(fmt.Sprintf("%s AS %s ON main.%s = %s.%s",
				target.Table, alias, join.Col(), alias, target.IDCol()))
		}
	}

	// WHERE: filters AND search, sharing one tree with the count query
	where, empty, err := buildWhere(desc, req)
	if err != nil {
		return nil, err
	}

	cb := squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar).
		Column("COUNT(*)").
		From(fmt.Sprintf("%s AS main", desc.Table))

	if where != nil {
		sb = sb.Where(where)
		cb = cb.Where(where)
	}

	// ORDER BY: requested or default field, id ascending tie-break so
	// pagination stays deterministic
	sortField, sortDir, err := sortSpec(desc, req)
	if err != nil {
		return nil, err
	}
	sb = sb.OrderBy(fmt.Sprintf("main.%s %s", sortField.Col(), sortDir))
	if sortField.Col() != desc.IDCol() {
		sb = sb.OrderBy(fmt.Sprintf("main.%s ASC", desc.IDCol()))
	}

	// LIMIT / OFFSET; CSV export skips them unless the caller paged explicitly
	if req.Export != ExportCSV || req.explicitPage {
		sb = sb.Limit(uint64(req.Limit))
		if req.Page > 1 {
			sb = sb.Offset(uint64(req.Page-1) * uint64(req.Limit))
		}
	}

	return &Built{Select: sb, Count: cb, Columns: cols, Empty: empty}, nil
}

func projection(desc *resource.Descriptor, req *Request) ([]Column, []string, error) {
	var cols []Column
	var exprs []string

	addOwn := func(f *resource.FieldSpec) {
		cols = append(cols, Column{Alias: f.Col(), Field: f.Name})
		exprs = append(exprs, fmt.Sprintf("main.%s", f.Col()))
	}

	if len(req.Fields) > 0 {
		// id is always present, requested or not
		seen := map[string]bool{}
		idField := desc.Field(desc.IDCol())
		addOwn(idField)
		seen[idField.Name] = true
		for _, name := range req.Fields {
			f := desc.Field(name)
			if f == nil {
				return nil, nil, validationErr(name, "unknown field in fields")
			}
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			addOwn(f)
		}
	} else {
		for i := range desc.Fields {
			addOwn(&desc.Fields[i])
		}
	}

	if req.IncludeRelations {
		for i := range desc.Relations {
			rel := &desc.Relations[i]
			target := rel.GetTargetRef()
			if target == nil {
				continue
			}
			alias := "rel_" + rel.Name
			for _, col := range rel.Summary {
				outAlias := rel.Name + "__" + col
				cols = append(cols, Column{Alias: outAlias, Field: col, Relation: rel.Name})
				exprs = append(exprs, fmt.Sprintf(`%s.%s AS "%s"`, alias, col, outAlias))
			}
		}
	}

	return cols, exprs, nil
}

func sortSpec(desc *resource.Descriptor, req *Request) (*resource.FieldSpec, string, error) {
	name := req.SortBy
	dir := req.SortOrder
	if name == "" {
		name = desc.DefaultSort
		if dir == "" {
			dir = desc.DefaultOrder
		}
	}
	if dir == "" {
		dir = "asc"
	}
	f := desc.Field(name)
	if f == nil {
		return nil, "", validationErr(name, "unknown sort field")
	}
	if !f.Sortable && name != desc.IDCol() {
		return nil, "", validationErr(name, "field is not sortable")
	}
	return f, strings.ToUpper(dir), nil
}

// buildWhere combines filter predicates (AND across fields, OR within a
// multi-value field) with the search predicate for the requested domain.
func buildWhere(desc *resource.Descriptor, req *Request) (squirrel.Sqlizer, bool, error) {
	var exprs []squirrel.Sqlizer

	for field, values := range req.Filters {
		f := desc.Field(field)
		if f == nil {
			return nil, false, validationErr(field, "unknown filter field")
		}
		if !f.Filterable {
			return nil, false, validationErr(field, "field is not filterable")
		}
		typed, err := typedValues(f, values)
		if err != nil {
			return nil, false, err
		}
		// squirrel renders a slice as IN, i.e. the OR of equalities
		exprs = append(exprs, squirrel.Eq{"main." + f.Col(): typed})
	}

	if req.Search != "" {
		pred, empty, err := searchPredicate(desc, req.Search, req.SearchType)
		if err != nil {
			return nil, false, err
		}
		if empty {
			return nil, true, nil
		}
		if pred != nil {
			exprs = append(exprs, pred)
		}
	}

	if len(exprs) == 0 {
		return nil, false, nil
	}
	if len(exprs) == 1 {
		return exprs[0], false, nil
	}
	return squirrel.And(exprs), false, nil
}

func typedValues(f *resource.FieldSpec, values []string) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		switch f.Kind {
		case resource.KindID, resource.KindNumeric, resource.KindForeignKey:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, validationErr(f.Name, "expects a numeric value")
			}
			out = append(out, n)
		default:
			out = append(out, v)
		}
	}
	return out, nil
}
