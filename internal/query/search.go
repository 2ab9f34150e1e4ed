package query

import (
	"fmt"

	"herdapi/internal/resource"

	"github.com/Masterminds/squirrel"
)

// searchPredicate builds the WHERE fragment for a search term in the given
// domain. The boolean result marks a search that matches nothing by
// definition (a non-date term in the dates domain, a text term against a
// resource with nothing searchable): an explicit empty result instead of
// a full scan.
func searchPredicate(desc *resource.Descriptor, term, searchType string) (squirrel.Sqlizer, bool, error) {
	switch searchType {
	case SearchText:
		pred := textSearch(desc, term)
		if pred == nil {
			// no searchable text fields and the term cannot match id
			return nil, true, nil
		}
		return pred, false, nil

	case SearchDates:
		cls := Classify(term)
		if !cls.IsDateKind() {
			return nil, true, nil
		}
		pred := dateSearch(desc, cls)
		if pred == nil {
			// resource has no date columns, nothing can match
			return nil, true, nil
		}
		return pred, false, nil

	case SearchAuto, "":
		// exactly one domain: date-like terms search dates only, everything
		// else searches text; a bare "2025" must not leak into text columns
		cls := Classify(term)
		if cls.IsDateKind() {
			pred := dateSearch(desc, cls)
			if pred == nil {
				return nil, true, nil
			}
			return pred, false, nil
		}
		pred := textSearch(desc, term)
		if pred == nil {
			return nil, true, nil
		}
		return pred, false, nil

	case SearchAll:
		// legacy wide mode: union of both domains
		var parts []squirrel.Sqlizer
		if p := textSearch(desc, term); p != nil {
			parts = append(parts, p)
		}
		cls := Classify(term)
		if cls.IsDateKind() {
			if p := dateSearch(desc, cls); p != nil {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			return nil, true, nil
		}
		if len(parts) == 1 {
			return parts[0], false, nil
		}
		return squirrel.Or(parts), false, nil
	}

	return nil, false, validationErr("search_type", "must be one of auto, dates, text, all")
}

// textSearch ORs a case-insensitive substring match over every searchable
// text field; a purely numeric term additionally matches the id column.
func textSearch(desc *resource.Descriptor, term string) squirrel.Sqlizer {
	var parts []squirrel.Sqlizer
	for _, f := range desc.SearchableTextFields() {
		parts = append(parts, squirrel.Expr(
			fmt.Sprintf("LOWER(main.%s) LIKE LOWER(?)", f.Col()),
			"%"+term+"%",
		))
	}
	if cls := Classify(term); cls.Kind == ClassNumeric || cls.Kind == ClassYear {
		var n int64
		if cls.Kind == ClassYear {
			n = int64(cls.Year)
		} else {
			n = cls.Number
		}
		parts = append(parts, squirrel.Eq{"main." + desc.IDCol(): n})
	}
	if len(parts) == 0 {
		return nil
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return squirrel.Or(parts)
}

// dateSearch ORs a component-equality predicate over every date/datetime
// field, matching only the components the classification carries.
func dateSearch(desc *resource.Descriptor, cls Classification) squirrel.Sqlizer {
	var parts []squirrel.Sqlizer
	for _, f := range desc.DateFields() {
		col := "main." + f.Col()
		switch cls.Kind {
		case ClassYear:
			parts = append(parts, squirrel.Expr(
				fmt.Sprintf("EXTRACT(YEAR FROM %s) = ?", col), cls.Year))
		case ClassYearMonth:
			parts = append(parts, squirrel.Expr(
				fmt.Sprintf("(EXTRACT(YEAR FROM %s) = ? AND EXTRACT(MONTH FROM %s) = ?)", col, col),
				cls.Year, cls.Month))
		case ClassDate:
			parts = append(parts, squirrel.Expr(
				fmt.Sprintf("%s::date = ?", col), isoDate(cls)))
		case ClassDateTime:
			if f.Kind == resource.KindDateTime {
				parts = append(parts, squirrel.Expr(
					fmt.Sprintf("date_trunc('second', %s) = ?", col), isoDateTime(cls)))
			} else {
				parts = append(parts, squirrel.Expr(
					fmt.Sprintf("%s::date = ?", col), isoDate(cls)))
			}
		}
	}
	if len(parts) == 0 {
		return nil
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return squirrel.Or(parts)
}

func isoDate(cls Classification) string {
	return fmt.Sprintf("%04d-%02d-%02d", cls.Year, cls.Month, cls.Day)
}

func isoDateTime(cls Classification) string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		cls.Year, cls.Month, cls.Day, cls.Hour, cls.Minute, cls.Second)
}
