package query

import (
	"net/url"
	"strconv"
	"strings"

	"herdapi/internal/resource"
)

// Search domains. Auto picks exactly one of text/dates based on the
// classifier; All is the legacy wide mode combining both.
const (
	SearchAuto  = "auto"
	SearchDates = "dates"
	SearchText  = "text"
	SearchAll   = "all"
)

const (
	ExportNone = ""
	ExportCSV  = "csv"
)

// Request is one parsed list query. Built per request, never persisted.
type Request struct {
	Page             int
	Limit            int
	Search           string
	SearchType       string
	SortBy           string
	SortOrder        string
	Filters          map[string][]string
	Fields           []string
	IncludeRelations bool
	Export           string

	// true when Page/Limit were given explicitly (export honors them then)
	explicitPage bool
}

var reservedParams = map[string]bool{
	"page":              true,
	"limit":             true,
	"search":            true,
	"search_type":       true,
	"sort_by":           true,
	"sort_order":        true,
	"fields":            true,
	"include_relations": true,
	"export":            true,
}

// ParseRequest builds a Request from query-string values. Any non-reserved
// parameter is treated as a filter and must name a filterable field;
// unknown fields are rejected, not ignored.
func ParseRequest(values url.Values, desc *resource.Descriptor) (*Request, error) {
	req := &Request{
		Page:       1,
		Limit:      25,
		SearchType: SearchAuto,
		SortOrder:  "",
		Filters:    map[string][]string{},
	}

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, validationErr("page", "must be a positive integer")
		}
		req.Page = n
		req.explicitPage = true
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, validationErr("limit", "must be a positive integer")
		}
		req.Limit = n
		req.explicitPage = true
	}

	req.Search = strings.TrimSpace(values.Get("search"))
	if v := values.Get("search_type"); v != "" {
		switch v {
		case SearchAuto, SearchDates, SearchText, SearchAll:
			req.SearchType = v
		default:
			return nil, validationErr("search_type", "must be one of auto, dates, text, all")
		}
	}

	req.SortBy = values.Get("sort_by")
	if v := values.Get("sort_order"); v != "" {
		switch v {
		case "asc", "desc":
			req.SortOrder = v
		default:
			return nil, validationErr("sort_order", "must be asc or desc")
		}
	}

	if v := values.Get("fields"); v != "" {
		for _, f := range strings.Split(v, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if desc.Field(f) == nil {
				return nil, validationErr(f, "unknown field in fields")
			}
			req.Fields = append(req.Fields, f)
		}
	}

	if v := values.Get("include_relations"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, validationErr("include_relations", "must be a boolean")
		}
		req.IncludeRelations = b
	}

	if v := values.Get("export"); v != "" {
		if v != ExportCSV {
			return nil, validationErr("export", "unsupported export format")
		}
		req.Export = ExportCSV
	}

	for key, vals := range values {
		if reservedParams[key] {
			continue
		}
		field := desc.Field(key)
		if field == nil {
			return nil, validationErr(key, "unknown filter field")
		}
		if !field.Filterable {
			return nil, validationErr(key, "field is not filterable")
		}
		var parts []string
		for _, v := range vals {
			for _, p := range strings.Split(v, ",") {
				p = strings.TrimSpace(p)
				if p != "" {
					parts = append(parts, p)
				}
			}
		}
		if len(parts) > 0 {
			req.Filters[key] = parts
		}
	}

	return req, nil
}
