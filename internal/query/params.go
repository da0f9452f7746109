package query

import (
	"net/url"
	"strconv"
	"strings"

	"ecopoweratlas/internal/apperrors"

	"github.com/uptrace/bun"
)

// Field describes one filterable column. Fold selects case-insensitive
// equality (ISO code lookups).
type Field struct {
	Column string
	Fold   bool
}

// Spec is the per-entity allow-list of filterable, searchable and sortable
// fields. Caller input outside the allow-list is rejected (ordering) or
// ignored (unknown params), never passed into a query.
type Spec struct {
	Filterable   map[string]Field
	Searchable   []string
	Sortable     map[string]string
	DefaultOrder []string
}

// Pager carries the configured page-size bounds.
type Pager struct {
	Default int
	Max     int
}

type ListParams struct {
	Filters  map[string]string
	Search   string
	Ordering string
	Page     int
	PageSize int
}

// Parse extracts allow-listed parameters from the request query. An ordering
// key not present in the spec's sortable set is a BadRequest.
func Parse(values url.Values, spec Spec, pager Pager) (ListParams, error) {
	p := ListParams{
		Filters:  map[string]string{},
		Page:     1,
		PageSize: pager.Default,
	}

	for key := range spec.Filterable {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}

	p.Search = strings.TrimSpace(values.Get("search"))

	if ordering := strings.TrimSpace(values.Get("ordering")); ordering != "" {
		key := strings.TrimPrefix(ordering, "-")
		if _, ok := spec.Sortable[key]; !ok {
			return p, apperrors.BadRequest("cannot order by %q", key)
		}
		p.Ordering = ordering
	}

	if pageStr := values.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return p, apperrors.BadRequest("invalid page %q", pageStr)
		}
		p.Page = page
	}

	if sizeStr := values.Get("page_size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			return p, apperrors.BadRequest("invalid page_size %q", sizeStr)
		}
		if size > pager.Max {
			size = pager.Max
		}
		p.PageSize = size
	}

	return p, nil
}

// Apply adds the parsed filters, search and ordering to a select query.
func (spec Spec) Apply(q *bun.SelectQuery, p ListParams) *bun.SelectQuery {
	q = spec.Filter(q, p)

	if p.Ordering != "" {
		key := strings.TrimPrefix(p.Ordering, "-")
		col := spec.Sortable[key]
		if strings.HasPrefix(p.Ordering, "-") {
			q = q.OrderExpr(col + " DESC")
		} else {
			q = q.OrderExpr(col + " ASC")
		}
	} else {
		for _, expr := range spec.DefaultOrder {
			q = q.OrderExpr(expr)
		}
	}

	return q
}

// Filter adds the parsed filters and search to a select query without
// ordering. Aggregation queries use this directly.
func (spec Spec) Filter(q *bun.SelectQuery, p ListParams) *bun.SelectQuery {
	for key, value := range p.Filters {
		field := spec.Filterable[key]
		if field.Fold {
			q = q.Where("UPPER("+field.Column+") = UPPER(?)", value)
		} else {
			q = q.Where(field.Column+" = ?", value)
		}
	}

	if p.Search != "" && len(spec.Searchable) > 0 {
		needle := "%" + strings.ToLower(p.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, col := range spec.Searchable {
				q = q.WhereOr("LOWER("+col+") LIKE ?", needle)
			}
			return q
		})
	}

	return q
}

// Paginate applies page-based limits to a select query.
func (p ListParams) Paginate(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Limit(p.PageSize).Offset((p.Page - 1) * p.PageSize)
}
