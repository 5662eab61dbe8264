// Package listing projects an already fetched list according to request
// inputs: category, status, free-text search and sort order. It never
// touches the store.
package listing

import (
	"cmp"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kerjaberkah/portal/validation"
)

// Sort orders understood by Apply.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
)

// Query holds the projection inputs. Zero values mean "no filter" and
// newest first.
type Query struct {
	Category string
	Status   string
	Search   string
	Sort     string
}

// ParseQuery reads a Query from URL parameters. category_id and q are
// accepted as aliases of category and search.
func ParseQuery(v url.Values) Query {
	q := Query{
		Category: strings.TrimSpace(v.Get("category")),
		Status:   strings.TrimSpace(v.Get("status")),
		Search:   strings.TrimSpace(v.Get("search")),
		Sort:     strings.TrimSpace(v.Get("sort")),
	}
	if q.Category == "" {
		q.Category = strings.TrimSpace(v.Get("category_id"))
	}
	if q.Search == "" {
		q.Search = strings.TrimSpace(v.Get("q"))
	}
	switch q.Sort {
	case SortNewest, SortOldest, SortTitle:
	default:
		q.Sort = SortNewest
	}
	return q
}

// Values is the inverse of ParseQuery, used to keep filters in page links.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Sort != "" && q.Sort != SortNewest {
		v.Set("sort", q.Sort)
	}
	return v
}

// Fields tells Apply how to read an item. Nil accessors disable the
// corresponding filter or sort key.
type Fields[T any] struct {
	Title      func(T) string
	Categories func(T) []string
	Active     func(T) bool
	Text       func(T) []string
	CreatedAt  func(T) time.Time
}

// Apply returns a new slice holding the items that match q, in q's order.
// The input slice is not modified.
func Apply[T any](items []T, q Query, f Fields[T]) []T {
	out := make([]T, 0, len(items))
	needle := strings.ToLower(q.Search)
	for _, it := range items {
		if q.Category != "" && f.Categories != nil && !matchCategory(f.Categories(it), q.Category) {
			continue
		}
		if f.Active != nil {
			switch q.Status {
			case "true":
				if !f.Active(it) {
					continue
				}
			case "false":
				if f.Active(it) {
					continue
				}
			}
		}
		if needle != "" && !matchText(it, f, needle) {
			continue
		}
		out = append(out, it)
	}

	switch q.Sort {
	case SortTitle:
		if f.Title != nil {
			slices.SortStableFunc(out, func(a, b T) int {
				return cmp.Compare(strings.ToLower(f.Title(a)), strings.ToLower(f.Title(b)))
			})
		}
	case SortOldest:
		if f.CreatedAt != nil {
			slices.SortStableFunc(out, func(a, b T) int { return f.CreatedAt(a).Compare(f.CreatedAt(b)) })
		}
	default:
		if f.CreatedAt != nil {
			slices.SortStableFunc(out, func(a, b T) int { return f.CreatedAt(b).Compare(f.CreatedAt(a)) })
		}
	}
	return out
}

func matchCategory(have []string, want string) bool {
	for _, c := range have {
		if strings.EqualFold(c, want) {
			return true
		}
	}
	return false
}

func matchText[T any](it T, f Fields[T], needle string) bool {
	if f.Title != nil && strings.Contains(strings.ToLower(f.Title(it)), needle) {
		return true
	}
	if f.Text == nil {
		return false
	}
	for _, s := range f.Text(it) {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// ParseID validates a route parameter as a positive integer without
// leading zeros.
func ParseID(s string) (uint64, bool) {
	id, err := validation.ParseID(s)
	return id, err == nil
}
