// Package catalog narrows and orders marketplace listings for a viewer.
package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"thrift/internal/geo"
	"thrift/models"
)

// SortKey selects the listing order.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortDistance  SortKey = "distance"
)

// ParseSortKey maps user input to a SortKey, defaulting to SortNewest.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortDistance:
		return k
	default:
		return SortNewest
	}
}

// ParsePriceBound turns a free-text price into an optional bound.
// Empty, malformed, negative or non-finite input yields nil (no constraint).
func ParsePriceBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Filter is the full set of browse options.
type Filter struct {
	SearchText string `json:"search_text"`
	// College restricts to one college; "" and "All" disable the check.
	College models.College `json:"college"`
	// MaxDistanceMiles is inclusive; zero or negative disables the check.
	MaxDistanceMiles float64  `json:"max_distance_miles"`
	MinPrice         *float64 `json:"min_price,omitempty"`
	MaxPrice         *float64 `json:"max_price,omitempty"`
	Sort             SortKey  `json:"sort"`
}

// Apply returns the available items that satisfy every predicate in f,
// ordered by f.Sort. Items that tie under the sort key keep their input order.
func Apply(items []models.Item, viewer geo.Point, f Filter) []models.Item {
	needle := strings.ToLower(strings.TrimSpace(f.SearchText))

	out := make([]models.Item, 0, len(items))
	dist := make(map[uint]float64, len(items))
	for _, it := range items {
		if !it.IsAvailable() {
			continue
		}
		if needle != "" && !matchesSearch(it, needle) {
			continue
		}
		if f.College != "" && f.College != models.AllColleges && it.College != f.College {
			continue
		}
		d := geo.DistanceMiles(viewer, it.Location)
		if f.MaxDistanceMiles > 0 && d > f.MaxDistanceMiles {
			continue
		}
		if f.MinPrice != nil && it.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && it.Price > *f.MaxPrice {
			continue
		}
		dist[it.ID] = d
		out = append(out, it)
	}

	var less func(a, b models.Item) bool
	switch ParseSortKey(string(f.Sort)) {
	case SortPriceAsc:
		less = func(a, b models.Item) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b models.Item) bool { return a.Price > b.Price }
	case SortDistance:
		less = func(a, b models.Item) bool { return dist[a.ID] < dist[b.ID] }
	default:
		less = func(a, b models.Item) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func matchesSearch(it models.Item, needle string) bool {
	if strings.Contains(strings.ToLower(it.Name), needle) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
