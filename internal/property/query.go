package property

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey selects the ordering applied by Apply.
type SortKey string

const (
	SortNone      SortKey = ""
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortRating    SortKey = "rating"
	SortViews     SortKey = "views"
	SortBedrooms  SortKey = "bedrooms"
	SortArea      SortKey = "area"
)

// SortKeys lists the orderings Apply understands.
var SortKeys = []SortKey{SortPriceLow, SortPriceHigh, SortNewest, SortOldest, SortRating, SortViews, SortBedrooms, SortArea}

// ParseSortKey accepts a sort name. rent-low and rent-high are aliases of
// the price orderings.
func ParseSortKey(s string) (SortKey, bool) {
	switch s {
	case "":
		return SortNone, true
	case "rent-low":
		return SortPriceLow, true
	case "rent-high":
		return SortPriceHigh, true
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Filter selects listings. Zero fields do not constrain the result.
type Filter struct {
	// Keyword is matched case-insensitively against title, description,
	// address and city.
	Keyword string

	Types     []Type
	Furnished []Furnished
	City      string
	Statuses  []Status
	OwnerID   int64

	// FeaturedOnly keeps featured listings only.
	FeaturedOnly bool

	MinRent int64
	MaxRent int64

	MinBedrooms  int
	MinBathrooms int

	// Amenities must all be offered by a listing for it to match.
	Amenities []string
}

// Match reports whether p satisfies every constraint of f.
func (f Filter) Match(p *Property) bool {
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		if !strings.Contains(strings.ToLower(p.Title), kw) &&
			!strings.Contains(strings.ToLower(p.Description), kw) &&
			!strings.Contains(strings.ToLower(p.Address), kw) &&
			!strings.Contains(strings.ToLower(p.City), kw) {
			return false
		}
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, p.Type) {
		return false
	}
	if len(f.Furnished) > 0 && !slices.Contains(f.Furnished, p.Furnished) {
		return false
	}
	if f.City != "" && !strings.EqualFold(strings.TrimSpace(f.City), p.City) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, p.Status) {
		return false
	}
	if f.OwnerID != 0 && p.OwnerID != f.OwnerID {
		return false
	}
	if f.FeaturedOnly && !p.Featured {
		return false
	}
	if f.MinRent > 0 && p.Rent < f.MinRent {
		return false
	}
	if f.MaxRent > 0 && p.Rent > f.MaxRent {
		return false
	}
	if p.Bedrooms < f.MinBedrooms || p.Bathrooms < f.MinBathrooms {
		return false
	}
	for _, a := range f.Amenities {
		if !p.HasAmenity(a) {
			return false
		}
	}
	return true
}

// Apply returns the listings of props matching f, ordered by key. Ties keep
// their relative order from props, which is never modified.
func Apply(props []*Property, f Filter, key SortKey) []*Property {
	out := make([]*Property, 0, len(props))
	for _, p := range props {
		if f.Match(p) {
			out = append(out, p)
		}
	}

	if compare := comparator(key); compare != nil {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(key SortKey) func(a, b *Property) int {
	switch key {
	case SortPriceLow:
		return func(a, b *Property) int { return cmp.Compare(a.Rent, b.Rent) }
	case SortPriceHigh:
		return func(a, b *Property) int { return cmp.Compare(b.Rent, a.Rent) }
	case SortNewest:
		return func(a, b *Property) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortOldest:
		return func(a, b *Property) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortRating:
		return func(a, b *Property) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortViews:
		return func(a, b *Property) int { return cmp.Compare(b.Views, a.Views) }
	case SortBedrooms:
		return func(a, b *Property) int { return cmp.Compare(b.Bedrooms, a.Bedrooms) }
	case SortArea:
		return func(a, b *Property) int { return cmp.Compare(b.Area, a.Area) }
	}
	return nil
}
