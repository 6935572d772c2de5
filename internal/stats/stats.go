// Package stats derives dashboard counts and aggregates from full
// collections. Every function is a single pass over its inputs.
package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// StatusCounts counts listings per moderation status.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Inactive  int `json:"inactive"`
	Rented    int `json:"rented"`
	Available int `json:"available"`
	Featured  int `json:"featured"`
}

// PropertyStats summarizes a set of listings.
type PropertyStats struct {
	StatusCounts
	TotalViews int64 `json:"totalViews"`
}

// Properties summarizes props.
func Properties(props []*property.Property) PropertyStats {
	var s PropertyStats
	for _, p := range props {
		s.count(p)
		s.TotalViews += p.Views
	}
	return s
}

func (c *StatusCounts) count(p *property.Property) {
	c.Total++
	switch p.Status {
	case property.StatusPending:
		c.Pending++
	case property.StatusActive:
		c.Active++
		c.Available++
	case property.StatusInactive:
		c.Inactive++
	case property.StatusRented:
		c.Rented++
	}
	if p.Featured {
		c.Featured++
	}
}

// AdminStats is the moderation dashboard summary.
type AdminStats struct {
	Users          int           `json:"users"`
	Admins         int           `json:"admins"`
	Owners         int           `json:"owners"`
	Seekers        int           `json:"seekers"`
	Suspended      int           `json:"suspended"`
	Properties     PropertyStats `json:"properties"`
	TotalInquiries int           `json:"totalInquiries"`
	NewInquiries   int           `json:"newInquiries"`
}

// Admin summarizes the whole marketplace.
func Admin(users []*user.User, props []*property.Property, inqs []*inquiry.Inquiry) AdminStats {
	s := AdminStats{Properties: Properties(props)}
	for _, u := range users {
		s.Users++
		switch u.Role {
		case user.RoleAdmin:
			s.Admins++
		case user.RoleOwner:
			s.Owners++
		case user.RoleSeeker:
			s.Seekers++
		}
		if !u.Active() {
			s.Suspended++
		}
	}
	s.TotalInquiries, s.NewInquiries = countInquiries(inqs, func(*inquiry.Inquiry) bool { return true })
	return s
}

// OwnerStats is an owner's dashboard summary.
type OwnerStats struct {
	StatusCounts
	TotalViews     int64 `json:"totalViews"`
	TotalRevenue   int64 `json:"totalRevenue"`
	TotalInquiries int   `json:"totalInquiries"`
	NewInquiries   int   `json:"newInquiries"`
}

// Owner summarizes the listings of ownerID. TotalRevenue is the rent summed
// over rented listings.
func Owner(ownerID int64, props []*property.Property, inqs []*inquiry.Inquiry) OwnerStats {
	var s OwnerStats
	for _, p := range props {
		if p.OwnerID != ownerID {
			continue
		}
		s.count(p)
		s.TotalViews += p.Views
		if p.Status == property.StatusRented {
			s.TotalRevenue += p.Rent
		}
	}
	s.TotalInquiries, s.NewInquiries = countInquiries(inqs, func(q *inquiry.Inquiry) bool { return q.OwnerID == ownerID })
	return s
}

// SeekerStats is a seeker's dashboard summary.
type SeekerStats struct {
	Favorites int `json:"favorites"`
	Viewed    int `json:"viewed"`
	Inquiries int `json:"inquiries"`
	Answered  int `json:"answered"`
}

// Seeker summarizes a seeker's saved listings, history and inquiries.
func Seeker(seekerID int64, favorites, viewed []int64, inqs []*inquiry.Inquiry) SeekerStats {
	s := SeekerStats{Favorites: len(favorites), Viewed: len(viewed)}
	total, open := countInquiries(inqs, func(q *inquiry.Inquiry) bool { return q.SeekerID == seekerID })
	s.Inquiries = total
	s.Answered = total - open
	return s
}

func countInquiries(inqs []*inquiry.Inquiry, match func(*inquiry.Inquiry) bool) (total, open int) {
	for _, q := range inqs {
		if !match(q) {
			continue
		}
		total++
		if q.Status.Open() {
			open++
		}
	}
	return total, open
}

// Count is the number of listings sharing a category value.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CountByCity groups props by city, largest group first. Groups of equal
// size keep the order their city first appeared in.
func CountByCity(props []*property.Property) []Count {
	return countBy(props, func(p *property.Property) string { return p.City })
}

// CountByType groups props by listing type, largest group first.
func CountByType(props []*property.Property) []Count {
	return countBy(props, func(p *property.Property) string { return string(p.Type) })
}

func countBy(props []*property.Property, key func(*property.Property) string) []Count {
	index := map[string]int{}
	counts := []Count{}
	for _, p := range props {
		k := key(p)
		i, ok := index[k]
		if !ok {
			i = len(counts)
			index[k] = i
			counts = append(counts, Count{Name: k})
		}
		counts[i].Count++
	}
	slices.SortStableFunc(counts, func(a, b Count) int { return cmp.Compare(b.Count, a.Count) })
	return counts
}

// TopByViews returns the n most viewed listings. Ties keep their order in
// props.
func TopByViews(props []*property.Property, n int) []*property.Property {
	top := slices.Clone(props)
	slices.SortStableFunc(top, func(a, b *property.Property) int { return cmp.Compare(b.Views, a.Views) })
	if n >= 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

// Range is the lowest and highest rent of a set of listings.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// RentRange returns the rent bounds of props, or zeros when empty.
func RentRange(props []*property.Property) Range {
	if len(props) == 0 {
		return Range{}
	}
	r := Range{Min: props[0].Rent, Max: props[0].Rent}
	for _, p := range props[1:] {
		r.Min = min(r.Min, p.Rent)
		r.Max = max(r.Max, p.Rent)
	}
	return r
}

// Activity is one entry of the admin activity feed.
type Activity struct {
	Kind  string    `json:"kind"`
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	At    time.Time `json:"at"`
}

// Activity kinds.
const (
	KindUser     = "user"
	KindProperty = "property"
	KindInquiry  = "inquiry"
)

// RecentActivity merges registrations, new listings and new inquiries into
// one feed, newest first, of at most limit entries.
func RecentActivity(users []*user.User, props []*property.Property, inqs []*inquiry.Inquiry, limit int) []Activity {
	feed := make([]Activity, 0, len(users)+len(props)+len(inqs))
	for _, u := range users {
		feed = append(feed, Activity{Kind: KindUser, ID: u.ID, Title: u.Name + " registered as " + string(u.Role), At: u.CreatedAt})
	}
	for _, p := range props {
		feed = append(feed, Activity{Kind: KindProperty, ID: p.ID, Title: p.Title, At: p.CreatedAt})
	}
	for _, q := range inqs {
		feed = append(feed, Activity{Kind: KindInquiry, ID: q.ID, Title: q.Name + " asked about " + q.PropertyTitle, At: q.CreatedAt})
	}

	slices.SortStableFunc(feed, func(a, b Activity) int { return b.At.Compare(a.At) })
	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}
