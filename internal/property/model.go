// Package property provides the rental listing domain model, data access
// and the in-memory search engine over listings.
package property

import (
	"encoding/json"
	"strings"
	"time"
)

// Type is the kind of dwelling a listing offers.
type Type string

const (
	TypeApartment Type = "apartment"
	TypeHouse     Type = "house"
	TypeVilla     Type = "villa"
	TypeStudio    Type = "studio"
	TypePenthouse Type = "penthouse"
	TypeDuplex    Type = "duplex"
	TypeRoom      Type = "room"
)

// Types lists every known listing type.
var Types = []Type{TypeApartment, TypeHouse, TypeVilla, TypeStudio, TypePenthouse, TypeDuplex, TypeRoom}

// ValidType returns true if s is a known listing type.
func ValidType(s string) bool {
	for _, t := range Types {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Furnished describes how a listing is furnished.
type Furnished string

const (
	FurnishedFull Furnished = "furnished"
	FurnishedSemi Furnished = "semi-furnished"
	FurnishedNone Furnished = "unfurnished"
)

// ValidFurnished returns true if s is a known furnished state.
func ValidFurnished(s string) bool {
	switch Furnished(s) {
	case FurnishedFull, FurnishedSemi, FurnishedNone:
		return true
	}
	return false
}

// Status is where a listing is in the moderation workflow.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRented   Status = "rented"
)

// ParseStatus maps a status name to its canonical value. The moderation
// names approved and rejected are accepted as active and inactive.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "approved":
		return StatusActive, true
	case "rejected":
		return StatusInactive, true
	}
	switch st := Status(s); st {
	case StatusPending, StatusActive, StatusInactive, StatusRented:
		return st, true
	}
	return "", false
}

// UnmarshalJSON decodes status names through ParseStatus. Unknown names are
// kept verbatim so that validation can report them.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if st, ok := ParseStatus(name); ok {
		*s = st
		return nil
	}
	*s = Status(name)
	return nil
}

// Review is a seeker's rating of a listing.
type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Property is a rental listing.
type Property struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"ownerId"`
	OwnerName     string    `json:"ownerName"`
	OwnerEmail    string    `json:"ownerEmail"`
	OwnerPhone    string    `json:"ownerPhone"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Type          Type      `json:"type"`
	Rent          int64     `json:"rent"`
	Deposit       int64     `json:"deposit"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Pincode       string    `json:"pincode"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	Area          float64   `json:"area"`
	Furnished     Furnished `json:"furnished"`
	Amenities     []string  `json:"amenities"`
	Images        []string  `json:"images"`
	AvailableFrom string    `json:"availableFrom"`
	Status        Status    `json:"status"`
	Featured      bool      `json:"featured"`
	Views         int64     `json:"views"`
	Rating        float64   `json:"rating"`
	Reviews       []Review  `json:"reviews"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CoverImage returns the first listing image, or "" when there is none.
func (p *Property) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasAmenity reports whether the listing offers amenity, ignoring case.
func (p *Property) HasAmenity(amenity string) bool {
	for _, a := range p.Amenities {
		if strings.EqualFold(a, amenity) {
			return true
		}
	}
	return false
}

// Owner is the account a new listing is attributed to. Name, email and phone
// are copied onto the listing for contact display.
type Owner struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// Input holds the owner-supplied fields of a new listing.
type Input struct {
	Title         string
	Description   string
	Type          Type
	Rent          int64
	Deposit       int64
	Address       string
	City          string
	State         string
	Pincode       string
	Bedrooms      int
	Bathrooms     int
	Area          float64
	Furnished     Furnished
	Amenities     []string
	Images        []string
	AvailableFrom string
}

// Patch holds optional listing changes. Nil fields are left untouched. The
// merged listing is validated as a whole.
type Patch struct {
	Title         *string
	Description   *string
	Type          *Type
	Rent          *int64
	Deposit       *int64
	Address       *string
	City          *string
	State         *string
	Pincode       *string
	Bedrooms      *int
	Bathrooms     *int
	Area          *float64
	Furnished     *Furnished
	Amenities     *[]string
	Images        *[]string
	AvailableFrom *string
	Status        *Status
	Featured      *bool
}

func (p *Patch) apply(prop *Property) {
	setIf(&prop.Title, p.Title)
	setIf(&prop.Description, p.Description)
	setIf(&prop.Type, p.Type)
	setIf(&prop.Rent, p.Rent)
	setIf(&prop.Deposit, p.Deposit)
	setIf(&prop.Address, p.Address)
	setIf(&prop.City, p.City)
	setIf(&prop.State, p.State)
	setIf(&prop.Pincode, p.Pincode)
	setIf(&prop.Bedrooms, p.Bedrooms)
	setIf(&prop.Bathrooms, p.Bathrooms)
	setIf(&prop.Area, p.Area)
	setIf(&prop.Furnished, p.Furnished)
	setIf(&prop.AvailableFrom, p.AvailableFrom)
	setIf(&prop.Status, p.Status)
	setIf(&prop.Featured, p.Featured)
	if p.Amenities != nil {
		prop.Amenities = append([]string(nil), (*p.Amenities)...)
	}
	if p.Images != nil {
		prop.Images = append([]string(nil), (*p.Images)...)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
