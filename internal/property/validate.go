package property

import (
	"regexp"
	"strings"
	"time"

	"github.com/evcraddock/rental-bridge/internal/apperr"
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// Validate reports every field of p that breaks a listing rule.
func Validate(p *Property) error {
	v := apperr.Violations{}

	if len(strings.TrimSpace(p.Title)) < 10 {
		v.Add("title", "must be at least 10 characters long")
	}
	if len(strings.TrimSpace(p.Description)) < 50 {
		v.Add("description", "must be at least 50 characters long")
	}
	if !ValidType(string(p.Type)) {
		v.Add("type", "must be one of apartment, house, villa, studio, penthouse, duplex, room")
	}
	if p.Rent <= 0 {
		v.Add("rent", "must be greater than zero")
	}
	if p.Deposit < 0 {
		v.Add("deposit", "must not be negative")
	}
	if len(strings.TrimSpace(p.Address)) < 10 {
		v.Add("address", "complete address is required")
	}
	if strings.TrimSpace(p.City) == "" {
		v.Add("city", "is required")
	}
	if strings.TrimSpace(p.State) == "" {
		v.Add("state", "is required")
	}
	if !pincodePattern.MatchString(p.Pincode) {
		v.Add("pincode", "must be 6 digits")
	}
	if p.Bedrooms < 0 {
		v.Add("bedrooms", "must not be negative")
	}
	if p.Bathrooms < 0 {
		v.Add("bathrooms", "must not be negative")
	}
	if p.Area <= 0 {
		v.Add("area", "must be greater than zero")
	}
	if !ValidFurnished(string(p.Furnished)) {
		v.Add("furnished", "must be furnished, semi-furnished or unfurnished")
	}
	if len(p.Images) == 0 {
		v.Add("images", "at least one image is required")
	}
	if _, err := time.Parse(time.DateOnly, p.AvailableFrom); err != nil {
		v.Add("availableFrom", "must be a date in YYYY-MM-DD form")
	}
	if _, ok := ParseStatus(string(p.Status)); !ok {
		v.Add("status", "must be pending, active, inactive or rented")
	}

	return v.Err()
}
