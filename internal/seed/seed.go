// Package seed loads the demo accounts and listings into an empty
// marketplace.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// Demo account emails.
const (
	AdminEmail  = "admin@rentalbridge.com"
	OwnerEmail  = "owner@test.com"
	SeekerEmail = "seeker@test.com"
)

// Accounts are the demo logins. Passwords are hashed on creation.
var Accounts = []user.Input{
	{Name: "Admin User", Email: AdminEmail, Phone: "+1234567890", Password: "admin123", Role: user.RoleAdmin},
	{Name: "John Owner", Email: OwnerEmail, Phone: "+1234567891", Password: "owner123", Role: user.RoleOwner},
	{Name: "Jane Seeker", Email: SeekerEmail, Phone: "+1234567892", Password: "seeker123", Role: user.RoleSeeker},
}

// listing is a demo listing and whether it is featured once approved.
type listing struct {
	property.Input
	featured bool
}

var listings = []listing{
	{
		Input: property.Input{
			Title:         "2BHK Luxury Apartment in City Center",
			Description:   "Spacious 2BHK apartment with modern amenities in the heart of the city. Perfect for small families or working professionals.",
			Type:          property.TypeApartment,
			Rent:          25000,
			Deposit:       50000,
			Address:       "Tower A, Sunshine Residency, Ring Road",
			City:          "Surat",
			State:         "Gujarat",
			Pincode:       "395007",
			Bedrooms:      2,
			Bathrooms:     2,
			Area:          1200,
			Furnished:     property.FurnishedFull,
			Amenities:     []string{"parking", "gym", "pool", "wifi", "ac", "lift", "security"},
			Images:        []string{"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=800"},
			AvailableFrom: "2025-01-15",
		},
		featured: true,
	},
	{
		Input: property.Input{
			Title:         "3BHK Independent House with Garden",
			Description:   "Beautiful independent house with a private garden. Ideal for families looking for peaceful living.",
			Type:          property.TypeHouse,
			Rent:          35000,
			Deposit:       70000,
			Address:       "Plot 45, Green Valley Society, Vesu",
			City:          "Surat",
			State:         "Gujarat",
			Pincode:       "395007",
			Bedrooms:      3,
			Bathrooms:     3,
			Area:          2000,
			Furnished:     property.FurnishedSemi,
			Amenities:     []string{"parking", "garden", "wifi", "security"},
			Images:        []string{"https://images.unsplash.com/photo-1568605114967-8130f3a36994?w=800"},
			AvailableFrom: "2025-02-01",
		},
		featured: true,
	},
	{
		Input: property.Input{
			Title:         "1BHK Studio Apartment near IT Park",
			Description:   "Cozy studio apartment perfect for working professionals. Walking distance to IT Park.",
			Type:          property.TypeStudio,
			Rent:          15000,
			Deposit:       30000,
			Address:       "Building B, Tech Hub Residency, Adajan",
			City:          "Surat",
			State:         "Gujarat",
			Pincode:       "395009",
			Bedrooms:      1,
			Bathrooms:     1,
			Area:          600,
			Furnished:     property.FurnishedFull,
			Amenities:     []string{"parking", "wifi", "ac", "lift"},
			Images:        []string{"https://images.unsplash.com/photo-1502672260066-6bc54fc99ebe?w=800"},
			AvailableFrom: "2025-01-20",
		},
	},
}

// Result reports what Load inserted.
type Result struct {
	Users      int `json:"users"`
	Properties int `json:"properties"`
}

// Load inserts the demo accounts when there are no users and the demo
// listings, approved and owned by the demo owner, when there are no
// listings. Running it again changes nothing.
func Load(ctx context.Context, users *user.Repository, props *property.Repository) (Result, error) {
	var res Result

	existing, err := users.List(ctx)
	if err != nil {
		return res, err
	}
	if len(existing) == 0 {
		for _, in := range Accounts {
			if _, err := users.Create(ctx, in); err != nil {
				return res, fmt.Errorf("seeding %s: %w", in.Email, err)
			}
			res.Users++
		}
	}

	current, err := props.List(ctx)
	if err != nil {
		return res, err
	}
	if len(current) > 0 {
		return res, nil
	}

	owner, err := users.FindByEmail(ctx, OwnerEmail)
	if err != nil {
		return res, fmt.Errorf("finding demo owner: %w", err)
	}
	o := property.Owner{ID: owner.ID, Name: owner.Name, Email: owner.Email, Phone: owner.Phone}

	for _, l := range listings {
		p, err := props.Create(ctx, o, l.Input)
		if err != nil {
			return res, fmt.Errorf("seeding %q: %w", l.Title, err)
		}
		if _, err := props.Approve(ctx, p.ID); err != nil {
			return res, err
		}
		if l.featured {
			if _, err := props.ToggleFeatured(ctx, p.ID); err != nil {
				return res, err
			}
		}
		res.Properties++
	}

	slog.Info("demo data loaded", "users", res.Users, "properties", res.Properties)
	return res, nil
}
