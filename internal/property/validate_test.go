package property

import (
	"testing"

	"github.com/evcraddock/rental-bridge/internal/apperr"
)

func validInput() Input {
	return Input{
		Title:         "2BHK Luxury Apartment in City Center",
		Description:   "Spacious 2BHK apartment with modern amenities in the heart of the city.",
		Type:          TypeApartment,
		Rent:          25000,
		Deposit:       50000,
		Address:       "Tower A, Sunshine Residency, Ring Road",
		City:          "Surat",
		State:         "Gujarat",
		Pincode:       "395007",
		Bedrooms:      2,
		Bathrooms:     2,
		Area:          1200,
		Furnished:     FurnishedFull,
		Amenities:     []string{"parking", "gym", "wifi"},
		Images:        []string{"https://images.example.com/1.jpg"},
		AvailableFrom: "2025-01-15",
	}
}

func fromInput(in Input) *Property {
	return &Property{
		Title: in.Title, Description: in.Description, Type: in.Type,
		Rent: in.Rent, Deposit: in.Deposit, Address: in.Address,
		City: in.City, State: in.State, Pincode: in.Pincode,
		Bedrooms: in.Bedrooms, Bathrooms: in.Bathrooms, Area: in.Area,
		Furnished: in.Furnished, Amenities: in.Amenities, Images: in.Images,
		AvailableFrom: in.AvailableFrom, Status: StatusPending,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Input)
		field string
	}{
		{"valid", func(*Input) {}, ""},
		{"short title", func(in *Input) { in.Title = "Flat" }, "title"},
		{"short description", func(in *Input) { in.Description = "Nice place." }, "description"},
		{"unknown type", func(in *Input) { in.Type = "castle" }, "type"},
		{"zero rent", func(in *Input) { in.Rent = 0 }, "rent"},
		{"negative deposit", func(in *Input) { in.Deposit = -1 }, "deposit"},
		{"short address", func(in *Input) { in.Address = "Ring Rd" }, "address"},
		{"missing city", func(in *Input) { in.City = " " }, "city"},
		{"missing state", func(in *Input) { in.State = "" }, "state"},
		{"five digit pincode", func(in *Input) { in.Pincode = "39500" }, "pincode"},
		{"letters in pincode", func(in *Input) { in.Pincode = "39500A" }, "pincode"},
		{"negative bedrooms", func(in *Input) { in.Bedrooms = -1 }, "bedrooms"},
		{"negative bathrooms", func(in *Input) { in.Bathrooms = -2 }, "bathrooms"},
		{"zero area", func(in *Input) { in.Area = 0 }, "area"},
		{"unknown furnished", func(in *Input) { in.Furnished = "partly" }, "furnished"},
		{"no images", func(in *Input) { in.Images = nil }, "images"},
		{"bad date", func(in *Input) { in.AvailableFrom = "15/01/2025" }, "availableFrom"},
		{"studio with zero bedrooms", func(in *Input) { in.Type = TypeStudio; in.Bedrooms = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)

			err := Validate(fromInput(in))
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			fields := apperr.FieldErrors(err)
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("err = %v, want violation on %q", err, tt.field)
			}
			if len(fields) != 1 {
				t.Errorf("got %d violations, want 1: %v", len(fields), fields)
			}
		})
	}
}
