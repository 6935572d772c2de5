package user

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/evcraddock/rental-bridge/internal/apperr"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?\d{10,13}$`)
)

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone accepts ten digits, optionally preceded by + and a country code.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// CheckPasswordStrength applies the registration form rule: at least eight
// characters with an upper-case letter, a lower-case letter and a digit.
func CheckPasswordStrength(password string) error {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	v := apperr.Violations{}
	switch {
	case len(password) < 8:
		v.Add("password", "must be at least 8 characters")
	case !upper || !lower || !digit:
		v.Add("password", "must contain upper-case, lower-case and numeric characters")
	}
	return v.Err()
}

func validateInput(in Input) error {
	v := apperr.Violations{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if !ValidEmail(in.Email) {
		v.Add("email", "must be a valid email address")
	}
	if !ValidPhone(in.Phone) {
		v.Add("phone", "must be 10 digits")
	}
	if in.Password == "" {
		v.Add("password", "is required")
	}
	if !ValidRole(string(in.Role)) {
		v.Add("role", "must be admin, owner or seeker")
	}
	return v.Err()
}

func validateUser(u *User) error {
	v := apperr.Violations{}
	if strings.TrimSpace(u.Name) == "" {
		v.Add("name", "is required")
	}
	if !ValidPhone(u.Phone) {
		v.Add("phone", "must be 10 digits")
	}
	if !ValidRole(string(u.Role)) {
		v.Add("role", "must be admin, owner or seeker")
	}
	if !ValidStatus(string(u.Status)) {
		v.Add("status", "must be active or suspended")
	}
	return v.Err()
}
