package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/property"
	"github.com/evcraddock/rental-bridge/internal/user"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output writes v as JSON when --format json is set, and calls text otherwise.
func output(w io.Writer, v any, text func(io.Writer) error) error {
	if isJSON() {
		return printJSON(w, v)
	}
	return text(w)
}

// table writes rows under a header with a dashed separator.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len(h))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(sep, "\t")); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(w io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		_, err := fmt.Fprintln(w, "No properties found.")
		return err
	}

	rows := make([][]string, 0, len(props))
	for _, p := range props {
		title := truncate(p.Title, 40)
		if p.Featured {
			title = "★ " + title
		}
		rows = append(rows, []string{
			fmt.Sprint(p.ID),
			title,
			p.City,
			formatRent(p.Rent),
			fmt.Sprint(p.Bedrooms),
			string(p.Type),
			string(p.Status),
			formatRating(p.Rating),
		})
	}
	if err := table(w, []string{"ID", "TITLE", "CITY", "RENT", "BED", "TYPE", "STATUS", "RATING"}, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d properties\n", len(props))
	return err
}

// printProperty prints a single listing in text format.
func printProperty(w io.Writer, p *property.Property) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Property #%d: %s\n", p.ID, p.Title)
	fmt.Fprintf(&b, "  Status:    %s", p.Status)
	if p.Featured {
		b.WriteString(" (featured)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Type:      %s, %s\n", p.Type, p.Furnished)
	fmt.Fprintf(&b, "  Rent:      %s/month\n", formatRent(p.Rent))
	fmt.Fprintf(&b, "  Deposit:   %s\n", formatRent(p.Deposit))
	fmt.Fprintf(&b, "  Address:   %s, %s, %s %s\n", p.Address, p.City, p.State, p.Pincode)
	fmt.Fprintf(&b, "  Rooms:     %d bed, %d bath, %g sq ft\n", p.Bedrooms, p.Bathrooms, p.Area)
	if p.AvailableFrom != "" {
		fmt.Fprintf(&b, "  Available: %s\n", p.AvailableFrom)
	}
	if len(p.Amenities) > 0 {
		fmt.Fprintf(&b, "  Amenities: %s\n", strings.Join(p.Amenities, ", "))
	}
	fmt.Fprintf(&b, "  Owner:     %s <%s> %s\n", p.OwnerName, p.OwnerEmail, p.OwnerPhone)
	fmt.Fprintf(&b, "  Views:     %d\n", p.Views)
	fmt.Fprintf(&b, "  Rating:    %s (%d reviews)\n", formatRating(p.Rating), len(p.Reviews))
	fmt.Fprintf(&b, "\n%s\n", p.Description)

	for _, r := range p.Reviews {
		fmt.Fprintf(&b, "\n[%s] %s %s\n  %s\n",
			r.CreatedAt.Format("2006-01-02"), formatStars(r.Rating), r.UserName, r.Comment)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// printInquiryTable prints inquiries as a formatted table.
func printInquiryTable(w io.Writer, inqs []*inquiry.Inquiry) error {
	if len(inqs) == 0 {
		_, err := fmt.Fprintln(w, "No inquiries.")
		return err
	}

	rows := make([][]string, 0, len(inqs))
	for _, q := range inqs {
		rows = append(rows, []string{
			fmt.Sprint(q.ID),
			truncate(q.PropertyTitle, 30),
			q.Name,
			q.Email,
			string(q.Status),
			q.CreatedAt.Format("2006-01-02"),
			truncate(q.Message, 40),
		})
	}
	return table(w, []string{"ID", "PROPERTY", "FROM", "EMAIL", "STATUS", "DATE", "MESSAGE"}, rows)
}

// printUserTable prints accounts as a formatted table.
func printUserTable(w io.Writer, users []user.Public) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users found.")
		return err
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			fmt.Sprint(u.ID),
			u.Name,
			u.Email,
			u.Phone,
			string(u.Role),
			string(u.Status),
		})
	}
	return table(w, []string{"ID", "NAME", "EMAIL", "PHONE", "ROLE", "STATUS"}, rows)
}

// formatRent formats a rupee amount with thousands commas.
func formatRent(rupees int64) string {
	return "₹" + formatPrice(rupees)
}

// formatPrice formats an amount as a string with commas.
func formatPrice(amount int64) string {
	s := fmt.Sprintf("%d", amount)

	// Add commas
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

// formatRating renders an average rating, or "-" for an unrated listing.
func formatRating(rating float64) string {
	if rating <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", rating)
}

// formatStars returns a star representation of a review rating (1-5).
func formatStars(rating int) string {
	rating = max(1, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
