package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/property"
)

func newPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"properties", "p"},
		Short:   "Browse and manage listings",
	}

	cmd.AddCommand(
		newPropertyListCmd(),
		newPropertyShowCmd(),
		newPropertyFeaturedCmd(),
		newPropertyCompareCmd(),
		newPropertyAddCmd(),
		newPropertyUpdateCmd(),
		newPropertyRemoveCmd(),
		newPropertyStatusCmd(),
		newPropertyModerateCmd("toggle", "Flip one of your listings between active and inactive", (*app).toggle),
		newPropertyModerateCmd("approve", "Approve a pending listing", (*app).approve),
		newPropertyModerateCmd("reject", "Reject a pending listing", (*app).reject),
		newPropertyModerateCmd("feature", "Toggle the featured flag of a listing", (*app).feature),
		newPropertyReviewCmd(),
	)

	return cmd
}

// parseID parses a numeric record ID argument.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, s)
	}
	return id, nil
}

func newPropertyListCmd() *cobra.Command {
	var (
		f         property.Filter
		types     []string
		furnished []string
		statuses  []string
		mine      bool
		sortKey   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		Long: `Lists listings matching the filters. Visitors and seekers see active
listings only. Owners see all of their own listings with --mine, and admins
see every listing.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			key, ok := property.ParseSortKey(sortKey)
			if !ok {
				return fmt.Errorf("unknown sort %q", sortKey)
			}
			for _, t := range types {
				f.Types = append(f.Types, property.Type(t))
			}
			for _, fu := range furnished {
				f.Furnished = append(f.Furnished, property.Furnished(fu))
			}
			for _, s := range statuses {
				st, ok := property.ParseStatus(s)
				if !ok {
					return fmt.Errorf("unknown status %q", s)
				}
				f.Statuses = append(f.Statuses, st)
			}
			if mine {
				sess, err := a.svc.CurrentUser(cmd.Context())
				if err != nil {
					return err
				}
				if sess == nil {
					return fmt.Errorf("--mine requires a logged-in owner")
				}
				f.OwnerID = sess.ID
			}

			props, err := a.svc.ListProperties(cmd.Context(), f, key)
			if err != nil {
				return err
			}
			return printProperties(cmd.OutOrStdout(), props)
		}),
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.Keyword, "keyword", "k", "", "match title, description, address or city")
	flags.StringSliceVar(&types, "type", nil, "listing types (apartment|house|villa|studio|penthouse|duplex|room)")
	flags.StringSliceVar(&furnished, "furnished", nil, "furnishing (furnished|semi-furnished|unfurnished)")
	flags.StringVar(&f.City, "city", "", "city")
	flags.StringSliceVar(&statuses, "status", nil, "listing statuses (pending|active|inactive|rented)")
	flags.Int64Var(&f.OwnerID, "owner", 0, "owner user ID")
	flags.BoolVar(&mine, "mine", false, "only listings owned by the logged-in user")
	flags.BoolVar(&f.FeaturedOnly, "featured", false, "only featured listings")
	flags.Int64Var(&f.MinRent, "min-rent", 0, "minimum monthly rent")
	flags.Int64Var(&f.MaxRent, "max-rent", 0, "maximum monthly rent")
	flags.IntVar(&f.MinBedrooms, "min-beds", 0, "minimum bedrooms")
	flags.IntVar(&f.MinBathrooms, "min-baths", 0, "minimum bathrooms")
	flags.StringSliceVar(&f.Amenities, "amenity", nil, "required amenities")
	flags.StringVar(&sortKey, "sort", "", "sort order (price-low|price-high|newest|oldest|rating|views|bedrooms|area)")

	return cmd
}

func printProperties(out io.Writer, props []*property.Property) error {
	return output(out, props, func(w io.Writer) error {
		return printPropertyTable(w, props)
	})
}

func printOneProperty(out io.Writer, p *property.Property) error {
	return output(out, p, func(w io.Writer) error {
		return printProperty(w, p)
	})
}

func newPropertyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a listing",
		Long:  "Shows a listing and counts the view. Seekers also get it added to their viewed history.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.GetProperty(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printOneProperty(cmd.OutOrStdout(), p)
		}),
	}
}

func newPropertyFeaturedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List featured listings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			props, err := a.svc.FeaturedProperties(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printProperties(cmd.OutOrStdout(), props)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 6, "maximum listings to show")

	return cmd
}

func newPropertyCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <id> <id>...",
		Short: "Compare listings side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID("property", arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			props, err := a.svc.CompareProperties(cmd.Context(), ids)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), props, func(w io.Writer) error {
				return printComparison(w, props)
			})
		}),
	}
}

func printComparison(w io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		_, err := fmt.Fprintln(w, "No properties found.")
		return err
	}

	header := []string{"FIELD"}
	fields := []struct {
		name  string
		value func(*property.Property) string
	}{
		{"Title", func(p *property.Property) string { return truncate(p.Title, 24) }},
		{"Rent", func(p *property.Property) string { return formatRent(p.Rent) }},
		{"Deposit", func(p *property.Property) string { return formatRent(p.Deposit) }},
		{"Type", func(p *property.Property) string { return string(p.Type) }},
		{"City", func(p *property.Property) string { return p.City }},
		{"Bedrooms", func(p *property.Property) string { return fmt.Sprint(p.Bedrooms) }},
		{"Bathrooms", func(p *property.Property) string { return fmt.Sprint(p.Bathrooms) }},
		{"Area", func(p *property.Property) string { return fmt.Sprintf("%g", p.Area) }},
		{"Furnished", func(p *property.Property) string { return string(p.Furnished) }},
		{"Rating", func(p *property.Property) string { return formatRating(p.Rating) }},
	}

	for _, p := range props {
		header = append(header, fmt.Sprintf("#%d", p.ID))
	}
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		row := []string{f.name}
		for _, p := range props {
			row = append(row, f.value(p))
		}
		rows = append(rows, row)
	}
	return table(w, header, rows)
}

// listingFlags binds the editable listing fields to command flags.
type listingFlags struct {
	title         string
	description   string
	typ           string
	rent          int64
	deposit       int64
	address       string
	city          string
	state         string
	pincode       string
	bedrooms      int
	bathrooms     int
	area          float64
	furnished     string
	amenities     []string
	images        []string
	availableFrom string
}

func (l *listingFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&l.title, "title", "", "listing title")
	flags.StringVar(&l.description, "description", "", "listing description")
	flags.StringVar(&l.typ, "type", "", "listing type")
	flags.Int64Var(&l.rent, "rent", 0, "monthly rent")
	flags.Int64Var(&l.deposit, "deposit", 0, "security deposit")
	flags.StringVar(&l.address, "address", "", "street address")
	flags.StringVar(&l.city, "city", "", "city")
	flags.StringVar(&l.state, "state", "", "state")
	flags.StringVar(&l.pincode, "pincode", "", "6-digit pincode")
	flags.IntVar(&l.bedrooms, "bedrooms", 0, "number of bedrooms")
	flags.IntVar(&l.bathrooms, "bathrooms", 0, "number of bathrooms")
	flags.Float64Var(&l.area, "area", 0, "area in square feet")
	flags.StringVar(&l.furnished, "furnished", string(property.FurnishedNone), "furnishing")
	flags.StringSliceVar(&l.amenities, "amenity", nil, "amenities offered")
	flags.StringSliceVar(&l.images, "image", nil, "image URLs, cover first")
	flags.StringVar(&l.availableFrom, "available-from", "", "move-in date (YYYY-MM-DD)")
}

func (l *listingFlags) input() property.Input {
	return property.Input{
		Title:         l.title,
		Description:   l.description,
		Type:          property.Type(l.typ),
		Rent:          l.rent,
		Deposit:       l.deposit,
		Address:       l.address,
		City:          l.city,
		State:         l.state,
		Pincode:       l.pincode,
		Bedrooms:      l.bedrooms,
		Bathrooms:     l.bathrooms,
		Area:          l.area,
		Furnished:     property.Furnished(l.furnished),
		Amenities:     l.amenities,
		Images:        l.images,
		AvailableFrom: l.availableFrom,
	}
}

// patch returns the fields whose flags were set on cmd.
func (l *listingFlags) patch(cmd *cobra.Command) property.Patch {
	changed := cmd.Flags().Changed
	in := l.input()

	var p property.Patch
	if changed("title") {
		p.Title = &in.Title
	}
	if changed("description") {
		p.Description = &in.Description
	}
	if changed("type") {
		p.Type = &in.Type
	}
	if changed("rent") {
		p.Rent = &in.Rent
	}
	if changed("deposit") {
		p.Deposit = &in.Deposit
	}
	if changed("address") {
		p.Address = &in.Address
	}
	if changed("city") {
		p.City = &in.City
	}
	if changed("state") {
		p.State = &in.State
	}
	if changed("pincode") {
		p.Pincode = &in.Pincode
	}
	if changed("bedrooms") {
		p.Bedrooms = &in.Bedrooms
	}
	if changed("bathrooms") {
		p.Bathrooms = &in.Bathrooms
	}
	if changed("area") {
		p.Area = &in.Area
	}
	if changed("furnished") {
		p.Furnished = &in.Furnished
	}
	if changed("amenity") {
		p.Amenities = &in.Amenities
	}
	if changed("image") {
		p.Images = &in.Images
	}
	if changed("available-from") {
		p.AvailableFrom = &in.AvailableFrom
	}
	return p
}

func newPropertyAddCmd() *cobra.Command {
	var l listingFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "List a new property",
		Long:  "Creates a listing owned by the logged-in owner. New listings wait for admin approval.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			p, err := a.svc.CreateProperty(cmd.Context(), l.input())
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Property #%d added (%s).\n", p.ID, p.Status)
				return err
			})
		}),
	}

	l.register(cmd)

	return cmd
}

func newPropertyUpdateCmd() *cobra.Command {
	var l listingFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one of your listings",
		Long:  "Changes the listing fields given as flags. Other fields are left as they are.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.UpdateProperty(cmd.Context(), id, l.patch(cmd))
			if err != nil {
				return err
			}
			return printOneProperty(cmd.OutOrStdout(), p)
		}),
	}

	l.register(cmd)

	return cmd
}

func newPropertyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a listing",
		Long:  "Deletes a listing along with its inquiries, favorites and viewed history entries.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteProperty(cmd.Context(), id); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"deleted": id})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Property #%d removed.\n", id)
			return err
		}),
	}
}

func newPropertyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a listing's status",
		Long:  "Sets a listing to active, inactive or rented. Admins may also move it back to pending.",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.SetPropertyStatus(cmd.Context(), id, property.Status(args[1]))
			if err != nil {
				return err
			}
			return printStatusChange(cmd.OutOrStdout(), p)
		}),
	}
}

func printStatusChange(out io.Writer, p *property.Property) error {
	return output(out, p, func(w io.Writer) error {
		featured := ""
		if p.Featured {
			featured = ", featured"
		}
		_, err := fmt.Fprintf(w, "Property #%d is now %s%s.\n", p.ID, p.Status, featured)
		return err
	})
}

func (a *app) approve(cmd *cobra.Command, id int64) (*property.Property, error) {
	return a.svc.ApproveProperty(cmd.Context(), id)
}

func (a *app) reject(cmd *cobra.Command, id int64) (*property.Property, error) {
	return a.svc.RejectProperty(cmd.Context(), id)
}

func (a *app) toggle(cmd *cobra.Command, id int64) (*property.Property, error) {
	return a.svc.TogglePropertyStatus(cmd.Context(), id)
}

func (a *app) feature(cmd *cobra.Command, id int64) (*property.Property, error) {
	return a.svc.ToggleFeatured(cmd.Context(), id)
}

// newPropertyModerateCmd builds a command that changes one listing's state.
func newPropertyModerateCmd(use, short string, act func(*app, *cobra.Command, int64) (*property.Property, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			p, err := act(a, cmd, id)
			if err != nil {
				return err
			}
			return printStatusChange(cmd.OutOrStdout(), p)
		}),
	}
}

func newPropertyReviewCmd() *cobra.Command {
	var (
		rating  int
		comment string
	)

	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Rate an active listing",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.AddReview(cmd.Context(), id, rating, comment)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Reviewed property #%d. Rating is now %s (%d reviews).\n",
					p.ID, formatRating(p.Rating), len(p.Reviews))
				return err
			})
		}),
	}

	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&comment, "comment", "", "review text")
	_ = cmd.MarkFlagRequired("rating")

	return cmd
}
