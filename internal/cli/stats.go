package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/marketplace"
	"github.com/evcraddock/rental-bridge/internal/stats"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard figures",
	}

	var activityLimit, topLimit int

	activity := &cobra.Command{
		Use:   "activity",
		Short: "Show the latest sign-ups, listings and inquiries (admin)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			feed, err := a.svc.RecentActivity(cmd.Context(), activityLimit)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), feed, func(w io.Writer) error {
				return printActivity(w, feed)
			})
		}),
	}
	activity.Flags().IntVar(&activityLimit, "limit", marketplace.ActivityLimit, "maximum entries")

	top := &cobra.Command{
		Use:   "top",
		Short: "Show your most viewed listings (owner)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			props, err := a.svc.TopProperties(cmd.Context(), topLimit)
			if err != nil {
				return err
			}
			return printProperties(cmd.OutOrStdout(), props)
		}),
	}
	top.Flags().IntVar(&topLimit, "limit", marketplace.TopLimit, "maximum listings")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "admin",
			Short: "Marketplace totals (admin)",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				s, err := a.svc.AdminStats(cmd.Context())
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), s, func(w io.Writer) error {
					return printFigures(w, [][2]string{
						{"Users", fmt.Sprint(s.Users)},
						{"  Admins", fmt.Sprint(s.Admins)},
						{"  Owners", fmt.Sprint(s.Owners)},
						{"  Seekers", fmt.Sprint(s.Seekers)},
						{"  Suspended", fmt.Sprint(s.Suspended)},
						{"Properties", fmt.Sprint(s.Properties.Total)},
						{"  Pending", fmt.Sprint(s.Properties.Pending)},
						{"  Active", fmt.Sprint(s.Properties.Active)},
						{"  Inactive", fmt.Sprint(s.Properties.Inactive)},
						{"  Rented", fmt.Sprint(s.Properties.Rented)},
						{"  Featured", fmt.Sprint(s.Properties.Featured)},
						{"Views", fmt.Sprint(s.Properties.TotalViews)},
						{"Inquiries", fmt.Sprint(s.TotalInquiries)},
						{"  New", fmt.Sprint(s.NewInquiries)},
					})
				})
			}),
		},
		&cobra.Command{
			Use:   "owner",
			Short: "Figures for your listings (owner)",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				s, err := a.svc.OwnerStats(cmd.Context())
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), s, func(w io.Writer) error {
					return printFigures(w, [][2]string{
						{"Properties", fmt.Sprint(s.Total)},
						{"  Pending", fmt.Sprint(s.Pending)},
						{"  Available", fmt.Sprint(s.Available)},
						{"  Inactive", fmt.Sprint(s.Inactive)},
						{"  Rented", fmt.Sprint(s.Rented)},
						{"Views", fmt.Sprint(s.TotalViews)},
						{"Monthly revenue", formatRent(s.TotalRevenue)},
						{"Inquiries", fmt.Sprint(s.TotalInquiries)},
						{"  New", fmt.Sprint(s.NewInquiries)},
					})
				})
			}),
		},
		&cobra.Command{
			Use:   "seeker",
			Short: "Your saved, viewed and inquiry counts (seeker)",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				s, err := a.svc.SeekerStats(cmd.Context())
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), s, func(w io.Writer) error {
					return printFigures(w, [][2]string{
						{"Favorites", fmt.Sprint(s.Favorites)},
						{"Viewed", fmt.Sprint(s.Viewed)},
						{"Inquiries", fmt.Sprint(s.Inquiries)},
						{"  Answered", fmt.Sprint(s.Answered)},
					})
				})
			}),
		},
		&cobra.Command{
			Use:   "market",
			Short: "Summarize the active listings",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				m, err := a.svc.Market(cmd.Context())
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), m, func(w io.Writer) error {
					return printMarket(w, m)
				})
			}),
		},
		activity,
		top,
	)

	return cmd
}

// printFigures prints label/value pairs as an aligned list.
func printFigures(w io.Writer, figures [][2]string) error {
	width := 0
	for _, f := range figures {
		width = max(width, len(f[0]))
	}
	for _, f := range figures {
		if _, err := fmt.Fprintf(w, "%-*s  %s\n", width, f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func printMarket(w io.Writer, m marketplace.MarketSummary) error {
	if m.Listings == 0 {
		_, err := fmt.Fprintln(w, "No active listings.")
		return err
	}
	figures := [][2]string{
		{"Listings", fmt.Sprint(m.Listings)},
		{"Rent", formatRent(m.Rent.Min) + " to " + formatRent(m.Rent.Max)},
		{"Cities", joinCounts(m.ByCity)},
		{"Types", joinCounts(m.ByType)},
	}
	return printFigures(w, figures)
}

func joinCounts(counts []stats.Count) string {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s (%d)", c.Name, c.Count))
	}
	return strings.Join(parts, ", ")
}

func printActivity(w io.Writer, feed []stats.Activity) error {
	if len(feed) == 0 {
		_, err := fmt.Fprintln(w, "No activity.")
		return err
	}
	rows := make([][]string, 0, len(feed))
	for _, e := range feed {
		rows = append(rows, []string{e.At.Format("2006-01-02 15:04"), e.Kind, fmt.Sprint(e.ID), truncate(e.Title, 40)})
	}
	return table(w, []string{"WHEN", "KIND", "ID", "TITLE"}, rows)
}
