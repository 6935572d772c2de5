package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/marketplace"
)

func newFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorite",
		Aliases: []string{"favorites", "fav"},
		Short:   "Manage saved listings",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "toggle <property-id>",
			Short: "Save or unsave a listing",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				id, err := parseID("property", args[0])
				if err != nil {
					return err
				}
				saved, err := a.svc.ToggleFavorite(cmd.Context(), id)
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), map[string]any{"propertyId": id, "favorite": saved}, func(w io.Writer) error {
					state := "removed from"
					if saved {
						state = "added to"
					}
					_, err := fmt.Fprintf(w, "Property #%d %s favorites.\n", id, state)
					return err
				})
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List saved listings",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				props, err := a.svc.Favorites(cmd.Context())
				if err != nil {
					return err
				}
				return printProperties(cmd.OutOrStdout(), props)
			}),
		},
	)

	return cmd
}

func newViewedCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "viewed",
		Short: "List recently viewed listings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if reset {
				if err := a.svc.ClearViewed(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Viewed history cleared.")
				return err
			}

			props, err := a.svc.Viewed(cmd.Context())
			if err != nil {
				return err
			}
			return printProperties(cmd.OutOrStdout(), props)
		}),
	}

	cmd.Flags().BoolVar(&reset, "clear", false, "clear the viewed history")

	return cmd
}

func newRecommendCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest listings based on what you viewed and saved",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			props, err := a.svc.Recommendations(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printProperties(cmd.OutOrStdout(), props)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", marketplace.RecommendLimit, "maximum suggestions")

	return cmd
}
