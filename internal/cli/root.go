// Package cli defines the cobra command tree for rental-bridge.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rb",
		Short:         "Rent, list and moderate rental properties",
		Long:          "A rental marketplace. Owners list properties, seekers browse, save and inquire about them, and admins moderate listings and accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.rental-bridge/rentals.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ~/.config/rb/config.yaml)")

	root.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newProfileCmd(),
		newPropertyCmd(),
		newInquiryCmd(),
		newFavoriteCmd(),
		newViewedCmd(),
		newRecommendCmd(),
		newStatsCmd(),
		newUsersCmd(),
		newExportCmd(),
		newSeedCmd(),
		newMailCmd(),
		newVersionCmd(),
	)

	return root
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeQuietly closes c, reporting any error to stderr.
func closeQuietly(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing %s: %v\n", what, err)
	}
}
