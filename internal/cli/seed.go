package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo accounts and listings",
		Long: fmt.Sprintf(`Creates the demo admin, owner and seeker accounts when there are no users,
and three approved sample listings when there are no listings. Running it
again changes nothing.

Demo logins: %s, %s and %s.`, seed.AdminEmail, seed.OwnerEmail, seed.SeekerEmail),
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			res, err := seed.Load(cmd.Context(), a.svc.Users(), a.svc.Properties())
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), res, func(w io.Writer) error {
				if res.Users == 0 && res.Properties == 0 {
					_, err := fmt.Fprintln(w, "Nothing to seed.")
					return err
				}
				_, err := fmt.Fprintf(w, "Seeded %d users and %d properties.\n", res.Users, res.Properties)
				return err
			})
		}),
	}
}
