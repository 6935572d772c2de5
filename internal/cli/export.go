package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/marketplace"
)

func newExportCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:       "export <users|properties|inquiries|favorites>",
		Short:     "Export a collection as JSON (admin)",
		Long:      "Writes a collection as indented JSON to stdout or to --output. Passwords are never exported.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"users", "properties", "inquiries", "favorites"},
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			data, err := a.svc.ExportCollection(cmd.Context(), marketplace.Entity(args[0]))
			if err != nil {
				return err
			}

			if path == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], path)
			return err
		}),
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", "file to write instead of stdout")

	return cmd
}
