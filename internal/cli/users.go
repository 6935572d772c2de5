package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/user"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Moderate accounts (admin)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every account",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				users, err := a.svc.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				return printUsers(cmd.OutOrStdout(), users)
			}),
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Find accounts by name, email or role",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				users, err := a.svc.SearchUsers(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printUsers(cmd.OutOrStdout(), users)
			}),
		},
		&cobra.Command{
			Use:   "status <id> <active|suspended>",
			Short: "Suspend or reactivate an account",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				id, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				if !user.ValidStatus(args[1]) {
					return fmt.Errorf("unknown user status %q (want active or suspended)", args[1])
				}

				pub, err := a.svc.SetUserStatus(cmd.Context(), id, user.Status(args[1]))
				if err != nil {
					return err
				}
				return output(cmd.OutOrStdout(), pub, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "User #%d (%s) is now %s.\n", pub.ID, pub.Email, pub.Status)
					return err
				})
			}),
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Delete an account",
			Long:  "Deletes an account. An owner's listings go with it, along with their inquiries, favorites and history.",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
				id, err := parseID("user", args[0])
				if err != nil {
					return err
				}
				if err := a.svc.DeleteUser(cmd.Context(), id); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(cmd.OutOrStdout(), map[string]int64{"deleted": id})
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "User #%d removed.\n", id)
				return err
			}),
		},
	)

	return cmd
}

func printUsers(out io.Writer, users []user.Public) error {
	return output(out, users, func(w io.Writer) error {
		return printUserTable(w, users)
	})
}
