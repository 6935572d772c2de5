package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/marketplace"
	"github.com/evcraddock/rental-bridge/internal/user"
)

func newRegisterCmd() *cobra.Command {
	var in user.Input
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Creates an owner or seeker account. Only a logged-in admin may create
another admin. The password is read from stdin when --password is omitted.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			in.Role = user.Role(role)
			return runRegister(cmd, a, in)
		}),
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (default: read from stdin)")
	cmd.Flags().StringVar(&role, "role", string(user.RoleSeeker), "account role (owner|seeker|admin)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runRegister(cmd *cobra.Command, a *app, in user.Input) error {
	if in.Password == "" {
		pw, err := readSecret(cmd, "Password: ")
		if err != nil {
			return err
		}
		in.Password = pw
	}
	if err := user.CheckPasswordStrength(in.Password); err != nil {
		return err
	}

	pub, err := a.svc.Register(cmd.Context(), in)
	if err != nil {
		return err
	}
	return output(cmd.OutOrStdout(), pub, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Registered %s <%s> as %s (#%d)\n", pub.Name, pub.Email, pub.Role, pub.ID)
		return err
	})
}

func newLoginCmd() *cobra.Command {
	var (
		email    string
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Long:  "Starts a session for the account. The password is read from stdin when --password is omitted.",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if password == "" {
				pw, err := readSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = pw
			}

			sess, err := a.svc.Login(cmd.Context(), email, password, remember)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), sess, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s (%s)\n", sess.Email, sess.Role)
				return err
			})
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (default: read from stdin)")
	cmd.Flags().BoolVar(&remember, "remember", true, "keep the session after this command exits")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			sess, err := a.svc.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return err
			}
			return a.svc.Logout(cmd.Context())
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			sess, err := a.svc.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), sess)
		}),
	}
}

func printSession(out io.Writer, sess *user.Session) error {
	return output(out, sess, func(w io.Writer) error {
		if sess == nil {
			_, err := fmt.Fprintln(w, "Not logged in.")
			return err
		}
		_, err := fmt.Fprintf(w, "%s <%s>\n  Role:  %s\n  Phone: %s\n", sess.Name, sess.Email, sess.Role, sess.Phone)
		return err
	})
}

func newProfileCmd() *cobra.Command {
	var name, phone string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your name or phone number",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			var patch marketplace.ProfilePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &phone
			}

			sess, err := a.svc.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), sess)
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number")

	return cmd
}

// readSecret prompts on stderr and reads one line from stdin.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
