package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-bridge/internal/inquiry"
	"github.com/evcraddock/rental-bridge/internal/marketplace"
)

func newInquiryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inquiry",
		Aliases: []string{"inquiries"},
		Short:   "Send and answer inquiries about listings",
	}

	cmd.AddCommand(
		newInquiryListCmd(),
		newInquirySendCmd(),
		newInquiryRespondCmd(),
	)

	return cmd
}

func newInquiryListCmd() *cobra.Command {
	var (
		scope      marketplace.InquiryScope
		propertyID string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inquiries",
		Long: `Lists the inquiries you sent as a seeker or received as an owner.
Admins see every inquiry. --property narrows the list to one of your listings.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if propertyID != "" {
				id, err := parseID("property", propertyID)
				if err != nil {
					return err
				}
				scope.PropertyID = id
			}

			inqs, err := a.svc.ListInquiries(cmd.Context(), scope)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), inqs, func(w io.Writer) error {
				return printInquiryTable(w, inqs)
			})
		}),
	}

	cmd.Flags().StringVar(&propertyID, "property", "", "only inquiries about this listing")
	cmd.Flags().BoolVar(&scope.All, "all", false, "every inquiry (admin)")

	return cmd
}

func newInquirySendCmd() *cobra.Command {
	var in marketplace.InquiryInput

	cmd := &cobra.Command{
		Use:   "send <property-id>",
		Short: "Ask an owner about a listing",
		Long:  "Records an inquiry and emails it to the listing's owner. Contact details default to your account.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("property", args[0])
			if err != nil {
				return err
			}
			in.PropertyID = id

			q, err := a.svc.CreateInquiry(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printInquiry(cmd.OutOrStdout(), q)
		}),
	}

	cmd.Flags().StringVarP(&in.Message, "message", "m", "", "message to the owner")
	cmd.Flags().StringVar(&in.Name, "name", "", "contact name")
	cmd.Flags().StringVar(&in.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newInquiryRespondCmd() *cobra.Command {
	var reply string

	cmd := &cobra.Command{
		Use:   "respond <id>",
		Short: "Reply to an inquiry about your listing",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := parseID("inquiry", args[0])
			if err != nil {
				return err
			}
			q, err := a.svc.RespondToInquiry(cmd.Context(), id, reply)
			if err != nil {
				return err
			}
			return printInquiry(cmd.OutOrStdout(), q)
		}),
	}

	cmd.Flags().StringVarP(&reply, "reply", "r", "", "reply text")
	_ = cmd.MarkFlagRequired("reply")

	return cmd
}

func printInquiry(out io.Writer, q *inquiry.Inquiry) error {
	return output(out, q, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Inquiry #%d about %q is %s.\n", q.ID, q.PropertyTitle, q.Status)
		return err
	})
}
