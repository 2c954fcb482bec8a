package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"leadboard/forms"
)

func (a *app) smsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sms",
		Short: "Send text messages",
	}
	var sf forms.SMSForm
	send := &cobra.Command{
		Use:   "send",
		Short: "Send an SMS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sf.RelatedID != "" && sf.RelatedType == "" {
				sf.RelatedType = "contact"
			}
			return forms.Submit(cmd.Context(), sf, func(ctx context.Context) error {
				m, err := a.api.SendSMS(ctx, sf.Input())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s to %s\n", m.ID, sf.To)
				return nil
			})
		},
	}
	send.Flags().StringVar(&sf.To, "to", "", "recipient in E.164 form")
	send.Flags().StringVar(&sf.Body, "body", "", "message text")
	send.Flags().StringVar(&sf.RelatedID, "contact", "", "related contact id")
	cmd.AddCommand(send)
	return cmd
}
