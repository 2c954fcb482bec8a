package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"leadboard/forms"
)

func (a *app) leadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Capture new leads",
	}
	var lf forms.LeadForm
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a lead as a new contact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := forms.Submit(cmd.Context(), lf, func(ctx context.Context) error {
				c, err := a.api.CreateContact(ctx, lf.Contact())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created contact %s\n", c.ID)
				return nil
			})
			return err
		},
	}
	add.Flags().StringVar(&lf.FullName, "name", "", "full name")
	add.Flags().StringVar(&lf.Email, "email", "", "email address")
	add.Flags().StringVar(&lf.PhoneNumber, "phone", "", "phone number")
	add.Flags().StringVar(&lf.City, "city", "", "city")
	add.Flags().StringVar(&lf.Company, "company", "", "company")
	add.Flags().StringVar(&lf.JobTitle, "job-title", "", "job title")
	add.Flags().StringVar(&lf.Source, "source", "", "lead source")
	add.Flags().StringVar(&lf.Status, "status", "", "lead status")
	add.Flags().StringVar(&lf.Notes, "notes", "", "notes")
	add.Flags().StringSliceVar(&lf.Tags, "tag", nil, "tag (repeatable)")
	cmd.AddCommand(add)
	return cmd
}
