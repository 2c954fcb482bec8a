package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"leadboard/client"
	"leadboard/contacts"
)

func (a *app) contactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Browse, import and export contacts",
	}
	cmd.AddCommand(a.contactsListCmd(), a.contactsImportCmd(), a.contactsExportCmd())
	return cmd
}

func (a *app) contactsListCmd() *cobra.Command {
	var q client.ContactQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of contacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := contacts.NewPager(a.api, q)
			data, err := p.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printContacts(out, data); err != nil {
				return err
			}
			fmt.Fprintln(out, p.Label())
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", contacts.DefaultPageSize, "contacts per page")
	cmd.Flags().StringVar(&q.Search, "search", "", "name, email, phone or company substring")
	cmd.Flags().StringVar(&q.Status, "status", "", "contact status")
	cmd.Flags().StringVar(&q.Source, "source", "", "contact source")
	return cmd
}

// readImport parses a .json file as JSON and anything else as CSV.
func readImport(path string) (contacts.Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return contacts.Preview{}, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return contacts.ParseJSON(f)
	}
	return contacts.ParseCSV(f)
}

func (a *app) contactsImportCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Preview a CSV or JSON import and optionally send it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, err := readImport(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d contacts ready, %d rows skipped\n", len(preview.Contacts), preview.Skipped)
			if !apply {
				for _, c := range preview.Contacts {
					fmt.Fprintf(out, "  %s <%s> %s\n", c.FullName, c.Email, c.PhoneNumber)
				}
				return nil
			}
			if len(preview.Contacts) == 0 {
				return nil
			}
			res, err := a.api.ImportContacts(cmd.Context(), preview.Contacts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d, failed %d\n", res.Imported, res.Failed)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "send the contacts instead of only previewing")
	return cmd
}

func (a *app) contactsExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download all contacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("format must be csv or json, got %q", format)
			}
			data, err := a.api.ExportContacts(cmd.Context(), format)
			if err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(w, "Wrote %d bytes to %s\n", len(data), output)
				return nil
			}
			_, err = w.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
