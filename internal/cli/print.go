package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"leadboard/domain"
)

func roleName(r *domain.Role) string {
	if r == nil {
		return "none"
	}
	return r.Name
}

func printTasks(w io.Writer, tasks []domain.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tTYPE\tASSIGNEE\tDUE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		assignee := "-"
		if t.AssignedTo != nil {
			assignee = t.AssignedTo.Name
			if assignee == "" {
				assignee = t.AssignedTo.ID
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, t.Type, assignee, due)
	}
	return tw.Flush()
}

func printContacts(w io.Writer, contacts []domain.Contact) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tCOMPANY\tSTATUS")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.FullName, c.Email, c.PhoneNumber, c.Company, c.Status)
	}
	return tw.Flush()
}
