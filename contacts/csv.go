// Package contacts reads and writes contact import/export files and pages
// through the contact list.
package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"leadboard/domain"
)

var ErrMissingColumn = errors.New("missing required column")

// Preview is the result of parsing an import file: the rows that will be
// sent and how many were dropped for lacking a required field.
type Preview struct {
	Contacts []domain.CreateContactData
	Skipped  int
}

type field int

const (
	fieldFullName field = iota
	fieldEmail
	fieldPhone
	fieldCity
	fieldCompany
	fieldJobTitle
	fieldSource
	fieldStatus
	fieldNotes
	fieldTags
)

// headerFields maps a normalised header (lowercase, no spaces, dashes or
// underscores) to a contact field.
var headerFields = map[string]field{
	"fullname":    fieldFullName,
	"name":        fieldFullName,
	"email":       fieldEmail,
	"phonenumber": fieldPhone,
	"phone":       fieldPhone,
	"city":        fieldCity,
	"company":     fieldCompany,
	"jobtitle":    fieldJobTitle,
	"source":      fieldSource,
	"status":      fieldStatus,
	"notes":       fieldNotes,
	"tags":        fieldTags,
}

var requiredFields = []struct {
	f    field
	name string
}{
	{fieldFullName, "Full Name"},
	{fieldEmail, "Email"},
	{fieldPhone, "Phone Number"},
}

var exportHeader = []string{"Full Name", "Email", "Phone Number", "City", "Company", "Job Title", "Source", "Status", "Notes", "Tags"}

func normaliseHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(h)))
}

// ParseCSV reads a contact CSV with a header row. Header names are matched
// case-insensitively; Full Name, Email and Phone Number are required. Rows
// missing any required value are dropped and counted in Skipped.
func ParseCSV(r io.Reader) (Preview, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Preview{}, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return Preview{}, err
	}

	cols := map[field]int{}
	for i, h := range header {
		if f, ok := headerFields[normaliseHeader(h)]; ok {
			if _, dup := cols[f]; !dup {
				cols[f] = i
			}
		}
	}
	for _, req := range requiredFields {
		if _, ok := cols[req.f]; !ok {
			return Preview{}, fmt.Errorf("%w: %s", ErrMissingColumn, req.name)
		}
	}

	p := Preview{Contacts: []domain.CreateContactData{}}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Preview{}, err
		}
		if blankRecord(rec) {
			continue
		}
		get := func(f field) string {
			i, ok := cols[f]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		d := domain.CreateContactData{
			FullName:    get(fieldFullName),
			Email:       get(fieldEmail),
			PhoneNumber: get(fieldPhone),
			City:        get(fieldCity),
			Company:     get(fieldCompany),
			JobTitle:    get(fieldJobTitle),
			Source:      get(fieldSource),
			Status:      get(fieldStatus),
			Notes:       get(fieldNotes),
			Tags:        splitTags(get(fieldTags)),
		}
		if !d.HasRequired() {
			p.Skipped++
			continue
		}
		p.Contacts = append(p.Contacts, d)
	}
	return p, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// WriteCSV writes contacts with the same header ParseCSV reads. Tags are
// joined with ";".
func WriteCSV(w io.Writer, contacts []domain.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range contacts {
		row := []string{
			c.FullName,
			c.Email,
			c.PhoneNumber,
			c.City,
			c.Company,
			c.JobTitle,
			c.Source,
			c.Status,
			c.Notes,
			strings.Join(c.Tags, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
