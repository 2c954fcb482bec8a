package contacts

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/bytedance/sonic"

	"leadboard/domain"
)

var ErrUnsupportedJSON = errors.New("expected an array of contacts or an object with a data array")

// ParseJSON reads an array of contacts (full records or create payloads) or
// an export envelope carrying them under "data". Server ids and timestamps
// are ignored. The same required-field rule as ParseCSV applies.
func ParseJSON(r io.Reader) (Preview, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Preview{}, err
	}
	raw = bytes.TrimSpace(raw)
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))

	var rows []domain.CreateContactData
	switch {
	case len(raw) == 0:
		return Preview{}, ErrUnsupportedJSON
	case raw[0] == '[':
		if err := sonic.Unmarshal(raw, &rows); err != nil {
			return Preview{}, err
		}
	case raw[0] == '{':
		var env struct {
			Data []domain.CreateContactData `json:"data"`
		}
		if err := sonic.Unmarshal(raw, &env); err != nil {
			return Preview{}, err
		}
		if env.Data == nil {
			return Preview{}, ErrUnsupportedJSON
		}
		rows = env.Data
	default:
		return Preview{}, ErrUnsupportedJSON
	}

	p := Preview{Contacts: make([]domain.CreateContactData, 0, len(rows))}
	for _, d := range rows {
		d = trimmed(d)
		if !d.HasRequired() {
			p.Skipped++
			continue
		}
		p.Contacts = append(p.Contacts, d)
	}
	return p, nil
}

func trimmed(d domain.CreateContactData) domain.CreateContactData {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Email = strings.TrimSpace(d.Email)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.City = strings.TrimSpace(d.City)
	d.Company = strings.TrimSpace(d.Company)
	d.JobTitle = strings.TrimSpace(d.JobTitle)
	d.Source = strings.TrimSpace(d.Source)
	d.Status = strings.TrimSpace(d.Status)
	d.Notes = strings.TrimSpace(d.Notes)
	var tags []string
	for _, t := range d.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	d.Tags = tags
	return d
}

// WriteJSON writes the contacts as an indented JSON array of full records.
func WriteJSON(w io.Writer, contacts []domain.Contact) error {
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(contacts)
}
