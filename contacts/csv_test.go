package contacts

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"leadboard/domain"
)

func TestParseCSVRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		want    int
		skipped int
	}{
		{"complete row", "Ada Lovelace,ada@example.com,+15550100,London", 1, 0},
		{"missing name", ",ada@example.com,+15550100,London", 0, 1},
		{"missing email", "Ada Lovelace,,+15550100,London", 0, 1},
		{"missing phone", "Ada Lovelace,ada@example.com,,London", 0, 1},
		{"whitespace only phone", "Ada Lovelace,ada@example.com,   ,London", 0, 1},
		{"missing optional city", "Ada Lovelace,ada@example.com,+15550100,", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "Full Name,Email,Phone Number,City\n" + tt.row + "\n"
			p, err := ParseCSV(strings.NewReader(in))
			if err != nil {
				t.Fatalf("ParseCSV: %v", err)
			}
			if len(p.Contacts) != tt.want || p.Skipped != tt.skipped {
				t.Fatalf("expected %d contacts / %d skipped, got %d / %d", tt.want, tt.skipped, len(p.Contacts), p.Skipped)
			}
		})
	}
}

func TestParseCSVMapsHeadersLoosely(t *testing.T) {
	in := "\ufeffemail, full_name ,PHONE-NUMBER,Job Title,Tags,Unknown\n" +
		"bo@example.com,Bo Diddley,555-0101,Buyer,vip; warm ;,x\n" +
		"\n"
	p, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	want := []domain.CreateContactData{{
		FullName:    "Bo Diddley",
		Email:       "bo@example.com",
		PhoneNumber: "555-0101",
		JobTitle:    "Buyer",
		Tags:        []string{"vip", "warm"},
	}}
	if !reflect.DeepEqual(p.Contacts, want) {
		t.Fatalf("unexpected contacts: %+v", p.Contacts)
	}
	if p.Skipped != 0 {
		t.Fatalf("blank lines should not count as skipped, got %d", p.Skipped)
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Full Name,Email,City\nAda,ada@example.com,London\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "Phone Number") {
		t.Fatalf("error should name the column: %v", err)
	}
	if _, err := ParseCSV(strings.NewReader("")); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("empty file: expected ErrMissingColumn, got %v", err)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in := []domain.Contact{
		{ID: "c1", FullName: "Ada, Countess", Email: "ada@example.com", PhoneNumber: "+1", City: "London", Tags: []string{"a", "b"}},
		{ID: "c2", FullName: "Bo", Email: "bo@example.com", PhoneNumber: "+2", Notes: "line one\nline two"},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Full Name,Email,Phone Number,") {
		t.Fatalf("unexpected header: %q", buf.String())
	}
	p, err := ParseCSV(&buf)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	want := []domain.CreateContactData{in[0].CreateData(), in[1].CreateData()}
	if !reflect.DeepEqual(p.Contacts, want) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, p.Contacts)
	}
}
