package contacts

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"leadboard/domain"
)

func TestJSONExportReimport(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	exported := []domain.Contact{
		{ID: "c1", FullName: "Ada", Email: "ada@example.com", PhoneNumber: "+1", Company: "Engines", Status: "qualified", Tags: []string{"vip"}, CreatedAt: now, UpdatedAt: now},
		{ID: "c2", FullName: "Bo", Email: "bo@example.com", PhoneNumber: "+2", Source: "website", Notes: "met at expo", CreatedAt: now, UpdatedAt: now},
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, exported); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	p, err := ParseJSON(&buf)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	want := []domain.CreateContactData{exported[0].CreateData(), exported[1].CreateData()}
	if !reflect.DeepEqual(p.Contacts, want) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, p.Contacts)
	}
}

func TestParseJSONShapes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		skipped int
		err     error
	}{
		{"array", `[{"fullName":"Ada","email":"a@x.io","phoneNumber":"1"}]`, 1, 0, nil},
		{"envelope", `{"success":true,"data":[{"fullName":" Ada ","email":"a@x.io","phoneNumber":"1"},{"fullName":"","email":"b@x.io","phoneNumber":"2"}]}`, 1, 1, nil},
		{"object without data", `{"contacts":[]}`, 0, 0, ErrUnsupportedJSON},
		{"scalar", `42`, 0, 0, ErrUnsupportedJSON},
		{"empty", ``, 0, 0, ErrUnsupportedJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseJSON(strings.NewReader(tt.in))
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseJSON: %v", err)
			}
			if len(p.Contacts) != tt.want || p.Skipped != tt.skipped {
				t.Fatalf("expected %d/%d, got %d/%d", tt.want, tt.skipped, len(p.Contacts), p.Skipped)
			}
		})
	}
}

func TestParseJSONTrimsFields(t *testing.T) {
	p, err := ParseJSON(strings.NewReader(`[{"fullName":"  Ada ","email":" a@x.io","phoneNumber":"1 ","tags":[]}]`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	want := domain.CreateContactData{FullName: "Ada", Email: "a@x.io", PhoneNumber: "1"}
	if !reflect.DeepEqual(p.Contacts[0], want) {
		t.Fatalf("expected %+v, got %+v", want, p.Contacts[0])
	}
}

func TestJSONAndCSVImportAgree(t *testing.T) {
	fromJSON, err := ParseJSON(strings.NewReader(`[{"fullName":"Ada","email":"a@x.io","phoneNumber":"1","notes":"  call back  ","tags":[" vip ",""]}]`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	fromCSV, err := ParseCSV(strings.NewReader("fullName,email,phoneNumber,notes,tags\nAda,a@x.io,1,  call back  , vip ;\n"))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if !reflect.DeepEqual(fromJSON.Contacts, fromCSV.Contacts) {
		t.Fatalf("imports differ:\njson %+v\ncsv  %+v", fromJSON.Contacts, fromCSV.Contacts)
	}
	if got := fromJSON.Contacts[0].Notes; got != "call back" {
		t.Fatalf("notes not trimmed: %q", got)
	}
}

func TestWriteJSONNilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}
}
