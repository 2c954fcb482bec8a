package devapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"leadboard/contacts"
	"leadboard/domain"
)

const (
	defaultContactLimit = 10
	maxContactLimit     = 100
	contactNotFound     = "Contact not found"
)

func listContacts(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var all []domain.Contact
		err := timed(c, func() (err error) {
			all, err = d.Contacts.ListContacts(c.Request().Context())
			return err
		})
		if err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}

		search := strings.ToLower(strings.TrimSpace(c.QueryParam("search")))
		status := c.QueryParam("status")
		source := c.QueryParam("source")
		matched := make([]domain.Contact, 0, len(all))
		for _, ct := range all {
			if status != "" && ct.Status != status {
				continue
			}
			if source != "" && ct.Source != source {
				continue
			}
			if search != "" && !contactMatches(ct, search) {
				continue
			}
			matched = append(matched, ct)
		}

		page, limit := pageParams(c, defaultContactLimit, maxContactLimit)
		out, pg := paginate(matched, page, limit)
		metricsFrom(c).SetRecordsReturned(len(out))
		return okPage(c, out, pg)
	}
}

func contactMatches(ct domain.Contact, q string) bool {
	for _, v := range []string{ct.FullName, ct.Email, ct.PhoneNumber, ct.Company} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func getContact(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ct, err := d.Contacts.GetContact(c.Request().Context(), c.Param("id"))
		if err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}
		return ok(c, http.StatusOK, ct)
	}
}

func normaliseContact(in domain.CreateContactData) domain.CreateContactData {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if in.Status == "" {
		in.Status = "new"
	}
	return in
}

// emailTaken reports whether another contact already uses email.
func emailTaken(all []domain.Contact, email, exceptID string) bool {
	for _, ct := range all {
		if ct.ID != exceptID && strings.EqualFold(ct.Email, email) {
			return true
		}
	}
	return false
}

func contactFrom(in domain.CreateContactData) domain.Contact {
	ts := now()
	return domain.Contact{
		ID:          uuid.NewString(),
		FullName:    in.FullName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		City:        in.City,
		Company:     in.Company,
		JobTitle:    in.JobTitle,
		Source:      in.Source,
		Status:      in.Status,
		Notes:       in.Notes,
		Tags:        in.Tags,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func createContact(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var in domain.CreateContactData
		if err := decodeBody(c, &in); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		in = normaliseContact(in)
		if !in.HasRequired() {
			return fail(c, http.StatusBadRequest, "Please provide fullName, email and phoneNumber")
		}
		all, err := d.Contacts.ListContacts(ctx)
		if err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}
		if emailTaken(all, in.Email, "") {
			return fail(c, http.StatusBadRequest, "Contact with this email already exists")
		}
		ct := contactFrom(in)
		if err := timed(c, func() error { return d.Contacts.SaveContact(ctx, ct) }); err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}
		return ok(c, http.StatusCreated, ct)
	}
}

func updateContact(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		ct, err := d.Contacts.GetContact(ctx, c.Param("id"))
		if err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}
		var in domain.CreateContactData
		if err := decodeBody(c, &in); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if in.Email != "" {
			all, err := d.Contacts.ListContacts(ctx)
			if err != nil {
				return storeFailed(c, d, err, contactNotFound)
			}
			if emailTaken(all, in.Email, ct.ID) {
				return fail(c, http.StatusBadRequest, "Contact with this email already exists")
			}
		}
		mergeContact(&ct, in)
		ct.UpdatedAt = now()
		if err := timed(c, func() error { return d.Contacts.SaveContact(ctx, ct) }); err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}
		return ok(c, http.StatusOK, ct)
	}
}

// mergeContact overwrites the fields present (non-empty) in in.
func mergeContact(ct *domain.Contact, in domain.CreateContactData) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&ct.FullName, in.FullName)
	set(&ct.Email, strings.ToLower(in.Email))
	set(&ct.PhoneNumber, in.PhoneNumber)
	set(&ct.City, in.City)
	set(&ct.Company, in.Company)
	set(&ct.JobTitle, in.JobTitle)
	set(&ct.Source, in.Source)
	set(&ct.Status, in.Status)
	set(&ct.Notes, in.Notes)
	if in.Tags != nil {
		ct.Tags = append([]string(nil), in.Tags...)
	}
}

func deleteContact(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := timed(c, func() error { return d.Contacts.DeleteContact(ctx, c.Param("id")) }); err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}
		return c.JSON(http.StatusOK, envelope{Success: true, Message: "Contact deleted successfully"})
	}
}

type importResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

func importContacts(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var body struct {
			Contacts []domain.CreateContactData `json:"contacts"`
		}
		if err := decodeBody(c, &body); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if len(body.Contacts) == 0 {
			return fail(c, http.StatusBadRequest, "No contacts provided")
		}
		all, err := d.Contacts.ListContacts(ctx)
		if err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}

		var res importResult
		for i, in := range body.Contacts {
			in = normaliseContact(in)
			switch {
			case !in.HasRequired():
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: missing required fields", i+1))
				continue
			case emailTaken(all, in.Email, ""):
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: duplicate email %s", i+1, in.Email))
				continue
			}
			ct := contactFrom(in)
			if err := d.Contacts.SaveContact(ctx, ct); err != nil {
				return storeFailed(c, d, err, contactNotFound)
			}
			all = append(all, ct)
			res.Imported++
		}
		return ok(c, http.StatusOK, res)
	}
}

func exportContacts(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		all, err := d.Contacts.ListContacts(c.Request().Context())
		if err != nil {
			return storeFailed(c, d, err, contactNotFound)
		}
		var buf bytes.Buffer
		format := c.QueryParam("format")
		switch format {
		case "", "csv":
			format = "csv"
			err = contacts.WriteCSV(&buf, all)
		case "json":
			err = contacts.WriteJSON(&buf, all)
		default:
			return fail(c, http.StatusBadRequest, "Unsupported export format")
		}
		if err != nil {
			return fail(c, http.StatusInternalServerError, err.Error())
		}
		ctype := "text/csv"
		if format == "json" {
			ctype = echo.MIMEApplicationJSON
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="contacts.`+format+`"`)
		return c.Blob(http.StatusOK, ctype, buf.Bytes())
	}
}
