package client

import (
	"context"
	"net/http"
	"net/url"

	"leadboard/domain"
)

// ContactQuery is encoded as page=N&limit=M plus any active filters.
type ContactQuery struct {
	Page   int    `url:"page,omitempty"`
	Limit  int    `url:"limit,omitempty"`
	Search string `url:"search,omitempty"`
	Status string `url:"status,omitempty"`
	Source string `url:"source,omitempty"`
}

// ContactPage carries the server's data and pagination exactly as served.
type ContactPage struct {
	Data       []domain.Contact
	Pagination *domain.Pagination
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

func contactPath(id string) string { return "/contacts/" + url.PathEscape(id) }

func (c *Client) ListContacts(ctx context.Context, q ContactQuery) (ContactPage, error) {
	var contacts []domain.Contact
	pg, err := c.call(ctx, request{method: http.MethodGet, route: "/contacts", path: "/contacts", query: q}, &contacts)
	if err != nil {
		return ContactPage{}, err
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return ContactPage{Data: contacts, Pagination: pg}, nil
}

func (c *Client) GetContact(ctx context.Context, id string) (domain.Contact, error) {
	if id == "" {
		return domain.Contact{}, ErrMissingID
	}
	var ct domain.Contact
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/contacts/:id", path: contactPath(id)}, &ct)
	return ct, err
}

func (c *Client) CreateContact(ctx context.Context, in domain.CreateContactData) (domain.Contact, error) {
	var ct domain.Contact
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/contacts", path: "/contacts", body: in}, &ct)
	return ct, err
}

func (c *Client) UpdateContact(ctx context.Context, id string, in domain.CreateContactData) (domain.Contact, error) {
	if id == "" {
		return domain.Contact{}, ErrMissingID
	}
	var ct domain.Contact
	_, err := c.call(ctx, request{method: http.MethodPut, route: "/contacts/:id", path: contactPath(id), body: in}, &ct)
	return ct, err
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	_, err := c.call(ctx, request{method: http.MethodDelete, route: "/contacts/:id", path: contactPath(id)}, nil)
	return err
}

func (c *Client) ImportContacts(ctx context.Context, contacts []domain.CreateContactData) (ImportResult, error) {
	var res ImportResult
	body := map[string][]domain.CreateContactData{"contacts": contacts}
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/contacts/import", path: "/contacts/import", body: body}, &res)
	return res, err
}

// ExportContacts returns the raw export file ("csv" or "json").
func (c *Client) ExportContacts(ctx context.Context, format string) ([]byte, error) {
	q := struct {
		Format string `url:"format,omitempty"`
	}{format}
	return c.callRaw(ctx, request{method: http.MethodGet, route: "/contacts/export", path: "/contacts/export", query: q})
}
