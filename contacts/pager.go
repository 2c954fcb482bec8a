package contacts

import (
	"context"
	"fmt"

	"leadboard/client"
	"leadboard/domain"
)

const DefaultPageSize = 10

// Lister is the part of the API client the pager needs.
type Lister interface {
	ListContacts(ctx context.Context, q client.ContactQuery) (client.ContactPage, error)
}

// Pager walks the contact list one page at a time. Page counts come from the
// server's pagination and are never recomputed locally.
type Pager struct {
	api    Lister
	query  client.ContactQuery
	page   client.ContactPage
	loaded bool
}

func NewPager(api Lister, q client.ContactQuery) *Pager {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	return &Pager{api: api, query: q}
}

// Fetch loads the current page.
func (p *Pager) Fetch(ctx context.Context) ([]domain.Contact, error) {
	page, err := p.api.ListContacts(ctx, p.query)
	if err != nil {
		return nil, err
	}
	p.page = page
	p.loaded = true
	return page.Data, nil
}

// Next advances to the following page and loads it. It returns false without
// a request when the current page is the last one.
func (p *Pager) Next(ctx context.Context) ([]domain.Contact, bool, error) {
	if !p.HasNext() {
		return nil, false, nil
	}
	p.query.Page++
	data, err := p.Fetch(ctx)
	if err != nil {
		p.query.Page--
		return nil, false, err
	}
	return data, true, nil
}

// Prev moves back one page and loads it.
func (p *Pager) Prev(ctx context.Context) ([]domain.Contact, bool, error) {
	if p.query.Page <= 1 {
		return nil, false, nil
	}
	p.query.Page--
	data, err := p.Fetch(ctx)
	if err != nil {
		p.query.Page++
		return nil, false, err
	}
	return data, true, nil
}

func (p *Pager) HasNext() bool {
	if !p.loaded || p.page.Pagination == nil {
		return false
	}
	return p.query.Page < p.page.Pagination.Pages
}

func (p *Pager) Page() int { return p.query.Page }

// Pagination returns what the server reported for the last fetch.
func (p *Pager) Pagination() *domain.Pagination { return p.page.Pagination }

// Label renders "Page N of M (T contacts)" from the server's counts.
func (p *Pager) Label() string {
	pg := p.page.Pagination
	if pg == nil {
		return fmt.Sprintf("Page %d", p.query.Page)
	}
	return fmt.Sprintf("Page %d of %d (%d contacts)", pg.Page, pg.Pages, pg.Total)
}
