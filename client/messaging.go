package client

import (
	"context"
	"net/http"
	"net/url"

	"leadboard/domain"
)

type SMSInput struct {
	To          string `json:"to"`
	Body        string `json:"body"`
	RelatedType string `json:"relatedType,omitempty"`
	RelatedID   string `json:"relatedId,omitempty"`
}

func (c *Client) SendSMS(ctx context.Context, in SMSInput) (domain.SMSMessage, error) {
	var m domain.SMSMessage
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/sms/send", path: "/sms/send", body: in}, &m)
	return m, err
}

// Conversation returns the SMS thread for a related record, e.g. ("contact", id).
func (c *Client) Conversation(ctx context.Context, relatedType, id string) ([]domain.SMSMessage, error) {
	if relatedType == "" || id == "" {
		return nil, ErrMissingID
	}
	var msgs []domain.SMSMessage
	path := "/sms/conversation/" + url.PathEscape(relatedType) + "/" + url.PathEscape(id)
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/sms/conversation/:type/:id", path: path}, &msgs)
	return msgs, err
}

type EmailInput struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ThreadID string `json:"threadId,omitempty"`
}

func (c *Client) SendEmail(ctx context.Context, in EmailInput) (domain.Email, error) {
	var m domain.Email
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/emails/send", path: "/emails/send", body: in}, &m)
	return m, err
}

func (c *Client) Inbox(ctx context.Context) ([]domain.Email, error) {
	var msgs []domain.Email
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/emails/inbox", path: "/emails/inbox"}, &msgs)
	return msgs, err
}

// SyncInbox asks the backend to pull new Gmail messages.
func (c *Client) SyncInbox(ctx context.Context) (int, error) {
	var out struct {
		Synced int `json:"synced"`
	}
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/emails/sync", path: "/emails/sync"}, &out)
	return out.Synced, err
}
