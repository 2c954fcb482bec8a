// Package devapi is a local stand-in for the CRM backend. It speaks the same
// REST contract as the production API (envelope, routes, error messages) so
// the client, board and CLI can be exercised without the real service.
package devapi

import (
	"context"
	"errors"

	"leadboard/domain"
)

const maxBodySize = 1 << 20 // 1 MiB

var ErrNotFound = errors.New("not found")

// TaskStore persists tasks. ListTasks returns tasks in insertion order.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	SaveTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// ContactStore persists contacts in insertion order.
type ContactStore interface {
	ListContacts(ctx context.Context) ([]domain.Contact, error)
	GetContact(ctx context.Context, id string) (domain.Contact, error)
	SaveContact(ctx context.Context, c domain.Contact) error
	DeleteContact(ctx context.Context, id string) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Outbox hands outgoing SMS and email to whatever delivers them.
type Outbox interface {
	Enqueue(ctx context.Context, msg OutboundMessage) error
}

// OutboundMessage is one SMS or email waiting for delivery.
type OutboundMessage struct {
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Data       any                `json:"data,omitempty"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}
