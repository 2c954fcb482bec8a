package devapi

import (
	"context"
	"sync"

	"leadboard/domain"
)

// collection keeps records in insertion order keyed by id.
type collection[T any] struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]T
	clone func(T) T
}

func newCollection[T any](clone func(T) T) *collection[T] {
	return &collection[T]{byID: map[string]T{}, clone: clone}
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.clone(c.byID[id]))
	}
	return out
}

func (c *collection[T]) get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byID[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return c.clone(v), nil
}

func (c *collection[T]) save(id string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		c.order = append(c.order, id)
	}
	c.byID[id] = c.clone(v)
}

func (c *collection[T]) remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return ErrNotFound
	}
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryStore keeps tasks and contacts in process memory. It is the default
// backend of the dev API and of contract tests.
type MemoryStore struct {
	tasks    *collection[domain.Task]
	contacts *collection[domain.Contact]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    newCollection(domain.Task.Clone),
		contacts: newCollection(cloneContact),
	}
}

func cloneContact(c domain.Contact) domain.Contact {
	if c.Tags != nil {
		c.Tags = append([]string(nil), c.Tags...)
	}
	return c
}

func (s *MemoryStore) ListTasks(context.Context) ([]domain.Task, error) {
	return s.tasks.list(), nil
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (domain.Task, error) {
	return s.tasks.get(id)
}

func (s *MemoryStore) SaveTask(_ context.Context, t domain.Task) error {
	s.tasks.save(t.ID, t)
	return nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	return s.tasks.remove(id)
}

func (s *MemoryStore) ListContacts(context.Context) ([]domain.Contact, error) {
	return s.contacts.list(), nil
}

func (s *MemoryStore) GetContact(_ context.Context, id string) (domain.Contact, error) {
	return s.contacts.get(id)
}

func (s *MemoryStore) SaveContact(_ context.Context, c domain.Contact) error {
	s.contacts.save(c.ID, c)
	return nil
}

func (s *MemoryStore) DeleteContact(_ context.Context, id string) error {
	return s.contacts.remove(id)
}
