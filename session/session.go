// Package session keeps the signed-in user's token and preferences. A Session
// is created explicitly and passed to whatever needs it; nothing here is
// package-level state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"leadboard/domain"
)

var ErrInvalidTheme = errors.New("theme must be light or dark")

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type State struct {
	Token   string          `json:"token,omitempty"`
	Theme   string          `json:"theme,omitempty"`
	Company *domain.Company `json:"company,omitempty"`
	User    *domain.User    `json:"user,omitempty"`
}

func (s State) clone() State {
	if s.Company != nil {
		c := *s.Company
		s.Company = &c
	}
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Store persists State between runs.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Clear(ctx context.Context) error
}

// Session is safe for concurrent use.
type Session struct {
	store Store

	mu     sync.RWMutex
	state  State
	policy domain.Policy
}

// Open loads the persisted state. A store with nothing saved yields an empty
// signed-out session.
func Open(ctx context.Context, store Store) (*Session, error) {
	st, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if st.Theme == "" {
		st.Theme = ThemeLight
	}
	return &Session{store: store, state: st, policy: domain.NewPolicy(st.User)}, nil
}

// Token implements client.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Policy is the capability set of the signed-in user; empty when signed out.
func (s *Session) Policy() domain.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

func (s *Session) Login(ctx context.Context, token string, user *domain.User) error {
	if token == "" {
		return errors.New("token is required")
	}
	return s.update(ctx, func(st *State) {
		st.Token = token
		st.User = user
	})
}

func (s *Session) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	return s.update(ctx, func(st *State) { st.Theme = theme })
}

func (s *Session) SetCompany(ctx context.Context, c domain.Company) error {
	return s.update(ctx, func(st *State) { st.Company = &c })
}

// Logout forgets the token, user and company. A dark theme stays saved so the
// next Open starts on it.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	kept := State{Theme: s.state.Theme}
	if kept.Theme != ThemeLight {
		if err := s.store.Save(ctx, kept); err != nil {
			return fmt.Errorf("save theme: %w", err)
		}
	}
	s.state = kept
	s.policy = domain.NewPolicy(nil)
	return nil
}

// update applies fn to a copy and commits it only once the store accepted it.
func (s *Session) update(ctx context.Context, fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	fn(&next)
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.state = next
	s.policy = domain.NewPolicy(next.User)
	return nil
}
