package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

type User struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     *Role  `json:"role,omitempty"`
	IsActive bool   `json:"isActive"`
}

type Role struct {
	ID          string       `json:"_id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// Permission grants actions on one resource. "*" matches anything.
type Permission struct {
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// Policy answers capability questions for one session. It is computed once
// from the signed-in user and passed to whatever needs it.
type Policy struct {
	admin  bool
	grants map[string]map[string]struct{}
}

func NewPolicy(u *User) Policy {
	p := Policy{grants: map[string]map[string]struct{}{}}
	if u == nil || u.Role == nil {
		return p
	}
	if strings.EqualFold(u.Role.Name, "admin") {
		p.admin = true
		return p
	}
	for _, perm := range u.Role.Permissions {
		res := strings.ToLower(perm.Resource)
		set, ok := p.grants[res]
		if !ok {
			set = map[string]struct{}{}
			p.grants[res] = set
		}
		for _, a := range perm.Actions {
			set[strings.ToLower(a)] = struct{}{}
		}
	}
	return p
}

func (p Policy) Can(resource, action string) bool {
	if p.admin {
		return true
	}
	resource = strings.ToLower(resource)
	action = strings.ToLower(action)
	for _, res := range []string{resource, "*"} {
		set, ok := p.grants[res]
		if !ok {
			continue
		}
		if _, ok := set[action]; ok {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
	}
	return false
}

// Require is Can with an error suitable for returning from a command.
func (p Policy) Require(resource, action string) error {
	if p.Can(resource, action) {
		return nil
	}
	return fmt.Errorf("%w: %s:%s", ErrForbidden, resource, action)
}
