package client

import (
	"context"
	"net/http"

	"leadboard/domain"
)

// Me returns the signed-in user with their role and permissions.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/auth/me", path: "/auth/me"}, &u)
	return u, err
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/users", path: "/users"}, &users)
	return users, err
}

func (c *Client) ListRoles(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/roles", path: "/roles"}, &roles)
	return roles, err
}

// ListPermissions returns every permission the backend knows about.
func (c *Client) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	var perms []domain.Permission
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/roles/permissions", path: "/roles/permissions"}, &perms)
	return perms, err
}
