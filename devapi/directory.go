package devapi

import (
	"net/http"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"

	"leadboard/domain"
)

// Seeded user ids. Tokens minted for these subjects resolve to populated
// users with the matching role.
const (
	AdminUserID  = "u-admin"
	AgentUserID  = "u-agent"
	ViewerUserID = "u-viewer"
)

var (
	roleAdmin = domain.Role{
		ID:          "r-admin",
		Name:        "Admin",
		Permissions: []domain.Permission{{Resource: "*", Actions: []string{"*"}}},
	}
	roleAgent = domain.Role{
		ID:   "r-agent",
		Name: "Sales Agent",
		Permissions: []domain.Permission{
			{Resource: "tasks", Actions: []string{"read", "create", "update", "delete"}},
			{Resource: "contacts", Actions: []string{"read", "create", "update", "import", "export"}},
			{Resource: "leads", Actions: []string{"create"}},
			{Resource: "meetings", Actions: []string{"read", "create", "delete"}},
			{Resource: "sms", Actions: []string{"send", "read"}},
			{Resource: "emails", Actions: []string{"send", "read"}},
		},
	}
	roleViewer = domain.Role{
		ID:   "r-viewer",
		Name: "Viewer",
		Permissions: []domain.Permission{
			{Resource: "tasks", Actions: []string{"read"}},
			{Resource: "contacts", Actions: []string{"read"}},
		},
	}
	// roleMember is given to token subjects the directory has never seen.
	roleMember = domain.Role{
		ID:          "r-member",
		Name:        "Member",
		Permissions: []domain.Permission{{Resource: "*", Actions: []string{"read"}}},
	}
)

// Directory is the dev API's user and role registry.
type Directory struct {
	mu    sync.RWMutex
	users map[string]domain.User
	roles []domain.Role
}

// NewDirectory returns a directory seeded with an admin, an agent and a
// viewer.
func NewDirectory() *Directory {
	d := &Directory{
		users: map[string]domain.User{},
		roles: []domain.Role{roleAdmin, roleAgent, roleViewer, roleMember},
	}
	d.Add(domain.User{ID: AdminUserID, Name: "Ada Admin", Email: "admin@example.com", Role: &roleAdmin, IsActive: true})
	d.Add(domain.User{ID: AgentUserID, Name: "Sam Agent", Email: "agent@example.com", Role: &roleAgent, IsActive: true})
	d.Add(domain.User{ID: ViewerUserID, Name: "Val Viewer", Email: "viewer@example.com", Role: &roleViewer, IsActive: true})
	return d
}

func (d *Directory) Add(u domain.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// User returns the user for id, or an active member when id is unknown.
func (d *Directory) User(id string) domain.User {
	d.mu.RLock()
	u, found := d.users[id]
	d.mu.RUnlock()
	if found {
		return u
	}
	role := roleMember
	return domain.User{ID: id, Name: id, Role: &role, IsActive: true}
}

// Ref returns a populated reference for known users and a bare id otherwise.
// An empty id yields nil.
func (d *Directory) Ref(id string) *domain.UserRef {
	if id == "" {
		return nil
	}
	d.mu.RLock()
	u, found := d.users[id]
	d.mu.RUnlock()
	if !found {
		return &domain.UserRef{ID: id}
	}
	return &domain.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (d *Directory) Users() []domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *Directory) Roles() []domain.Role {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.Role(nil), d.roles...)
}

// Permissions lists every resource with the union of actions any role
// grants on it.
func (d *Directory) Permissions() []domain.Permission {
	actions := map[string]map[string]struct{}{}
	var order []string
	for _, r := range d.Roles() {
		for _, p := range r.Permissions {
			set, found := actions[p.Resource]
			if !found {
				set = map[string]struct{}{}
				actions[p.Resource] = set
				order = append(order, p.Resource)
			}
			for _, a := range p.Actions {
				set[a] = struct{}{}
			}
		}
	}
	out := make([]domain.Permission, 0, len(order))
	for _, res := range order {
		p := domain.Permission{Resource: res}
		for a := range actions[res] {
			p.Actions = append(p.Actions, a)
		}
		sort.Strings(p.Actions)
		out = append(out, p)
	}
	return out
}

func getMe(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ok(c, http.StatusOK, d.Directory.User(currentUser(c)))
	}
}

func listUsers(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ok(c, http.StatusOK, d.Directory.Users())
	}
}

func listRoles(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ok(c, http.StatusOK, d.Directory.Roles())
	}
}

func listPermissions(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return ok(c, http.StatusOK, d.Directory.Permissions())
	}
}
