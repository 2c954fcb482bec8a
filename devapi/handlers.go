package devapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

// Deps are the collaborators the handlers need. Nil stores, outbox and
// workspace fall back to in-memory implementations.
type Deps struct {
	Tasks     TaskStore
	Contacts  ContactStore
	Auth      Authenticator
	Outbox    Outbox
	Directory *Directory
	Workspace *Workspace
	Logger    *log.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Tasks == nil || d.Contacts == nil {
		mem := NewMemoryStore()
		if d.Tasks == nil {
			d.Tasks = mem
		}
		if d.Contacts == nil {
			d.Contacts = mem
		}
	}
	if d.Outbox == nil {
		d.Outbox = &MemoryOutbox{}
	}
	if d.Directory == nil {
		d.Directory = NewDirectory()
	}
	if d.Workspace == nil {
		d.Workspace = NewWorkspace()
	}
	if d.Logger == nil {
		d.Logger = log.StandardLogger()
	}
	return d
}

// NewRouter returns an Echo instance with middleware and every route
// registered.
func NewRouter(d Deps) *echo.Echo {
	d = d.withDefaults()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(RequestMetrics(d.Logger))
	e.Use(middleware.Recover())
	e.Use(DecompressRequest())
	Register(e, d)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	d = d.withDefaults()
	e.GET("/healthz", healthz(d))

	g := e.Group("/api", RequireAuth(d.Auth))

	g.GET("/auth/me", getMe(d))
	g.GET("/users", listUsers(d))
	g.GET("/roles", listRoles(d))
	g.GET("/roles/permissions", listPermissions(d))

	g.GET("/tasks", listTasks(d))
	g.POST("/tasks", createTask(d))
	g.GET("/tasks/stats", taskStats(d))
	g.PATCH("/tasks/bulk", bulkUpdateTasks(d))
	g.POST("/tasks/templates/:template", createFromTemplate(d))
	g.GET("/tasks/:id", getTask(d))
	g.PUT("/tasks/:id", updateTask(d))
	g.DELETE("/tasks/:id", deleteTask(d))
	g.PATCH("/tasks/:id/status", patchStatus(d))
	g.PATCH("/tasks/:id/priority", patchPriority(d))
	g.PATCH("/tasks/:id/assign", patchAssign(d))
	g.PATCH("/tasks/:id/move", patchMove(d))
	g.POST("/tasks/:id/comments", addComment(d))
	g.POST("/tasks/:id/checklist", addChecklistItem(d))
	g.PATCH("/tasks/:id/checklist/:index/complete", completeChecklistItem(d))

	g.GET("/contacts", listContacts(d))
	g.POST("/contacts", createContact(d))
	g.POST("/contacts/import", importContacts(d))
	g.GET("/contacts/export", exportContacts(d))
	g.GET("/contacts/:id", getContact(d))
	g.PUT("/contacts/:id", updateContact(d))
	g.DELETE("/contacts/:id", deleteContact(d))

	g.GET("/meetings", listMeetings(d))
	g.POST("/meetings", createMeeting(d))
	g.DELETE("/meetings/:id", deleteMeeting(d))
	g.GET("/google-calendar/auth-url", calendarAuthURL(d))
	g.GET("/google-calendar/callback", calendarCallback(d))
	g.GET("/google-calendar/status", calendarStatus(d))
	g.POST("/google-calendar/disconnect", calendarDisconnect(d))

	g.POST("/sms/send", sendSMS(d))
	g.GET("/sms/conversation/:type/:id", smsConversation(d))
	g.POST("/emails/send", sendEmail(d))
	g.GET("/emails/inbox", emailInbox(d))
	g.POST("/emails/sync", syncInbox(d))

	g.GET("/company", getCompany(d))
	g.POST("/company/logo", uploadLogo(d))
	g.GET("/company/logo", getLogo(d))
}

func healthz(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := d.Tasks.ListTasks(c.Request().Context()); err != nil {
			d.Logger.WithError(err).Warn("healthz: task store unavailable")
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	}
}

// errorHandler renders errors that escape handlers (unknown routes, bad
// methods, panics) in the response envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	_ = fail(c, status, msg)
}

// storeFailed maps a store error to a response, logging anything that is not
// a plain miss.
func storeFailed(c echo.Context, d Deps, err error, notFound string) error {
	if errors.Is(err, ErrNotFound) {
		return fail(c, http.StatusNotFound, notFound)
	}
	metricsFrom(c).SetErrorStage("store")
	d.Logger.WithError(err).WithField("route", c.Path()).Error("store failure")
	return fail(c, http.StatusInternalServerError, err.Error())
}

func timed(c echo.Context, fn func() error) error {
	start := time.Now()
	err := fn()
	metricsFrom(c).ObserveStore(time.Since(start))
	return err
}
