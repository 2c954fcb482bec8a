package devapi

import (
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"leadboard/domain"
)

const (
	maxLogoSize    = 2 << 20 // 2 MiB
	maxSMSLength   = 1600
	meetingMissing = "Meeting not found"
)

var logoTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// Workspace holds the dev API's meetings, messages, calendar link and
// company profile.
type Workspace struct {
	mu        sync.Mutex
	meetings  []domain.Meeting
	sms       []domain.SMSMessage
	emails    []domain.Email
	calendars map[string]domain.CalendarStatus
	company   domain.Company
	logo      []byte
	logoType  string
}

func NewWorkspace() *Workspace {
	return &Workspace{
		calendars: map[string]domain.CalendarStatus{},
		company:   domain.Company{Name: "Leadboard Demo"},
	}
}

func listMeetings(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		out := append([]domain.Meeting{}, w.meetings...)
		w.mu.Unlock()
		return ok(c, http.StatusOK, out)
	}
}

func createMeeting(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			StartTime    string   `json:"startTime"`
			EndTime      string   `json:"endTime"`
			Attendees    []string `json:"attendees"`
			Location     string   `json:"location"`
			SyncCalendar bool     `json:"syncToGoogleCalendar"`
		}
		if err := decodeBody(c, &body); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(body.Title) == "" {
			return fail(c, http.StatusBadRequest, "Title is required")
		}
		start, err1 := time.Parse(time.RFC3339, body.StartTime)
		end, err2 := time.Parse(time.RFC3339, body.EndTime)
		if err1 != nil || err2 != nil {
			return fail(c, http.StatusBadRequest, "Start and end time must be RFC 3339 timestamps")
		}
		if !end.After(start) {
			return fail(c, http.StatusBadRequest, "End time must be after start time")
		}

		m := domain.Meeting{
			ID:          uuid.NewString(),
			Title:       body.Title,
			Description: body.Description,
			StartTime:   start.UTC(),
			EndTime:     end.UTC(),
			Attendees:   body.Attendees,
			Location:    body.Location,
		}
		w := d.Workspace
		w.mu.Lock()
		if body.SyncCalendar && w.calendars[currentUser(c)].Connected {
			m.GoogleEventID = "gcal-" + uuid.NewString()
		}
		w.meetings = append(w.meetings, m)
		w.mu.Unlock()
		return ok(c, http.StatusCreated, m)
	}
}

func deleteMeeting(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, m := range w.meetings {
			if m.ID == c.Param("id") {
				w.meetings = append(w.meetings[:i], w.meetings[i+1:]...)
				return c.JSON(http.StatusOK, envelope{Success: true, Message: "Meeting deleted successfully"})
			}
		}
		return fail(c, http.StatusNotFound, meetingMissing)
	}
}

func calendarAuthURL(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := url.Values{}
		q.Set("response_type", "code")
		q.Set("scope", "https://www.googleapis.com/auth/calendar")
		q.Set("access_type", "offline")
		q.Set("state", currentUser(c))
		u := "https://accounts.google.com/o/oauth2/v2/auth?" + q.Encode()
		return ok(c, http.StatusOK, map[string]string{"url": u})
	}
}

// calendarCallback completes the OAuth flow. The dev API accepts any code.
func calendarCallback(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.QueryParam("code") == "" {
			return fail(c, http.StatusBadRequest, "Authorization code is required")
		}
		user := d.Directory.User(currentUser(c))
		st := domain.CalendarStatus{Connected: true, Email: user.Email}
		w := d.Workspace
		w.mu.Lock()
		w.calendars[user.ID] = st
		w.mu.Unlock()
		return ok(c, http.StatusOK, st)
	}
}

func calendarStatus(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		st := w.calendars[currentUser(c)]
		w.mu.Unlock()
		return ok(c, http.StatusOK, st)
	}
}

func calendarDisconnect(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		delete(w.calendars, currentUser(c))
		w.mu.Unlock()
		return c.JSON(http.StatusOK, envelope{Success: true, Message: "Google Calendar disconnected"})
	}
}

func sendSMS(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body struct {
			To          string `json:"to"`
			Body        string `json:"body"`
			RelatedType string `json:"relatedType"`
			RelatedID   string `json:"relatedId"`
		}
		if err := decodeBody(c, &body); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(body.To) == "" || strings.TrimSpace(body.Body) == "" {
			return fail(c, http.StatusBadRequest, "Recipient and message body are required")
		}
		if len(body.Body) > maxSMSLength {
			return fail(c, http.StatusBadRequest, "Message body is too long")
		}
		msg := domain.SMSMessage{
			ID:          uuid.NewString(),
			To:          body.To,
			Body:        body.Body,
			Direction:   "outbound",
			Status:      "queued",
			RelatedType: body.RelatedType,
			RelatedID:   body.RelatedID,
			CreatedAt:   now(),
		}
		out := OutboundMessage{Kind: "sms", ID: msg.ID, UserID: currentUser(c), To: msg.To, Body: msg.Body}
		if err := d.Outbox.Enqueue(c.Request().Context(), out); err != nil {
			metricsFrom(c).SetErrorStage("outbox")
			d.Logger.WithError(err).Error("sms enqueue failed")
			return fail(c, http.StatusBadGateway, "Failed to send SMS")
		}
		w := d.Workspace
		w.mu.Lock()
		w.sms = append(w.sms, msg)
		w.mu.Unlock()
		return ok(c, http.StatusCreated, msg)
	}
}

func smsConversation(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		typ, id := c.Param("type"), c.Param("id")
		w := d.Workspace
		w.mu.Lock()
		out := []domain.SMSMessage{}
		for _, m := range w.sms {
			if m.RelatedType == typ && m.RelatedID == id {
				out = append(out, m)
			}
		}
		w.mu.Unlock()
		return ok(c, http.StatusOK, out)
	}
}

func sendEmail(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body struct {
			To       string `json:"to"`
			Subject  string `json:"subject"`
			Body     string `json:"body"`
			ThreadID string `json:"threadId"`
		}
		if err := decodeBody(c, &body); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if strings.TrimSpace(body.To) == "" || strings.TrimSpace(body.Subject) == "" {
			return fail(c, http.StatusBadRequest, "Recipient and subject are required")
		}
		em := domain.Email{
			ID:        uuid.NewString(),
			To:        body.To,
			Subject:   body.Subject,
			Body:      body.Body,
			ThreadID:  body.ThreadID,
			CreatedAt: now(),
		}
		if em.ThreadID == "" {
			em.ThreadID = em.ID
		}
		out := OutboundMessage{Kind: "email", ID: em.ID, UserID: currentUser(c), To: em.To, Subject: em.Subject, Body: em.Body}
		if err := d.Outbox.Enqueue(c.Request().Context(), out); err != nil {
			metricsFrom(c).SetErrorStage("outbox")
			d.Logger.WithError(err).Error("email enqueue failed")
			return fail(c, http.StatusBadGateway, "Failed to send email")
		}
		w := d.Workspace
		w.mu.Lock()
		w.emails = append(w.emails, em)
		w.mu.Unlock()
		return ok(c, http.StatusCreated, em)
	}
}

func emailInbox(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		out := append([]domain.Email{}, w.emails...)
		w.mu.Unlock()
		return ok(c, http.StatusOK, out)
	}
}

// syncInbox stands in for the Gmail pull; it reports the size of the local
// inbox.
func syncInbox(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		n := len(w.emails)
		w.mu.Unlock()
		return ok(c, http.StatusOK, map[string]int{"synced": n})
	}
}

func getCompany(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		co := w.company
		w.mu.Unlock()
		return ok(c, http.StatusOK, co)
	}
}

func uploadLogo(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("logo")
		if err != nil {
			return fail(c, http.StatusBadRequest, "Logo file is required")
		}
		ctype, allowed := logoTypes[strings.ToLower(filepath.Ext(fh.Filename))]
		if !allowed {
			return fail(c, http.StatusBadRequest, "Logo must be an image")
		}
		if fh.Size > maxLogoSize {
			return fail(c, http.StatusBadRequest, "Logo is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return fail(c, http.StatusBadRequest, "Logo file is required")
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxLogoSize+1))
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		if len(data) > maxLogoSize {
			return fail(c, http.StatusBadRequest, "Logo is too large")
		}

		w := d.Workspace
		w.mu.Lock()
		w.logo = data
		w.logoType = ctype
		w.company.LogoURL = "/api/company/logo?v=" + uuid.NewString()[:8]
		co := w.company
		w.mu.Unlock()
		return ok(c, http.StatusOK, co)
	}
}

func getLogo(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		w := d.Workspace
		w.mu.Lock()
		data, ctype := w.logo, w.logoType
		w.mu.Unlock()
		if len(data) == 0 {
			return fail(c, http.StatusNotFound, "No logo uploaded")
		}
		return c.Blob(http.StatusOK, ctype, data)
	}
}
