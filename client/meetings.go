package client

import (
	"context"
	"net/http"
	"net/url"

	"leadboard/domain"
)

type MeetingInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	Attendees    []string `json:"attendees,omitempty"`
	Location     string   `json:"location,omitempty"`
	SyncCalendar bool     `json:"syncToGoogleCalendar,omitempty"`
}

func (c *Client) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	var ms []domain.Meeting
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/meetings", path: "/meetings"}, &ms)
	return ms, err
}

func (c *Client) CreateMeeting(ctx context.Context, in MeetingInput) (domain.Meeting, error) {
	var m domain.Meeting
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/meetings", path: "/meetings", body: in}, &m)
	return m, err
}

func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	_, err := c.call(ctx, request{method: http.MethodDelete, route: "/meetings/:id", path: "/meetings/" + url.PathEscape(id)}, nil)
	return err
}

// CalendarAuthURL returns the Google OAuth consent URL the user must visit.
func (c *Client) CalendarAuthURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/google-calendar/auth-url", path: "/google-calendar/auth-url"}, &out)
	return out.URL, err
}

func (c *Client) CalendarStatus(ctx context.Context) (domain.CalendarStatus, error) {
	var st domain.CalendarStatus
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/google-calendar/status", path: "/google-calendar/status"}, &st)
	return st, err
}

func (c *Client) DisconnectCalendar(ctx context.Context) error {
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/google-calendar/disconnect", path: "/google-calendar/disconnect"}, nil)
	return err
}
