package domain

import "time"

type Meeting struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Attendees     []string  `json:"attendees,omitempty"`
	Location      string    `json:"location,omitempty"`
	GoogleEventID string    `json:"googleEventId,omitempty"`
}

// CalendarStatus reports whether the Google Calendar OAuth link is live.
type CalendarStatus struct {
	Connected bool   `json:"connected"`
	Email     string `json:"email,omitempty"`
}

type SMSMessage struct {
	ID          string    `json:"_id"`
	To          string    `json:"to"`
	Body        string    `json:"body"`
	Direction   string    `json:"direction"`
	Status      string    `json:"status"`
	RelatedType string    `json:"relatedType,omitempty"`
	RelatedID   string    `json:"relatedId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Email struct {
	ID        string    `json:"_id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ThreadID  string    `json:"threadId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Company struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}
