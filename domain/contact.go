package domain

import "time"

// Contact is a lead or customer record owned by the backend.
type Contact struct {
	ID          string    `json:"_id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	City        string    `json:"city,omitempty"`
	Company     string    `json:"company,omitempty"`
	JobTitle    string    `json:"jobTitle,omitempty"`
	Source      string    `json:"source,omitempty"`
	Status      string    `json:"status,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateContactData is the payload for creating or importing a contact.
type CreateContactData struct {
	FullName    string   `json:"fullName"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phoneNumber"`
	City        string   `json:"city,omitempty"`
	Company     string   `json:"company,omitempty"`
	JobTitle    string   `json:"jobTitle,omitempty"`
	Source      string   `json:"source,omitempty"`
	Status      string   `json:"status,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CreateData drops the server-assigned id and timestamps.
func (c Contact) CreateData() CreateContactData {
	d := CreateContactData{
		FullName:    c.FullName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		City:        c.City,
		Company:     c.Company,
		JobTitle:    c.JobTitle,
		Source:      c.Source,
		Status:      c.Status,
		Notes:       c.Notes,
	}
	if len(c.Tags) > 0 {
		d.Tags = append([]string(nil), c.Tags...)
	}
	return d
}

// HasRequired reports whether the three fields every import row needs are
// present.
func (d CreateContactData) HasRequired() bool {
	return d.FullName != "" && d.Email != "" && d.PhoneNumber != ""
}
