// Package forms validates user input before anything is sent to the API.
package forms

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"leadboard/client"
	"leadboard/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

var messages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"e164":     "%s must be a phone number like +15551234567",
	"oneof":    "%s must be one of: %s",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"gte":      "%s must be at least %s",
	"lte":      "%s must be at most %s",
	"gtfield":  "%s must be after %s",
}

// FieldErrors maps a JSON field name to a human readable message.
type FieldErrors map[string]string

// ValidationError is returned by Submit when the form is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validate checks form and returns one message per failing field. An empty
// result means the form may be submitted.
func Validate(form any) FieldErrors {
	out := FieldErrors{}
	err := validate.Struct(form)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, e := range verrs {
		if _, seen := out[e.Field()]; seen {
			continue
		}
		out[e.Field()] = message(e)
	}
	return out
}

func message(e validator.FieldError) string {
	tmpl, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid", e.Field())
	}
	if strings.Count(tmpl, "%s") == 1 {
		return fmt.Sprintf(tmpl, e.Field())
	}
	param := e.Param()
	switch e.Tag() {
	case "oneof":
		param = strings.ReplaceAll(param, " ", ", ")
	case "gtfield":
		param = lowerFirst(param)
	}
	return fmt.Sprintf(tmpl, e.Field(), param)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Submit runs fn only when form is valid.
func Submit(ctx context.Context, form any, fn func(context.Context) error) error {
	if errs := Validate(form); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return fn(ctx)
}

// LeadForm is the "add lead" dialog.
type LeadForm struct {
	FullName    string   `json:"fullName" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	PhoneNumber string   `json:"phoneNumber" validate:"required"`
	City        string   `json:"city"`
	Company     string   `json:"company"`
	JobTitle    string   `json:"jobTitle"`
	Source      string   `json:"source" validate:"omitempty,oneof=website referral social_media email_campaign cold_call event other"`
	Status      string   `json:"status" validate:"omitempty,oneof=new contacted qualified proposal won lost"`
	Notes       string   `json:"notes" validate:"max=2000"`
	Tags        []string `json:"tags"`
}

func (f LeadForm) Contact() domain.CreateContactData {
	return domain.CreateContactData{
		FullName:    strings.TrimSpace(f.FullName),
		Email:       strings.ToLower(strings.TrimSpace(f.Email)),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		City:        f.City,
		Company:     f.Company,
		JobTitle:    f.JobTitle,
		Source:      f.Source,
		Status:      f.Status,
		Notes:       f.Notes,
		Tags:        f.Tags,
	}
}

// ContactForm edits an existing contact.
type ContactForm struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	City        string `json:"city"`
	Company     string `json:"company"`
	JobTitle    string `json:"jobTitle"`
	Notes       string `json:"notes" validate:"max=2000"`
}

func (f ContactForm) Data() domain.CreateContactData {
	return domain.CreateContactData{
		FullName:    strings.TrimSpace(f.FullName),
		Email:       strings.ToLower(strings.TrimSpace(f.Email)),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		City:        f.City,
		Company:     f.Company,
		JobTitle:    f.JobTitle,
		Notes:       f.Notes,
	}
}

type TaskForm struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Type        string     `json:"type" validate:"omitempty,oneof=task lead follow_up meeting call email campaign other"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress review done cancelled"`
	DueDate     *time.Time `json:"dueDate"`
	AssignedTo  string     `json:"assignedTo"`
	Progress    *int       `json:"progress" validate:"omitempty,gte=0,lte=100"`
	Tags        []string   `json:"tags"`
}

func (f TaskForm) Input() client.TaskInput {
	return client.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		Type:        domain.TaskType(f.Type),
		Priority:    domain.Priority(f.Priority),
		Status:      domain.Status(f.Status),
		DueDate:     f.DueDate,
		AssignedTo:  f.AssignedTo,
		Progress:    f.Progress,
		Tags:        f.Tags,
	}
}

type MeetingForm struct {
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description"`
	StartTime    time.Time `json:"startTime" validate:"required"`
	EndTime      time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Attendees    []string  `json:"attendees" validate:"dive,email"`
	Location     string    `json:"location"`
	SyncCalendar bool      `json:"syncToGoogleCalendar"`
}

func (f MeetingForm) Input() client.MeetingInput {
	return client.MeetingInput{
		Title:        strings.TrimSpace(f.Title),
		Description:  f.Description,
		StartTime:    f.StartTime.UTC().Format(time.RFC3339),
		EndTime:      f.EndTime.UTC().Format(time.RFC3339),
		Attendees:    f.Attendees,
		Location:     f.Location,
		SyncCalendar: f.SyncCalendar,
	}
}

type SMSForm struct {
	To          string `json:"to" validate:"required,e164"`
	Body        string `json:"body" validate:"required,max=1600"`
	RelatedType string `json:"relatedType" validate:"omitempty,oneof=contact lead task"`
	RelatedID   string `json:"relatedId"`
}

func (f SMSForm) Input() client.SMSInput {
	return client.SMSInput{To: f.To, Body: f.Body, RelatedType: f.RelatedType, RelatedID: f.RelatedID}
}
