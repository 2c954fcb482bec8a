package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidTaskType = errors.New("invalid task type")
)

// Status is the lifecycle state of a task. It doubles as the board bucket.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus returns ErrInvalidStatus for anything outside the five statuses.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ParsePriority(v string) (Priority, error) {
	p := Priority(v)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, v)
	}
	return p, nil
}

type TaskType string

const (
	TypeTask     TaskType = "task"
	TypeLead     TaskType = "lead"
	TypeFollowUp TaskType = "follow_up"
	TypeMeeting  TaskType = "meeting"
	TypeCall     TaskType = "call"
	TypeEmail    TaskType = "email"
	TypeCampaign TaskType = "campaign"
	TypeOther    TaskType = "other"
)

var TaskTypes = []TaskType{TypeTask, TypeLead, TypeFollowUp, TypeMeeting, TypeCall, TypeEmail, TypeCampaign, TypeOther}

func (t TaskType) Valid() bool {
	for _, v := range TaskTypes {
		if v == t {
			return true
		}
	}
	return false
}

func ParseTaskType(v string) (TaskType, error) {
	t := TaskType(v)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskType, v)
	}
	return t, nil
}
