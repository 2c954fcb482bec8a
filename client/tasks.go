package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leadboard/domain"
)

// TaskQuery holds the list filters, sort and paging parameters accepted by
// GET /tasks. Zero values are omitted from the query string.
type TaskQuery struct {
	Status     domain.Status   `url:"status,omitempty"`
	Priority   domain.Priority `url:"priority,omitempty"`
	Type       domain.TaskType `url:"type,omitempty"`
	AssignedTo string          `url:"assignedTo,omitempty"`
	Search     string          `url:"search,omitempty"`
	Board      string          `url:"board,omitempty"`
	SortBy     string          `url:"sortBy,omitempty"`
	SortOrder  string          `url:"sortOrder,omitempty"`
	Page       int             `url:"page,omitempty"`
	Limit      int             `url:"limit,omitempty"`
}

// TaskInput is the body of create and full-update calls.
type TaskInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Type        domain.TaskType     `json:"type,omitempty"`
	Priority    domain.Priority     `json:"priority,omitempty"`
	Status      domain.Status       `json:"status,omitempty"`
	Board       string              `json:"board,omitempty"`
	Column      string              `json:"column,omitempty"`
	Position    *int                `json:"position,omitempty"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
	StartDate   *time.Time          `json:"startDate,omitempty"`
	AssignedTo  string              `json:"assignedTo,omitempty"`
	Progress    *int                `json:"progress,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	RelatedTo   *domain.RelatedRefs `json:"relatedTo,omitempty"`
}

func (in TaskInput) validate() error {
	if in.Type != "" && !in.Type.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTaskType, in.Type)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPriority, in.Priority)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, in.Status)
	}
	return nil
}

// TaskUpdates is the partial update applied by a bulk call. Nil fields are
// left alone.
type TaskUpdates struct {
	Status     *domain.Status   `json:"status,omitempty"`
	Priority   *domain.Priority `json:"priority,omitempty"`
	AssignedTo *string          `json:"assignedTo,omitempty"`
	Board      *string          `json:"board,omitempty"`
	Column     *string          `json:"column,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
}

type BulkResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
}

// TaskPage is one page of tasks with the server's pagination, untouched.
type TaskPage struct {
	Data       []domain.Task
	Pagination *domain.Pagination
}

func taskPath(id string, suffix ...string) string {
	p := "/tasks/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) (TaskPage, error) {
	var tasks []domain.Task
	pg, err := c.call(ctx, request{method: http.MethodGet, route: "/tasks", path: "/tasks", query: q}, &tasks)
	if err != nil {
		return TaskPage{}, err
	}
	return TaskPage{Data: tasks, Pagination: pg}, nil
}

// AllTasks fetches the whole collection, following server pages when the
// backend paginates.
func (c *Client) AllTasks(ctx context.Context) ([]domain.Task, error) {
	var all []domain.Task
	q := TaskQuery{Page: 1}
	for {
		page, err := c.ListTasks(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if page.Pagination == nil || q.Page >= page.Pagination.Pages || len(page.Data) == 0 {
			break
		}
		q.Page++
	}
	if all == nil {
		all = []domain.Task{}
	}
	return all, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	var t domain.Task
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/tasks/:id", path: taskPath(id)}, &t)
	return t, err
}

func (c *Client) CreateTask(ctx context.Context, in TaskInput) (domain.Task, error) {
	if err := in.validate(); err != nil {
		return domain.Task{}, err
	}
	var t domain.Task
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/tasks", path: "/tasks", body: in}, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, in TaskInput) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	if err := in.validate(); err != nil {
		return domain.Task{}, err
	}
	var t domain.Task
	_, err := c.call(ctx, request{method: http.MethodPut, route: "/tasks/:id", path: taskPath(id), body: in}, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	_, err := c.call(ctx, request{method: http.MethodDelete, route: "/tasks/:id", path: taskPath(id)}, nil)
	return err
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status domain.Status) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	if !status.Valid() {
		return domain.Task{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	var t domain.Task
	body := map[string]domain.Status{"status": status}
	_, err := c.call(ctx, request{method: http.MethodPatch, route: "/tasks/:id/status", path: taskPath(id, "status"), body: body}, &t)
	return t, err
}

func (c *Client) UpdateTaskPriority(ctx context.Context, id string, p domain.Priority) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	if !p.Valid() {
		return domain.Task{}, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, p)
	}
	var t domain.Task
	body := map[string]domain.Priority{"priority": p}
	_, err := c.call(ctx, request{method: http.MethodPatch, route: "/tasks/:id/priority", path: taskPath(id, "priority"), body: body}, &t)
	return t, err
}

// AssignTask sets the assignee; an empty userID unassigns.
func (c *Client) AssignTask(ctx context.Context, id, userID string) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	var t domain.Task
	body := map[string]any{"assignedTo": nil}
	if userID != "" {
		body["assignedTo"] = userID
	}
	_, err := c.call(ctx, request{method: http.MethodPatch, route: "/tasks/:id/assign", path: taskPath(id, "assign"), body: body}, &t)
	return t, err
}

// MoveRequest places a task in a column at a position.
type MoveRequest struct {
	Column   string `json:"column"`
	Position int    `json:"position"`
}

func (c *Client) MoveTask(ctx context.Context, id string, mv MoveRequest) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	var t domain.Task
	_, err := c.call(ctx, request{method: http.MethodPatch, route: "/tasks/:id/move", path: taskPath(id, "move"), body: mv}, &t)
	return t, err
}

func (c *Client) AddComment(ctx context.Context, id, text string) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	var t domain.Task
	body := map[string]string{"text": text}
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/tasks/:id/comments", path: taskPath(id, "comments"), body: body}, &t)
	return t, err
}

func (c *Client) AddChecklistItem(ctx context.Context, id, item string) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	var t domain.Task
	body := map[string]string{"item": item}
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/tasks/:id/checklist", path: taskPath(id, "checklist"), body: body}, &t)
	return t, err
}

func (c *Client) CompleteChecklistItem(ctx context.Context, id string, index int) (domain.Task, error) {
	if id == "" {
		return domain.Task{}, ErrMissingID
	}
	if index < 0 {
		return domain.Task{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	var t domain.Task
	path := taskPath(id, "checklist", strconv.Itoa(index), "complete")
	_, err := c.call(ctx, request{method: http.MethodPatch, route: "/tasks/:id/checklist/:index/complete", path: path}, &t)
	return t, err
}

func (c *Client) BulkUpdateTasks(ctx context.Context, ids []string, upd TaskUpdates) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, ErrMissingID
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return BulkResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, *upd.Status)
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return BulkResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, *upd.Priority)
	}
	var res BulkResult
	body := struct {
		TaskIDs []string    `json:"taskIds"`
		Updates TaskUpdates `json:"updates"`
	}{ids, upd}
	_, err := c.call(ctx, request{method: http.MethodPatch, route: "/tasks/bulk", path: "/tasks/bulk", body: body}, &res)
	return res, err
}

// CreateTaskFromTemplate instantiates a server-side template. Overrides are
// applied on top of the template's defaults.
func (c *Client) CreateTaskFromTemplate(ctx context.Context, template string, overrides TaskInput) (domain.Task, error) {
	if template == "" {
		return domain.Task{}, ErrMissingID
	}
	if err := overrides.validate(); err != nil {
		return domain.Task{}, err
	}
	var t domain.Task
	body := map[string]TaskInput{"overrides": overrides}
	path := "/tasks/templates/" + url.PathEscape(template)
	_, err := c.call(ctx, request{method: http.MethodPost, route: "/tasks/templates/:template", path: path, body: body}, &t)
	return t, err
}

func (c *Client) TaskStats(ctx context.Context) (domain.TaskStats, error) {
	var st domain.TaskStats
	_, err := c.call(ctx, request{method: http.MethodGet, route: "/tasks/stats", path: "/tasks/stats"}, &st)
	return st, err
}
