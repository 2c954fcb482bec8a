package devapi

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"leadboard/domain"
)

const (
	defaultTaskLimit = 50
	maxTaskLimit     = 200
	taskNotFound     = "Task not found"
)

// taskPayload is the body of POST and PUT /tasks. Absent fields leave the
// task unchanged on update.
type taskPayload struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Type        *domain.TaskType    `json:"type"`
	Priority    *domain.Priority    `json:"priority"`
	Status      *domain.Status      `json:"status"`
	Board       *string             `json:"board"`
	Column      *string             `json:"column"`
	Position    *int                `json:"position"`
	DueDate     *time.Time          `json:"dueDate"`
	StartDate   *time.Time          `json:"startDate"`
	AssignedTo  *string             `json:"assignedTo"`
	Progress    *int                `json:"progress"`
	Tags        []string            `json:"tags"`
	RelatedTo   *domain.RelatedRefs `json:"relatedTo"`
}

func (p taskPayload) validate() string {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return "Title is required"
	}
	if p.Type != nil && !p.Type.Valid() {
		return "Invalid task type"
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return "Invalid priority"
	}
	if p.Status != nil && !p.Status.Valid() {
		return "Invalid status"
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return "Progress must be between 0 and 100"
	}
	return ""
}

func (p taskPayload) apply(t *domain.Task, dir *Directory) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		setStatus(t, *p.Status)
	}
	if p.Board != nil {
		t.Board = *p.Board
	}
	if p.Column != nil {
		t.Column = *p.Column
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.StartDate != nil {
		t.StartDate = p.StartDate
	}
	if p.AssignedTo != nil {
		t.AssignedTo = dir.Ref(*p.AssignedTo)
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), p.Tags...)
	}
	if p.RelatedTo != nil {
		r := *p.RelatedTo
		t.RelatedTo = &r
	}
}

// setStatus keeps the informational column field in step with the status.
func setStatus(t *domain.Task, s domain.Status) {
	t.Status = s
	t.Column = string(s)
	if s == domain.StatusDone {
		t.Progress = 100
	}
}

func touch(t *domain.Task, dir *Directory, userID string) {
	t.UpdatedAt = now()
	t.UpdatedBy = dir.Ref(userID)
}

func newTask(dir *Directory, userID string) domain.Task {
	ts := now()
	return domain.Task{
		ID:        uuid.NewString(),
		Type:      domain.TypeTask,
		Priority:  domain.PriorityMedium,
		Status:    domain.StatusTodo,
		Column:    string(domain.StatusTodo),
		Board:     "default",
		CreatedBy: dir.Ref(userID),
		UpdatedBy: dir.Ref(userID),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

type taskFilter struct {
	Status     domain.Status
	Priority   domain.Priority
	Type       domain.TaskType
	AssignedTo string
	Search     string
	Board      string
}

func (f taskFilter) match(t domain.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.AssignedTo != "" && t.AssigneeID() != f.AssignedTo {
		return false
	}
	if f.Board != "" && t.Board != f.Board {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

var priorityRank = map[domain.Priority]int{
	domain.PriorityLow:    0,
	domain.PriorityMedium: 1,
	domain.PriorityHigh:   2,
	domain.PriorityUrgent: 3,
}

func sortTasks(tasks []domain.Task, by, order string) bool {
	var less func(a, b domain.Task) bool
	switch by {
	case "":
		return true
	case "position":
		less = func(a, b domain.Task) bool { return a.Position < b.Position }
	case "createdAt":
		less = func(a, b domain.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updatedAt":
		less = func(a, b domain.Task) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "title":
		less = func(a, b domain.Task) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "priority":
		less = func(a, b domain.Task) bool { return priorityRank[a.Priority] < priorityRank[b.Priority] }
	case "dueDate":
		// Tasks without a due date sort last.
		less = func(a, b domain.Task) bool {
			if a.DueDate == nil {
				return false
			}
			if b.DueDate == nil {
				return true
			}
			return a.DueDate.Before(*b.DueDate)
		}
	default:
		return false
	}
	if order == "desc" {
		asc := less
		less = func(a, b domain.Task) bool { return asc(b, a) }
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
	return true
}

// pageParams reads page and limit, falling back to the defaults for missing
// or non-positive values.
func pageParams(c echo.Context, defLimit, maxLimit int) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, *domain.Pagination) {
	total := len(items)
	pg := &domain.Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
	start := (page - 1) * limit
	if start >= total {
		return []T{}, pg
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], pg
}

func listTasks(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		f := taskFilter{
			Status:     domain.Status(c.QueryParam("status")),
			Priority:   domain.Priority(c.QueryParam("priority")),
			Type:       domain.TaskType(c.QueryParam("type")),
			AssignedTo: c.QueryParam("assignedTo"),
			Search:     strings.TrimSpace(c.QueryParam("search")),
			Board:      c.QueryParam("board"),
		}
		if f.Status != "" && !f.Status.Valid() {
			return fail(c, http.StatusBadRequest, "Invalid status")
		}
		if f.Priority != "" && !f.Priority.Valid() {
			return fail(c, http.StatusBadRequest, "Invalid priority")
		}
		if f.Type != "" && !f.Type.Valid() {
			return fail(c, http.StatusBadRequest, "Invalid task type")
		}

		var all []domain.Task
		err := timed(c, func() (err error) {
			all, err = d.Tasks.ListTasks(c.Request().Context())
			return err
		})
		if err != nil {
			return storeFailed(c, d, err, taskNotFound)
		}

		matched := make([]domain.Task, 0, len(all))
		for _, t := range all {
			if f.match(t) {
				matched = append(matched, t)
			}
		}
		if !sortTasks(matched, c.QueryParam("sortBy"), c.QueryParam("sortOrder")) {
			return fail(c, http.StatusBadRequest, "Invalid sort field")
		}

		page, limit := pageParams(c, defaultTaskLimit, maxTaskLimit)
		out, pg := paginate(matched, page, limit)
		metricsFrom(c).SetRecordsReturned(len(out))
		return okPage(c, out, pg)
	}
}

func getTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		t, err := d.Tasks.GetTask(c.Request().Context(), c.Param("id"))
		if err != nil {
			return storeFailed(c, d, err, taskNotFound)
		}
		return ok(c, http.StatusOK, t)
	}
}

func createTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var p taskPayload
		if err := decodeBody(c, &p); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if p.Title == nil {
			return fail(c, http.StatusBadRequest, "Title is required")
		}
		if msg := p.validate(); msg != "" {
			return fail(c, http.StatusBadRequest, msg)
		}
		return insertTask(c, d, p)
	}
}

func insertTask(c echo.Context, d Deps, p taskPayload) error {
	ctx := c.Request().Context()
	t := newTask(d.Directory, currentUser(c))
	p.apply(&t, d.Directory)
	if p.Position == nil {
		existing, err := d.Tasks.ListTasks(ctx)
		if err != nil {
			return storeFailed(c, d, err, taskNotFound)
		}
		for _, other := range existing {
			if other.Status == t.Status {
				t.Position++
			}
		}
	}
	if err := timed(c, func() error { return d.Tasks.SaveTask(ctx, t) }); err != nil {
		return storeFailed(c, d, err, taskNotFound)
	}
	return ok(c, http.StatusCreated, t)
}

// mutateTask loads a task, applies fn and saves it. fn returns a non-empty
// message to reject the request with 400.
func mutateTask(d Deps, fn func(c echo.Context, t *domain.Task) string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		t, err := d.Tasks.GetTask(ctx, c.Param("id"))
		if err != nil {
			return storeFailed(c, d, err, taskNotFound)
		}
		if msg := fn(c, &t); msg != "" {
			return fail(c, http.StatusBadRequest, msg)
		}
		touch(&t, d.Directory, currentUser(c))
		if err := timed(c, func() error { return d.Tasks.SaveTask(ctx, t) }); err != nil {
			return storeFailed(c, d, err, taskNotFound)
		}
		return ok(c, http.StatusOK, t)
	}
}

func updateTask(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		var p taskPayload
		if err := decodeBody(c, &p); err != nil {
			return "Invalid request body"
		}
		if msg := p.validate(); msg != "" {
			return msg
		}
		p.apply(t, d.Directory)
		return ""
	})
}

func deleteTask(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := timed(c, func() error { return d.Tasks.DeleteTask(ctx, c.Param("id")) }); err != nil {
			return storeFailed(c, d, err, taskNotFound)
		}
		return c.JSON(http.StatusOK, envelope{Success: true, Message: "Task deleted successfully"})
	}
}

func patchStatus(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		var body struct {
			Status domain.Status `json:"status"`
		}
		if err := decodeBody(c, &body); err != nil || !body.Status.Valid() {
			return "Invalid status"
		}
		setStatus(t, body.Status)
		return ""
	})
}

func patchPriority(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		var body struct {
			Priority domain.Priority `json:"priority"`
		}
		if err := decodeBody(c, &body); err != nil || !body.Priority.Valid() {
			return "Invalid priority"
		}
		t.Priority = body.Priority
		return ""
	})
}

func patchAssign(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		var body struct {
			AssignedTo *string `json:"assignedTo"`
		}
		if err := decodeBody(c, &body); err != nil {
			return "Invalid request body"
		}
		if body.AssignedTo == nil || *body.AssignedTo == "" {
			t.AssignedTo = nil
			return ""
		}
		t.AssignedTo = d.Directory.Ref(*body.AssignedTo)
		return ""
	})
}

func patchMove(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		var body struct {
			Column   string `json:"column"`
			Position *int   `json:"position"`
		}
		if err := decodeBody(c, &body); err != nil {
			return "Invalid request body"
		}
		if body.Column == "" || body.Position == nil {
			return "Column and position are required"
		}
		if s := domain.Status(body.Column); s.Valid() {
			setStatus(t, s)
		}
		t.Column = body.Column
		t.Position = *body.Position
		return ""
	})
}

func addComment(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		var body struct {
			Text string `json:"text"`
		}
		if err := decodeBody(c, &body); err != nil || strings.TrimSpace(body.Text) == "" {
			return "Comment text is required"
		}
		t.Comments = append(t.Comments, domain.Comment{
			User:      d.Directory.Ref(currentUser(c)),
			Text:      body.Text,
			CreatedAt: now(),
		})
		return ""
	})
}

func addChecklistItem(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		var body struct {
			Item string `json:"item"`
		}
		if err := decodeBody(c, &body); err != nil || strings.TrimSpace(body.Item) == "" {
			return "Checklist item is required"
		}
		t.Checklist = append(t.Checklist, domain.ChecklistItem{Item: body.Item})
		return ""
	})
}

func completeChecklistItem(d Deps) echo.HandlerFunc {
	return mutateTask(d, func(c echo.Context, t *domain.Task) string {
		i, err := strconv.Atoi(c.Param("index"))
		if err != nil || i < 0 || i >= len(t.Checklist) {
			return "Invalid checklist item index"
		}
		ts := now()
		t.Checklist[i].Completed = true
		t.Checklist[i].CompletedBy = d.Directory.Ref(currentUser(c))
		t.Checklist[i].CompletedAt = &ts
		return ""
	})
}

type bulkUpdates struct {
	Status     *domain.Status   `json:"status"`
	Priority   *domain.Priority `json:"priority"`
	AssignedTo *string          `json:"assignedTo"`
	Board      *string          `json:"board"`
	Column     *string          `json:"column"`
	Tags       []string         `json:"tags"`
}

func bulkUpdateTasks(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var body struct {
			TaskIDs []string    `json:"taskIds"`
			Updates bulkUpdates `json:"updates"`
		}
		if err := decodeBody(c, &body); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		if len(body.TaskIDs) == 0 {
			return fail(c, http.StatusBadRequest, "Task IDs are required")
		}
		p := taskPayload{
			Status:     body.Updates.Status,
			Priority:   body.Updates.Priority,
			AssignedTo: body.Updates.AssignedTo,
			Board:      body.Updates.Board,
			Column:     body.Updates.Column,
			Tags:       body.Updates.Tags,
		}
		if msg := p.validate(); msg != "" {
			return fail(c, http.StatusBadRequest, msg)
		}

		var res struct {
			Matched  int `json:"matched"`
			Modified int `json:"modified"`
		}
		for _, id := range body.TaskIDs {
			t, err := d.Tasks.GetTask(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return storeFailed(c, d, err, taskNotFound)
			}
			res.Matched++
			p.apply(&t, d.Directory)
			touch(&t, d.Directory, currentUser(c))
			if err := d.Tasks.SaveTask(ctx, t); err != nil {
				return storeFailed(c, d, err, taskNotFound)
			}
			res.Modified++
		}
		return ok(c, http.StatusOK, res)
	}
}

// taskTemplates are the server-side starting points for common CRM tasks.
var taskTemplates = map[string]taskPayload{
	"follow_up": {
		Title:    ptr("Follow up with lead"),
		Type:     ptr(domain.TypeFollowUp),
		Priority: ptr(domain.PriorityHigh),
	},
	"call": {
		Title: ptr("Call contact"),
		Type:  ptr(domain.TypeCall),
	},
	"meeting": {
		Title: ptr("Prepare meeting"),
		Type:  ptr(domain.TypeMeeting),
	},
	"qualify_lead": {
		Title:    ptr("Qualify new lead"),
		Type:     ptr(domain.TypeLead),
		Priority: ptr(domain.PriorityMedium),
	},
}

func ptr[T any](v T) *T { return &v }

func createFromTemplate(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tmpl, found := taskTemplates[c.Param("template")]
		if !found {
			return fail(c, http.StatusNotFound, "Template not found")
		}
		var body struct {
			Overrides taskPayload `json:"overrides"`
		}
		if err := decodeBody(c, &body); err != nil {
			return fail(c, http.StatusBadRequest, "Invalid request body")
		}
		o := body.Overrides
		if msg := o.validate(); msg != "" {
			return fail(c, http.StatusBadRequest, msg)
		}
		merged := tmpl
		if o.Title != nil {
			merged.Title = o.Title
		}
		if o.Type != nil {
			merged.Type = o.Type
		}
		if o.Priority != nil {
			merged.Priority = o.Priority
		}
		merged.Description = o.Description
		merged.Status = o.Status
		merged.Board = o.Board
		merged.DueDate = o.DueDate
		merged.StartDate = o.StartDate
		merged.AssignedTo = o.AssignedTo
		merged.Tags = o.Tags
		merged.RelatedTo = o.RelatedTo
		return insertTask(c, d, merged)
	}
}

func taskStats(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var all []domain.Task
		err := timed(c, func() (err error) {
			all, err = d.Tasks.ListTasks(c.Request().Context())
			return err
		})
		if err != nil {
			return storeFailed(c, d, err, taskNotFound)
		}
		return ok(c, http.StatusOK, computeStats(all, time.Now()))
	}
}

func computeStats(tasks []domain.Task, at time.Time) domain.TaskStats {
	st := domain.TaskStats{
		Total:      len(tasks),
		ByStatus:   map[domain.Status]int{},
		ByPriority: map[domain.Priority]int{},
	}
	weekAgo := at.AddDate(0, 0, -7)
	for _, t := range tasks {
		st.ByStatus[t.Status]++
		st.ByPriority[t.Priority]++
		closed := t.Status == domain.StatusDone || t.Status == domain.StatusCancelled
		if !closed && t.DueDate != nil && t.DueDate.Before(at) {
			st.Overdue++
		}
		if t.Status == domain.StatusDone && t.UpdatedAt.After(weekAgo) {
			st.CompletedThisWeek++
		}
	}
	return st
}
