package domain

import (
	"time"

	"github.com/bytedance/sonic"
)

// Task is a single board item as served by the CRM backend.
type Task struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        TaskType        `json:"type"`
	Priority    Priority        `json:"priority"`
	Status      Status          `json:"status"`
	Board       string          `json:"board,omitempty"`
	Column      string          `json:"column,omitempty"`
	Position    int             `json:"position"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
	AssignedTo  *UserRef        `json:"assignedTo,omitempty"`
	Progress    int             `json:"progress"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	Comments    []Comment       `json:"comments,omitempty"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	RelatedTo   *RelatedRefs    `json:"relatedTo,omitempty"`
	CreatedBy   *UserRef        `json:"createdBy,omitempty"`
	UpdatedBy   *UserRef        `json:"updatedBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ChecklistItem struct {
	Item        string     `json:"item"`
	Completed   bool       `json:"completed"`
	CompletedBy *UserRef   `json:"completedBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type Comment struct {
	User      *UserRef  `json:"user,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Attachment struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// RelatedRefs holds soft references to other CRM records. They are never
// joined client-side.
type RelatedRefs struct {
	Contact  string `json:"contact,omitempty"`
	Deal     string `json:"deal,omitempty"`
	Campaign string `json:"campaign,omitempty"`
}

// UserRef points at a user. The backend sends either a bare id or a
// populated user object; both decode here. It always encodes as the id.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (u *UserRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := sonic.Unmarshal(data, &id); err != nil {
			return err
		}
		*u = UserRef{ID: id}
		return nil
	}
	type plain UserRef
	var p plain
	if err := sonic.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = UserRef(p)
	return nil
}

func (u UserRef) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(u.ID)
}

// AssigneeID returns the assignee id or "" when unassigned.
func (t Task) AssigneeID() string {
	if t.AssignedTo == nil {
		return ""
	}
	return t.AssignedTo.ID
}

// Clone returns a deep copy so snapshots never share slices or pointers with
// the live value.
func (t Task) Clone() Task {
	c := t
	c.DueDate = cloneTime(t.DueDate)
	c.StartDate = cloneTime(t.StartDate)
	c.AssignedTo = cloneRef(t.AssignedTo)
	c.CreatedBy = cloneRef(t.CreatedBy)
	c.UpdatedBy = cloneRef(t.UpdatedBy)
	if t.RelatedTo != nil {
		r := *t.RelatedTo
		c.RelatedTo = &r
	}
	if t.Checklist != nil {
		c.Checklist = make([]ChecklistItem, len(t.Checklist))
		for i, item := range t.Checklist {
			item.CompletedBy = cloneRef(item.CompletedBy)
			item.CompletedAt = cloneTime(item.CompletedAt)
			c.Checklist[i] = item
		}
	}
	if t.Comments != nil {
		c.Comments = make([]Comment, len(t.Comments))
		for i, cm := range t.Comments {
			cm.User = cloneRef(cm.User)
			c.Comments[i] = cm
		}
	}
	if t.Attachments != nil {
		c.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneRef(r *UserRef) *UserRef {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

// CloneTasks deep-copies a task slice, preserving nil.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// TaskStats is the aggregate served by GET /tasks/stats.
type TaskStats struct {
	Total             int              `json:"total"`
	ByStatus          map[Status]int   `json:"byStatus"`
	ByPriority        map[Priority]int `json:"byPriority"`
	Overdue           int              `json:"overdue"`
	CompletedThisWeek int              `json:"completedThisWeek"`
}
