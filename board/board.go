// Package board holds the in-memory task collection behind the list and
// kanban views and applies optimistic edits ahead of server confirmation.
//
// Every optimistic mutation records the task's prior state in a per-task
// journal. A failed call rolls back only that task, so independent edits to
// different tasks never undo each other.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"leadboard/client"
	"leadboard/domain"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskAPI is the part of the API client the board uses.
type TaskAPI interface {
	AllTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, in client.TaskInput) (domain.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, s domain.Status) (domain.Task, error)
	UpdateTaskPriority(ctx context.Context, id string, p domain.Priority) (domain.Task, error)
	AssignTask(ctx context.Context, id, userID string) (domain.Task, error)
	MoveTask(ctx context.Context, id string, mv client.MoveRequest) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Board is safe for concurrent use.
type Board struct {
	api        TaskAPI
	log        *log.Logger
	notify     Notifier
	byPosition bool
	serialize  bool

	mu       sync.Mutex
	tasks    []domain.Task
	journals map[string]journal
	lanes    map[string]chan struct{}
	seq      uint64
	gen      uint64
}

type Option func(*Board)

func WithLogger(l *log.Logger) Option {
	return func(b *Board) { b.log = l }
}

func WithNotifier(n Notifier) Option {
	return func(b *Board) { b.notify = n }
}

// WithPositionOrder sorts each bucket by position. Without it buckets keep
// array order.
func WithPositionOrder() Option {
	return func(b *Board) { b.byPosition = true }
}

// WithSerializedWrites sends a task's writes one at a time in the order they
// were issued.
func WithSerializedWrites() Option {
	return func(b *Board) { b.serialize = true }
}

func New(api TaskAPI, opts ...Option) *Board {
	b := &Board{
		api:      api,
		log:      log.StandardLogger(),
		journals: map[string]journal{},
		lanes:    map[string]chan struct{}{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.notify == nil {
		b.notify = logNotifier{log: b.log}
	}
	return b
}

// Load fetches the full collection and replaces local state. Tasks with an
// unknown status are dropped. Outstanding mutations are forgotten; their
// responses no longer touch local state.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.api.AllTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	kept := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Status.Valid() {
			b.log.WithFields(log.Fields{"task": t.ID, "status": t.Status}).Warn("board: dropping task with unknown status")
			continue
		}
		kept = append(kept, t)
	}

	b.mu.Lock()
	b.tasks = kept
	b.journals = map[string]journal{}
	b.gen++
	b.mu.Unlock()
	return nil
}

// Tasks returns a deep copy of the collection in array order.
func (b *Board) Tasks() []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.CloneTasks(b.tasks)
}

// Task returns a copy of one task.
func (b *Board) Task(id string) (domain.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return b.tasks[i].Clone(), true
}

// Filter returns the matching tasks in array order.
func (b *Board) Filter(f Filter) []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return apply(b.tasks, f)
}

// Buckets partitions the filtered tasks by status, one bucket per status in
// column order. Empty buckets are included.
func (b *Board) Buckets(f Filter) []Bucket {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bucketize(apply(b.tasks, f), b.byPosition)
}

// Pending returns the number of outstanding mutations for a task.
func (b *Board) Pending(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.journals[id])
}

// Create is not optimistic: the task appears once the server returns it.
func (b *Board) Create(ctx context.Context, in client.TaskInput) (domain.Task, error) {
	t, err := b.api.CreateTask(ctx, in)
	if err != nil {
		b.notify.Notify("create", "", err)
		return domain.Task{}, err
	}
	if !usable(t) {
		b.log.WithFields(log.Fields{"task": t.ID, "status": t.Status}).Warn("board: created task not added, reload to see it")
		return t, nil
	}
	b.mu.Lock()
	b.tasks = append(b.tasks, t.Clone())
	b.mu.Unlock()
	return t, nil
}

func (b *Board) SetStatus(ctx context.Context, id string, s domain.Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, s)
	}
	return b.mutate(ctx, "status", id,
		func(t *domain.Task) { t.Status = s }, nil,
		func(ctx context.Context) (*domain.Task, error) {
			t, err := b.api.UpdateTaskStatus(ctx, id, s)
			return &t, err
		})
}

func (b *Board) SetPriority(ctx context.Context, id string, p domain.Priority) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidPriority, p)
	}
	return b.mutate(ctx, "priority", id,
		func(t *domain.Task) { t.Priority = p }, nil,
		func(ctx context.Context) (*domain.Task, error) {
			t, err := b.api.UpdateTaskPriority(ctx, id, p)
			return &t, err
		})
}

// Assign sets the assignee; an empty userID unassigns.
func (b *Board) Assign(ctx context.Context, id, userID string) error {
	return b.mutate(ctx, "assign", id,
		func(t *domain.Task) {
			if userID == "" {
				t.AssignedTo = nil
				return
			}
			t.AssignedTo = &domain.UserRef{ID: userID}
		}, nil,
		func(ctx context.Context) (*domain.Task, error) {
			t, err := b.api.AssignTask(ctx, id, userID)
			return &t, err
		})
}

// Reposition moves a task to column at position with a single move call.
// status, when non-empty, is applied locally as well.
func (b *Board) Reposition(ctx context.Context, id, column string, position int, status domain.Status) error {
	if status != "" && !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	return b.mutate(ctx, "move", id,
		func(t *domain.Task) {
			t.Column = column
			t.Position = position
			if status != "" {
				t.Status = status
			}
		}, nil,
		func(ctx context.Context) (*domain.Task, error) {
			t, err := b.api.MoveTask(ctx, id, client.MoveRequest{Column: column, Position: position})
			return &t, err
		})
}

// Reorder moves a task within its column with a single move call. Locally the
// task is placed right before beforeID, or after the last task of its status
// when beforeID is empty, so the new order shows whether or not buckets sort
// by position. A failed call puts the task back where it was.
func (b *Board) Reorder(ctx context.Context, id, column string, position int, beforeID string) error {
	if beforeID == id {
		return nil
	}
	return b.mutate(ctx, "move", id,
		func(t *domain.Task) {
			t.Column = column
			t.Position = position
		},
		func(i int) { b.placeBefore(i, beforeID) },
		func(ctx context.Context) (*domain.Task, error) {
			t, err := b.api.MoveTask(ctx, id, client.MoveRequest{Column: column, Position: position})
			return &t, err
		})
}

// Delete removes the task locally at once and puts it back at its previous
// index if the call fails.
func (b *Board) Delete(ctx context.Context, id string) error {
	return b.mutate(ctx, "delete", id, nil, nil, func(ctx context.Context) (*domain.Task, error) {
		return nil, b.api.DeleteTask(ctx, id)
	})
}

// mutate records an undo entry, applies change locally (nil change means
// delete), relocates the task with place when given, issues call outside the
// lock and reconciles the result.
func (b *Board) mutate(ctx context.Context, op, id string, change func(*domain.Task), place func(int), call func(context.Context) (*domain.Task, error)) error {
	if id == "" {
		return client.ErrMissingID
	}

	b.mu.Lock()
	i := b.indexOf(id)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	b.seq++
	e := &entry{seq: b.seq, op: op, before: b.tasks[i].Clone(), index: i, moved: place != nil}
	b.journals[id] = append(b.journals[id], e)
	gen := b.gen
	if change == nil {
		b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	} else {
		change(&b.tasks[i])
		if place != nil {
			place(i)
		}
	}
	prev, done := b.enterLane(id)
	b.mu.Unlock()

	var server *domain.Task
	err := waitLane(ctx, prev)
	if err == nil {
		server, err = call(ctx)
	}

	b.mu.Lock()
	if gen == b.gen {
		if err != nil {
			b.rollback(id, e)
		} else {
			b.confirm(id, e, server)
		}
	}
	b.leaveLane(id, done)
	b.mu.Unlock()

	if err != nil {
		b.notify.Notify(op, id, err)
		return err
	}
	return nil
}

// confirm retires e. The server copy replaces the local task only when no
// later mutation of the task is still outstanding; earlier outstanding ones
// are then superseded and will not touch the task when they resolve. A reply
// without a usable copy of the same task keeps the optimistic version.
func (b *Board) confirm(id string, e *entry, server *domain.Task) {
	j := b.journals[id]
	later := j.next(e) != nil
	if !later {
		for _, x := range j {
			if x != e {
				x.superseded = true
			}
		}
	}
	b.retire(id, e)
	if later || e.superseded || server == nil {
		return
	}
	if server.ID != id || !usable(*server) {
		b.log.WithFields(log.Fields{"task": id, "op": e.op}).Debug("board: reply carried no task, keeping local copy")
		return
	}
	if i := b.indexOf(id); i >= 0 {
		b.tasks[i] = server.Clone()
	}
}

// rollback undoes e. When a later mutation is still outstanding it inherits
// e's snapshot so its own rollback lands on the state before e.
func (b *Board) rollback(id string, e *entry) {
	j := b.journals[id]
	next := j.next(e)
	b.retire(id, e)
	switch {
	case e.superseded:
	case next != nil:
		next.before = e.before
		next.index = e.index
		next.moved = next.moved || e.moved
	default:
		b.restore(id, e)
	}
}

func (b *Board) restore(id string, e *entry) {
	i := b.indexOf(id)
	switch {
	case i < 0:
		b.insertAt(e.index, e.before.Clone())
	case e.moved && i != e.index:
		b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
		b.insertAt(e.index, e.before.Clone())
	default:
		b.tasks[i] = e.before.Clone()
	}
}

func (b *Board) insertAt(at int, t domain.Task) {
	if at > len(b.tasks) {
		at = len(b.tasks)
	}
	b.tasks = append(b.tasks, domain.Task{})
	copy(b.tasks[at+1:], b.tasks[at:])
	b.tasks[at] = t
}

// placeBefore moves the task at i in front of beforeID, or after the last
// other task with the same status when beforeID is empty or unknown.
func (b *Board) placeBefore(i int, beforeID string) {
	t := b.tasks[i]
	b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	at := -1
	if beforeID != "" {
		at = b.indexOf(beforeID)
	}
	if at < 0 {
		at = len(b.tasks)
		for j := len(b.tasks) - 1; j >= 0; j-- {
			if b.tasks[j].Status == t.Status {
				at = j + 1
				break
			}
		}
	}
	b.insertAt(at, t)
}

func (b *Board) retire(id string, e *entry) {
	j := b.journals[id].remove(e)
	if len(j) == 0 {
		delete(b.journals, id)
		return
	}
	b.journals[id] = j
}

// enterLane queues a write for id. prev is closed when the previous write
// finished; it is nil when writes are not serialized or none is queued.
func (b *Board) enterLane(id string) (prev <-chan struct{}, done chan struct{}) {
	if !b.serialize {
		return nil, nil
	}
	done = make(chan struct{})
	if p, ok := b.lanes[id]; ok {
		prev = p
	}
	b.lanes[id] = done
	return prev, done
}

func (b *Board) leaveLane(id string, done chan struct{}) {
	if done == nil {
		return
	}
	close(done)
	if b.lanes[id] == done {
		delete(b.lanes, id)
	}
}

func waitLane(ctx context.Context, prev <-chan struct{}) error {
	if prev == nil {
		return nil
	}
	select {
	case <-prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// usable reports whether a task returned by the server may enter local state.
func usable(t domain.Task) bool {
	return t.ID != "" && t.Status.Valid()
}

func (b *Board) indexOf(id string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
