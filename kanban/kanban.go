// Package kanban turns drag-and-drop and keyboard gestures on the board into
// board mutations. Column ids are only ever converted to statuses through
// domain.Columns.
package kanban

import (
	"context"
	"fmt"

	"leadboard/board"
	"leadboard/domain"
)

// DropEvent is a finished drag: the task left FromColumn and was dropped in
// ToColumn at Index within that column's rendered list.
type DropEvent struct {
	TaskID     string
	FromColumn string
	ToColumn   string
	Index      int
}

// Column is one rendered column.
type Column struct {
	Binding domain.ColumnBinding
	Tasks   []domain.Task
}

type Board struct {
	b    *board.Board
	cols domain.Columns
}

func New(b *board.Board, cols domain.Columns) *Board {
	return &Board{b: b, cols: cols}
}

// View returns the filtered tasks grouped into columns in display order.
func (k *Board) View(f board.Filter) []Column {
	byStatus := map[domain.Status][]domain.Task{}
	for _, bucket := range k.b.Buckets(f) {
		byStatus[bucket.Status] = bucket.Tasks
	}
	order := k.cols.Order()
	out := make([]Column, len(order))
	for i, binding := range order {
		tasks := byStatus[binding.Status]
		if tasks == nil {
			tasks = []domain.Task{}
		}
		out[i] = Column{Binding: binding, Tasks: tasks}
	}
	return out
}

// Drop applies a drag result. Moving across columns changes the status;
// moving within a column changes the position and the local order, so the
// dropped index holds whether or not the board sorts by position; dropping in
// place does nothing.
func (k *Board) Drop(ctx context.Context, ev DropEvent) error {
	from, err := k.cols.StatusFor(ev.FromColumn)
	if err != nil {
		return err
	}
	to, err := k.cols.StatusFor(ev.ToColumn)
	if err != nil {
		return err
	}
	if from != to {
		return k.b.SetStatus(ctx, ev.TaskID, to)
	}

	tasks := k.column(to)
	current := -1
	for i, t := range tasks {
		if t.ID == ev.TaskID {
			current = i
			break
		}
	}
	if current < 0 {
		return fmt.Errorf("%w: %s not in column %q", board.ErrTaskNotFound, ev.TaskID, ev.ToColumn)
	}
	rest := append(tasks[:current:current], tasks[current+1:]...)
	index := min(max(ev.Index, 0), len(rest))
	if index == current {
		return nil
	}
	before := ""
	if index < len(rest) {
		before = rest[index].ID
	}
	return k.b.Reorder(ctx, ev.TaskID, ev.ToColumn, slotPosition(rest, index), before)
}

// Shift moves a task delta columns left or right. At the board edge it is a
// no-op.
func (k *Board) Shift(ctx context.Context, id string, delta int) error {
	t, ok := k.b.Task(id)
	if !ok {
		return fmt.Errorf("%w: %s", board.ErrTaskNotFound, id)
	}
	col, err := k.cols.ColumnFor(t.Status)
	if err != nil {
		return err
	}
	next, ok := k.cols.Neighbor(col, delta)
	if !ok {
		return nil
	}
	return k.b.SetStatus(ctx, id, next.Status)
}

func (k *Board) column(s domain.Status) []domain.Task {
	for _, c := range k.b.Buckets(board.Filter{}) {
		if c.Status == s {
			return c.Tasks
		}
	}
	return nil
}

// slotPosition picks a position for a task inserted at index into tasks, the
// column without the moved task.
func slotPosition(tasks []domain.Task, index int) int {
	if index < 0 {
		index = 0
	}
	if index > len(tasks) {
		index = len(tasks)
	}
	switch {
	case len(tasks) == 0:
		return 0
	case index == 0:
		return tasks[0].Position - 1
	case index == len(tasks):
		return tasks[index-1].Position + 1
	}
	prev, next := tasks[index-1].Position, tasks[index].Position
	if next-prev > 1 {
		return prev + (next-prev)/2
	}
	return prev + 1
}
