package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownColumn  = errors.New("unknown board column")
	ErrInvalidColumns = errors.New("invalid column table")
	ErrUnmappedStatus = errors.New("status has no column")
)

// ColumnBinding ties a board column id to the status it represents.
type ColumnBinding struct {
	ID     string `json:"id" yaml:"id" mapstructure:"id"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Status Status `json:"status" yaml:"status" mapstructure:"status"`
}

// Columns is the single place where column ids and statuses are converted
// into each other.
type Columns struct {
	order    []ColumnBinding
	byID     map[string]int
	byStatus map[Status]int
}

// NewColumns validates the bindings: ids non-empty and unique, statuses valid
// and unique. Statuses without a binding are allowed; tasks in them simply
// have no column to render in.
func NewColumns(bindings ...ColumnBinding) (Columns, error) {
	if len(bindings) == 0 {
		return Columns{}, fmt.Errorf("%w: no columns", ErrInvalidColumns)
	}
	c := Columns{
		order:    make([]ColumnBinding, 0, len(bindings)),
		byID:     make(map[string]int, len(bindings)),
		byStatus: make(map[Status]int, len(bindings)),
	}
	for _, b := range bindings {
		if b.ID == "" {
			return Columns{}, fmt.Errorf("%w: empty column id", ErrInvalidColumns)
		}
		if !b.Status.Valid() {
			return Columns{}, fmt.Errorf("%w: column %q: %w", ErrInvalidColumns, b.ID, ErrInvalidStatus)
		}
		if _, dup := c.byID[b.ID]; dup {
			return Columns{}, fmt.Errorf("%w: duplicate column id %q", ErrInvalidColumns, b.ID)
		}
		if _, dup := c.byStatus[b.Status]; dup {
			return Columns{}, fmt.Errorf("%w: status %q bound twice", ErrInvalidColumns, b.Status)
		}
		if b.Title == "" {
			b.Title = b.ID
		}
		c.byID[b.ID] = len(c.order)
		c.byStatus[b.Status] = len(c.order)
		c.order = append(c.order, b)
	}
	return c, nil
}

// DefaultColumns binds every status to a column id equal to the status
// string, in status order.
func DefaultColumns() Columns {
	bindings := make([]ColumnBinding, len(Statuses))
	for i, s := range Statuses {
		bindings[i] = ColumnBinding{ID: string(s), Status: s}
	}
	c, err := NewColumns(bindings...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Columns) StatusFor(columnID string) (Status, error) {
	i, ok := c.byID[columnID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, columnID)
	}
	return c.order[i].Status, nil
}

func (c Columns) ColumnFor(s Status) (string, error) {
	i, ok := c.byStatus[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnmappedStatus, s)
	}
	return c.order[i].ID, nil
}

// Order returns a copy of the bindings in display order.
func (c Columns) Order() []ColumnBinding {
	return append([]ColumnBinding(nil), c.order...)
}

// Neighbor returns the column delta steps away from columnID in display
// order. ok is false when columnID is unknown or the step leaves the board.
func (c Columns) Neighbor(columnID string, delta int) (ColumnBinding, bool) {
	i, known := c.byID[columnID]
	if !known {
		return ColumnBinding{}, false
	}
	j := i + delta
	if j < 0 || j >= len(c.order) {
		return ColumnBinding{}, false
	}
	return c.order[j], true
}
