package board

import (
	"sort"
	"strings"

	"leadboard/domain"
)

// Filter selects tasks for the list and board views. Zero-valued fields are
// inactive; active predicates are ANDed.
type Filter struct {
	Search     string
	Status     domain.Status
	Priority   domain.Priority
	Type       domain.TaskType
	AssigneeID string
}

// Match reports whether t passes every active predicate. Search is a
// case-insensitive substring match on title or description.
func (f Filter) Match(t domain.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.AssigneeID != "" && t.AssigneeID() != f.AssigneeID {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// Bucket is the tasks of one status, in render order.
type Bucket struct {
	Status domain.Status
	Tasks  []domain.Task
}

func apply(tasks []domain.Task, f Filter) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func bucketize(tasks []domain.Task, byPosition bool) []Bucket {
	idx := make(map[domain.Status]int, len(domain.Statuses))
	buckets := make([]Bucket, len(domain.Statuses))
	for i, s := range domain.Statuses {
		idx[s] = i
		buckets[i] = Bucket{Status: s, Tasks: []domain.Task{}}
	}
	for _, t := range tasks {
		i, ok := idx[t.Status]
		if !ok {
			continue
		}
		buckets[i].Tasks = append(buckets[i].Tasks, t)
	}
	if byPosition {
		for i := range buckets {
			ts := buckets[i].Tasks
			sort.SliceStable(ts, func(a, b int) bool { return ts[a].Position < ts[b].Position })
		}
	}
	return buckets
}
