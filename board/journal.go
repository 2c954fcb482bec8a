package board

import "leadboard/domain"

// entry is one outstanding optimistic mutation. before is the task as it was
// just before the mutation was applied locally; index is where it sat in the
// task array; moved marks entries that relocated the task within the array.
type entry struct {
	seq        uint64
	op         string
	before     domain.Task
	index      int
	moved      bool
	superseded bool
}

// journal holds a task's outstanding mutations in issue order.
type journal []*entry

func (j journal) position(e *entry) int {
	for i, x := range j {
		if x == e {
			return i
		}
	}
	return -1
}

func (j journal) remove(e *entry) journal {
	i := j.position(e)
	if i < 0 {
		return j
	}
	return append(j[:i], j[i+1:]...)
}

// next returns the pending entry issued right after e, if any.
func (j journal) next(e *entry) *entry {
	i := j.position(e)
	if i < 0 || i+1 >= len(j) {
		return nil
	}
	return j[i+1]
}
