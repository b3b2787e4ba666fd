package entity

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/errors"
)

// SortKey names the field a task listing is ordered by.
type SortKey int

const (
	// SortNone imposes no ordering beyond the store's insertion order.
	SortNone SortKey = iota
	// SortDueDate orders by due date. Tasks without a due date always come last.
	SortDueDate
	// SortPriority orders by priority rank.
	SortPriority
)

// ParseSortKey maps a user supplied name to a SortKey, case-insensitively.
// Unrecognized or empty names fall back to SortNone instead of failing.
func ParseSortKey(raw string) SortKey {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "duedate":
		return SortDueDate
	case "priority":
		return SortPriority
	default:
		return SortNone
	}
}

// String returns the canonical name of the key.
func (k SortKey) String() string {
	switch k {
	case SortDueDate:
		return "duedate"
	case SortPriority:
		return "priority"
	default:
		return "none"
	}
}

// TaskSort is a sort rule.
type TaskSort struct {
	Key        SortKey
	Descending bool
}

// TaskFilter holds the optional equality predicates. Present predicates are ANDed.
type TaskFilter struct {
	Status   Optional[TaskStatus]
	DueDate  Optional[time.Time] // Matches tasks due on the same UTC calendar day.
	Priority Optional[TaskPriority]
}

// Matches reports whether the task satisfies every present predicate.
func (f TaskFilter) Matches(t *Task) bool {
	if status, ok := f.Status.Get(); ok && t.Status != status {
		return false
	}
	if priority, ok := f.Priority.Get(); ok && t.Priority != priority {
		return false
	}
	if day, ok := f.DueDate.Get(); ok {
		if t.DueDate == nil {
			return false
		}
		start, end := DayBounds(day)
		due := t.DueDate.UTC()
		if due.Before(start) || !due.Before(end) {
			return false
		}
	}

	return true
}

// DayBounds returns the half-open UTC interval [start, end) of the calendar day containing t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	return start, start.AddDate(0, 0, 1)
}

// Page is a 1-indexed pagination window.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of tasks skipped before the window.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Validate rejects non-positive numbers, sizes above maxSize (when maxSize > 0)
// and windows whose offset does not fit in an int.
func (p Page) Validate(maxSize int) error {
	if p.Number < 1 {
		return errors.Errorf("page number must be at least 1, got %d", p.Number)
	}
	if p.Size < 1 {
		return errors.Errorf("page size must be at least 1, got %d", p.Size)
	}
	if maxSize > 0 && p.Size > maxSize {
		return errors.Errorf("page size must be at most %d, got %d", maxSize, p.Size)
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return errors.Errorf("page number %d is out of range for page size %d", p.Number, p.Size)
	}

	return nil
}

// TaskQuery is a complete listing request: filter, sort rule and page window.
type TaskQuery struct {
	Filter TaskFilter
	Sort   TaskSort
	Page   Page
}

// Compare orders two tasks by the sort rule. It returns 0 for ties, which callers
// must resolve by insertion order.
func (s TaskSort) Compare(a, b *Task) int {
	var c int
	switch s.Key {
	case SortDueDate:
		// Missing due dates sort last regardless of direction.
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		c = a.DueDate.Compare(*b.DueDate)
	case SortPriority:
		c = int(a.Priority) - int(b.Priority)
	default:
		return 0
	}
	if s.Descending {
		return -c
	}

	return c
}

// Apply evaluates the query over tasks held in insertion order. Only tasks owned
// by userID are considered. The input slice is not modified.
func (q TaskQuery) Apply(userID uuid.UUID, tasks []*Task) []*Task {
	matched := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.UserID != userID || !q.Filter.Matches(t) {
			continue
		}
		matched = append(matched, t)
	}

	if q.Sort.Key != SortNone {
		slices.SortStableFunc(matched, q.Sort.Compare)
	}

	if q.Page.Validate(0) != nil {
		return []*Task{}
	}
	offset := q.Page.Offset()
	if offset >= len(matched) {
		return []*Task{}
	}
	end := min(offset+q.Page.Size, len(matched))

	return matched[offset:end]
}
