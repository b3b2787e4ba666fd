package entity

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"taskmgr/internal/errors"
)

// MaxTaskTitleLength is the maximum number of runes in a task title.
const MaxTaskTitleLength = 100

// TaskStatus is the lifecycle state of a task.
type TaskStatus int

const (
	// TaskStatusPending is the default status of a new task.
	TaskStatusPending TaskStatus = iota
	// TaskStatusInProgress marks a task being worked on.
	TaskStatusInProgress
	// TaskStatusCompleted marks a finished task.
	TaskStatusCompleted
)

var taskStatusNames = map[TaskStatus]string{
	TaskStatusPending:    "pending",
	TaskStatusInProgress: "in_progress",
	TaskStatusCompleted:  "completed",
}

// String returns the wire name of the status.
func (s TaskStatus) String() string {
	if name, ok := taskStatusNames[s]; ok {
		return name
	}

	return "unknown"
}

// IsValid checks if the status is one of the enumerated values.
func (s TaskStatus) IsValid() bool {
	_, ok := taskStatusNames[s]

	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (s TaskStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, errors.Errorf("invalid task status %d", int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TaskStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseTaskStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}

// ParseTaskStatus accepts the wire name (case and separator insensitive) or the numeric value.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	key := normalizeEnumToken(raw)
	for status, name := range taskStatusNames {
		if normalizeEnumToken(name) == key {
			return status, nil
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && TaskStatus(n).IsValid() {
		return TaskStatus(n), nil
	}

	return 0, errors.Errorf("unknown task status %q", raw)
}

// TaskPriority ranks tasks. Values are ordered: Low < Medium < High.
type TaskPriority int

const (
	// TaskPriorityLow is the lowest priority.
	TaskPriorityLow TaskPriority = iota
	// TaskPriorityMedium is the default priority of a new task.
	TaskPriorityMedium
	// TaskPriorityHigh is the highest priority.
	TaskPriorityHigh
)

var taskPriorityNames = map[TaskPriority]string{
	TaskPriorityLow:    "low",
	TaskPriorityMedium: "medium",
	TaskPriorityHigh:   "high",
}

// String returns the wire name of the priority.
func (p TaskPriority) String() string {
	if name, ok := taskPriorityNames[p]; ok {
		return name
	}

	return "unknown"
}

// IsValid checks if the priority is one of the enumerated values.
func (p TaskPriority) IsValid() bool {
	_, ok := taskPriorityNames[p]

	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (p TaskPriority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, errors.Errorf("invalid task priority %d", int(p))
	}

	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *TaskPriority) UnmarshalText(text []byte) error {
	parsed, err := ParseTaskPriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed

	return nil
}

// ParseTaskPriority accepts the wire name (case insensitive) or the numeric value.
func ParseTaskPriority(raw string) (TaskPriority, error) {
	key := normalizeEnumToken(raw)
	for priority, name := range taskPriorityNames {
		if name == key {
			return priority, nil
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && TaskPriority(n).IsValid() {
		return TaskPriority(n), nil
	}

	return 0, errors.Errorf("unknown task priority %q", raw)
}

func normalizeEnumToken(raw string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")

	return replacer.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

// Task is a to-do item. It always belongs to exactly one user.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"userId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewTask builds a task owned by userID with default status and priority.
func NewTask(userID uuid.UUID, title string, now time.Time) *Task {
	return &Task{
		ID:        NewID(),
		UserID:    userID,
		Title:     title,
		Status:    TaskStatusPending,
		Priority:  TaskPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the task's own invariants.
func (t *Task) Validate() error {
	if t.UserID == uuid.Nil {
		return errors.New("task must belong to a user")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(t.Title) > MaxTaskTitleLength {
		return errors.Errorf("title must be at most %d characters", MaxTaskTitleLength)
	}
	if !t.Status.IsValid() {
		return errors.Errorf("invalid status %d", int(t.Status))
	}
	if !t.Priority.IsValid() {
		return errors.Errorf("invalid priority %d", int(t.Priority))
	}

	return nil
}

// Touch refreshes UpdatedAt after a mutation.
func (t *Task) Touch(now time.Time) {
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = now
}
