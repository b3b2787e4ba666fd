package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain/entity"
)

// CreateTaskInput defines a new task. Nil status or priority take the defaults.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Status      *entity.TaskStatus
	Priority    *entity.TaskPriority
}

// UpdateTaskInput replaces a task's editable fields. A nil DueDate clears the due
// date; nil status or priority keep the current value.
type UpdateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Status      *entity.TaskStatus
	Priority    *entity.TaskPriority
}

// ListTasksInput is a listing request. SortBy is matched case-insensitively and
// unknown names leave the store order in place.
type ListTasksInput struct {
	Status     entity.Optional[entity.TaskStatus]
	DueDate    entity.Optional[time.Time]
	Priority   entity.Optional[entity.TaskPriority]
	SortBy     string
	Descending bool
	PageNumber int
	PageSize   int
}

// ListTasksOutput is one page of tasks.
type ListTasksOutput struct {
	Tasks      []*entity.Task
	PageNumber int
	PageSize   int
}

// TaskUsecase defines task operations. Every call is scoped to the given user;
// tasks of other users behave as if they did not exist.
type TaskUsecase interface {
	ListTasks(ctx context.Context, userID uuid.UUID, input *ListTasksInput) (*ListTasksOutput, error)
	CreateTask(ctx context.Context, userID uuid.UUID, input *CreateTaskInput) (*entity.Task, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*entity.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input *UpdateTaskInput) (*entity.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
}
