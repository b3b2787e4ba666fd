package repository

import (
	"context"
	"errors"

	"taskmgr/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned when no task with the given ID belongs to the given user.
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository defines task persistence. Every read and delete is keyed by the
// owner as well as the task ID.
type TaskRepository interface {
	// FindByID retrieves the task with id owned by userID.
	FindByID(ctx context.Context, userID, id uuid.UUID) (*entity.Task, error)

	// Create persists a new task.
	Create(ctx context.Context, task *entity.Task) error

	// Update replaces the stored fields of a task owned by task.UserID.
	Update(ctx context.Context, task *entity.Task) error

	// Delete removes the task with id owned by userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// Query filters, orders and windows the tasks owned by userID.
	// Ties are resolved by insertion order.
	Query(ctx context.Context, userID uuid.UUID, query entity.TaskQuery) ([]*entity.Task, error)
}
