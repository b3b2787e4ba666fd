package memory

import (
	"context"

	"github.com/google/uuid"

	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/repository"
	"taskmgr/internal/errors"
)

var errDuplicateTaskID = errors.New("duplicate task id")

type taskRepository struct {
	store *Store
	inTx  bool
}

func (r *taskRepository) FindByID(_ context.Context, userID, id uuid.UUID) (*entity.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if i := r.indexOf(userID, id); i >= 0 {
		return cloneTask(r.store.tasks[i]), nil
	}

	return nil, repository.ErrTaskNotFound
}

func (r *taskRepository) Create(_ context.Context, task *entity.Task) error {
	return r.store.write(r.inTx, func() error {
		if !r.ownerExists(task.UserID) {
			return domainerrors.ErrUserNotFound.WrapMessage("task owner does not exist")
		}
		for _, t := range r.store.tasks {
			if t.ID == task.ID {
				return domainerrors.NewDatabaseExecuteError(errDuplicateTaskID, "failed to create task")
			}
		}
		r.store.tasks = append(r.store.tasks, cloneTask(task))

		return nil
	})
}

func (r *taskRepository) Update(_ context.Context, task *entity.Task) error {
	return r.store.write(r.inTx, func() error {
		i := r.indexOf(task.UserID, task.ID)
		if i < 0 {
			return repository.ErrTaskNotFound
		}

		updated := cloneTask(task)
		updated.CreatedAt = r.store.tasks[i].CreatedAt
		r.store.tasks[i] = updated

		return nil
	})
}

func (r *taskRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	return r.store.write(r.inTx, func() error {
		i := r.indexOf(userID, id)
		if i < 0 {
			return repository.ErrTaskNotFound
		}
		r.store.tasks = append(r.store.tasks[:i:i], r.store.tasks[i+1:]...)

		return nil
	})
}

// Query evaluates the query over the tasks in insertion order.
func (r *taskRepository) Query(_ context.Context, userID uuid.UUID, query entity.TaskQuery) ([]*entity.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	window := query.Apply(userID, r.store.tasks)
	result := make([]*entity.Task, len(window))
	for i, t := range window {
		result[i] = cloneTask(t)
	}

	return result, nil
}

// indexOf must be called with the data lock held.
func (r *taskRepository) indexOf(userID, id uuid.UUID) int {
	for i, t := range r.store.tasks {
		if t.ID == id && t.UserID == userID {
			return i
		}
	}

	return -1
}

func (r *taskRepository) ownerExists(userID uuid.UUID) bool {
	for _, u := range r.store.users {
		if u.ID == userID {
			return true
		}
	}

	return false
}
