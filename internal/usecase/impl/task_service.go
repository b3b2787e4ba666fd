package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"taskmgr/config"
	deliverycontext "taskmgr/internal/delivery/context"
	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/repository"
	"taskmgr/internal/usecase"
)

// taskService implements the TaskUsecase interface.
type taskService struct {
	txManager   repository.TransactionManager
	taskRepo    repository.TaskRepository
	maxPageSize int
	now         func() time.Time
	logger      *slog.Logger
}

// TaskServiceParams holds dependencies for TaskService, injected by Fx.
type TaskServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	TaskRepo  repository.TaskRepository
	Config    *config.Config
	Logger    *slog.Logger
}

// NewTaskService is the constructor for taskService.
func NewTaskService(params TaskServiceParams) usecase.TaskUsecase {
	return &taskService{
		txManager:   params.TxManager,
		taskRepo:    params.TaskRepo,
		maxPageSize: params.Config.Tasks.MaxPageSize,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      params.Logger,
	}
}

func (srv *taskService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListTasks returns one page of the user's tasks. Out-of-range pagination is
// rejected rather than coerced.
func (srv *taskService) ListTasks(ctx context.Context, userID uuid.UUID, input *usecase.ListTasksInput) (*usecase.ListTasksOutput, error) {
	page := entity.Page{Number: input.PageNumber, Size: input.PageSize}
	if err := page.Validate(srv.maxPageSize); err != nil {
		return nil, domainerrors.ErrInvalidPagination.WithDetails(err.Error())
	}

	query := entity.TaskQuery{
		Filter: entity.TaskFilter{
			Status:   input.Status,
			DueDate:  input.DueDate,
			Priority: input.Priority,
		},
		Sort: entity.TaskSort{Key: entity.ParseSortKey(input.SortBy), Descending: input.Descending},
		Page: page,
	}

	tasks, err := srv.taskRepo.Query(ctx, userID, query)
	if err != nil {
		srv.log(ctx).Error("Failed to query tasks", slog.Any("userID", userID), slog.Any("error", err))

		return nil, asDatabaseError(err, "failed to query tasks")
	}

	// A store must never leak another user's rows; drop any that slip through.
	owned := make([]*entity.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.UserID != userID {
			srv.log(ctx).Warn("Dropped task owned by another user", slog.Any("userID", userID), slog.Any("taskID", t.ID))

			continue
		}
		owned = append(owned, t)
	}

	return &usecase.ListTasksOutput{Tasks: owned, PageNumber: page.Number, PageSize: page.Size}, nil
}

func (srv *taskService) CreateTask(ctx context.Context, userID uuid.UUID, input *usecase.CreateTaskInput) (*entity.Task, error) {
	task := entity.NewTask(userID, strings.TrimSpace(input.Title), srv.now())
	task.Description = input.Description
	task.DueDate = normalizeDueDate(input.DueDate)
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}

	if err := task.Validate(); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	if err := srv.taskRepo.Create(ctx, task); err != nil {
		srv.log(ctx).Error("Failed to create task", slog.Any("userID", userID), slog.Any("error", err))

		return nil, asDatabaseError(err, "failed to create task")
	}

	srv.log(ctx).Debug("Task created", slog.Any("userID", userID), slog.Any("taskID", task.ID))

	return task, nil
}

func (srv *taskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*entity.Task, error) {
	task, err := srv.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, mapTaskLookupError(err)
	}

	return task, nil
}

// UpdateTask replaces the editable fields inside a transaction so the read and
// the write see the same row.
func (srv *taskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input *usecase.UpdateTaskInput) (*entity.Task, error) {
	var updated *entity.Task

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		taskRepo := repoFactory.TaskRepo()

		task, err := taskRepo.FindByID(ctx, userID, taskID)
		if err != nil {
			return mapTaskLookupError(err)
		}

		task.Title = strings.TrimSpace(input.Title)
		task.Description = input.Description
		task.DueDate = normalizeDueDate(input.DueDate)
		if input.Status != nil {
			task.Status = *input.Status
		}
		if input.Priority != nil {
			task.Priority = *input.Priority
		}
		if err := task.Validate(); err != nil {
			return domainerrors.ErrValidationFailed.WithDetails(err.Error())
		}
		task.Touch(srv.now())

		if err := taskRepo.Update(ctx, task); err != nil {
			return mapTaskLookupError(err)
		}
		updated = task

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to update task", slog.Any("userID", userID), slog.Any("taskID", taskID), slog.Any("error", err))

		return nil, err
	}

	return updated, nil
}

func (srv *taskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := srv.taskRepo.Delete(ctx, userID, taskID); err != nil {
		return mapTaskLookupError(err)
	}

	srv.log(ctx).Debug("Task deleted", slog.Any("userID", userID), slog.Any("taskID", taskID))

	return nil
}

// Due dates are stored in UTC.
func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	utc := due.UTC()

	return &utc
}

// mapTaskLookupError hides whether a task is missing or owned by someone else.
func mapTaskLookupError(err error) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return domainerrors.ErrTaskNotFound
	}

	return asDatabaseError(err, "task store failure")
}
