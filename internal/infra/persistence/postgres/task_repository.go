package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/repository"
	"taskmgr/internal/infra/persistence/model"
)

// taskRepository implements the repository.TaskRepository interface using GORM.
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository is the constructor for taskRepository.
func NewTaskRepository(db *gorm.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*entity.Task, error) {
	var taskM model.TaskModel
	if err := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&taskM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrTaskNotFound
		}

		return nil, errors.Wrap(err, "failed to find task by id")
	}

	return toTaskDomain(&taskM), nil
}

func (repo *taskRepository) Create(ctx context.Context, task *entity.Task) error {
	if err := repo.db.WithContext(ctx).Create(fromTaskDomain(task)).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("task owner does not exist")
		}
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("task rejected by check constraint")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create task")
	}

	return nil
}

func (repo *taskRepository) Update(ctx context.Context, task *entity.Task) error {
	result := repo.db.WithContext(ctx).
		Model(&model.TaskModel{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
			"due_date":    task.DueDate,
			"status":      int16(task.Status),
			"priority":    int16(task.Priority),
			"updated_at":  task.UpdatedAt,
		})
	if result.Error != nil {
		if isCheckConstraintViolation(result.Error) {
			return domainerrors.ErrValidationFailed.WrapMessage("task rejected by check constraint")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update task")
	}
	if result.RowsAffected == 0 {
		return repository.ErrTaskNotFound
	}

	return nil
}

func (repo *taskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.TaskModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete task")
	}
	if result.RowsAffected == 0 {
		return repository.ErrTaskNotFound
	}

	return nil
}

// Query pushes filter, order and window down to SQL. Rows missing a due date sort
// last and equal keys fall back to creation order.
func (repo *taskRepository) Query(ctx context.Context, userID uuid.UUID, q entity.TaskQuery) ([]*entity.Task, error) {
	db := repo.db.WithContext(ctx).Where("user_id = ?", userID)

	if status, ok := q.Filter.Status.Get(); ok {
		db = db.Where("status = ?", int16(status))
	}
	if priority, ok := q.Filter.Priority.Get(); ok {
		db = db.Where("priority = ?", int16(priority))
	}
	if day, ok := q.Filter.DueDate.Get(); ok {
		start, end := entity.DayBounds(day)
		db = db.Where("due_date >= ? AND due_date < ?", start, end)
	}

	direction := "ASC"
	if q.Sort.Descending {
		direction = "DESC"
	}
	switch q.Sort.Key {
	case entity.SortDueDate:
		db = db.Order("due_date " + direction + " NULLS LAST")
	case entity.SortPriority:
		db = db.Order("priority " + direction)
	case entity.SortNone:
	}
	db = db.Order("created_at ASC").Order("id ASC")

	var taskModels []*model.TaskModel
	if err := db.Offset(q.Page.Offset()).Limit(q.Page.Size).Find(&taskModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query tasks")
	}

	tasks := make([]*entity.Task, 0, len(taskModels))
	for _, taskM := range taskModels {
		tasks = append(tasks, toTaskDomain(taskM))
	}

	return tasks, nil
}

func toTaskDomain(taskM *model.TaskModel) *entity.Task {
	return &entity.Task{
		ID:          taskM.ID,
		UserID:      taskM.UserID,
		Title:       taskM.Title,
		Description: taskM.Description,
		DueDate:     taskM.DueDate,
		Status:      entity.TaskStatus(taskM.Status),
		Priority:    entity.TaskPriority(taskM.Priority),
		CreatedAt:   taskM.CreatedAt,
		UpdatedAt:   taskM.UpdatedAt,
	}
}

func fromTaskDomain(task *entity.Task) *model.TaskModel {
	return &model.TaskModel{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Status:      int16(task.Status),
		Priority:    int16(task.Priority),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
