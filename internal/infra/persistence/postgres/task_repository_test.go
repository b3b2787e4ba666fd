package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/repository"
)

var taskColumns = []string{"id", "user_id", "title", "description", "due_date", "status", "priority", "created_at", "updated_at"}

func TestTaskRepository_FindByID_ScopedByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	userID, taskID := uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE \(?id = \$1 AND user_id = \$2\)?`).
		WillReturnRows(sqlmock.NewRows(taskColumns).AddRow(taskID, userID, "Write report", "", nil, 1, 2, now, now))

	task, err := repo.FindByID(context.Background(), userID, taskID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, entity.TaskStatusInProgress, task.Status)
	assert.Equal(t, entity.TaskPriorityHigh, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "tasks"`).WillReturnRows(sqlmock.NewRows(taskColumns))

	_, err := repo.FindByID(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
}

func TestTaskRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	task := entity.NewTask(uuid.New(), "Buy milk", time.Now().UTC())
	mock.ExpectExec(`INSERT INTO "tasks"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Create_DatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	task := entity.NewTask(uuid.New(), "Buy milk", time.Now().UTC())
	mock.ExpectExec(`INSERT INTO "tasks"`).WillReturnError(errors.New("disk full"))

	err := repo.Create(context.Background(), task)

	var dbErr *domainerrors.DatabaseExecuteError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "failed to create task", dbErr.Details())
}

func TestTaskRepository_UpdateAndDelete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	task := entity.NewTask(uuid.New(), "Buy milk", time.Now().UTC())
	mock.ExpectExec(`UPDATE "tasks" SET .* WHERE \(?id = \$\d+ AND user_id = \$\d+\)?`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "tasks" WHERE \(?id = \$1 AND user_id = \$2\)?`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Update(context.Background(), task), repository.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), task.UserID, task.ID), repository.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectExec(`DELETE FROM "tasks"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), uuid.New(), uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Query_BuildsFilterOrderAndWindow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	userID := uuid.New()
	due := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	query := entity.TaskQuery{
		Filter: entity.TaskFilter{
			Status:   entity.Some(entity.TaskStatusPending),
			DueDate:  entity.Some(due),
			Priority: entity.Some(entity.TaskPriorityHigh),
		},
		Sort: entity.TaskSort{Key: entity.SortDueDate, Descending: true},
		Page: entity.Page{Number: 2, Size: 5},
	}

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE user_id = \$1 AND status = \$2 AND priority = \$3 AND \(due_date >= \$4 AND due_date < \$5\) ` +
		regexp.QuoteMeta(`ORDER BY due_date DESC NULLS LAST,created_at ASC,id ASC`)).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(uuid.New(), userID, "a", "", due, 0, 2, due, due))

	tasks, err := repo.Query(context.Background(), userID, query)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Query_NoSortUsesCreationOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE user_id = \$1 ` + regexp.QuoteMeta(`ORDER BY created_at ASC,id ASC LIMIT`)).
		WillReturnRows(sqlmock.NewRows(taskColumns))

	tasks, err := repo.Query(context.Background(), uuid.New(), entity.TaskQuery{Page: entity.Page{Number: 1, Size: 10}})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}
