package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"taskmgr/config"
	"taskmgr/internal/delivery/api/response"
	"taskmgr/internal/domain/entity"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/usecase"
)

// dueDateLayout is accepted by the dueDate query parameter besides RFC 3339.
const dueDateLayout = time.DateOnly

type taskRequest struct {
	Title       string               `json:"title" validate:"required"`
	Description string               `json:"description"`
	DueDate     *time.Time           `json:"dueDate"`
	Status      *entity.TaskStatus   `json:"status"`
	Priority    *entity.TaskPriority `json:"priority"`
}

type taskListResponse struct {
	Tasks      []*entity.Task `json:"tasks"`
	PageNumber int            `json:"pageNumber"`
	PageSize   int            `json:"pageSize"`
}

// TaskHandler serves the caller's tasks.
type TaskHandler struct {
	uc              usecase.TaskUsecase
	defaultPageSize int
	logger          *slog.Logger
}

// NewTaskHandler is the constructor for TaskHandler, injected by Fx.
func NewTaskHandler(uc usecase.TaskUsecase, cfg *config.Config, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		uc:              uc,
		defaultPageSize: cfg.Tasks.DefaultPageSize,
		logger:          logger,
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req taskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.uc.CreateTask(c.Request().Context(), userID, &usecase.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	c.Response().Header().Set(echo.HeaderLocation, "/tasks/"+task.ID.String())

	return response.Success(c, http.StatusCreated, task, "Task created successfully")
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	input, err := h.parseListInput(c)
	if err != nil {
		return err
	}

	output, err := h.uc.ListTasks(c.Request().Context(), userID, input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, taskListResponse{
		Tasks:      output.Tasks,
		PageNumber: output.PageNumber,
		PageSize:   output.PageSize,
	}, "")
}

// GetTask handles GET /tasks/:id.
func (h *TaskHandler) GetTask(c echo.Context) error {
	userID, taskID, err := taskScope(c)
	if err != nil {
		return err
	}

	task, err := h.uc.GetTask(c.Request().Context(), userID, taskID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, task, "")
}

// UpdateTask handles PUT /tasks/:id.
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, taskID, err := taskScope(c)
	if err != nil {
		return err
	}

	var req taskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.uc.UpdateTask(c.Request().Context(), userID, taskID, &usecase.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, task, "Task updated successfully")
}

// DeleteTask handles DELETE /tasks/:id.
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, taskID, err := taskScope(c)
	if err != nil {
		return err
	}

	if err := h.uc.DeleteTask(c.Request().Context(), userID, taskID); err != nil {
		return errors.WithStack(err)
	}

	return response.NoContent(c)
}

func (h *TaskHandler) parseListInput(c echo.Context) (*usecase.ListTasksInput, error) {
	input := &usecase.ListTasksInput{
		SortBy:     c.QueryParam("sortBy"),
		PageNumber: 1,
		PageSize:   h.defaultPageSize,
	}

	err := echo.QueryParamsBinder(c).
		Bool("descending", &input.Descending).
		Int("pageNumber", &input.PageNumber).
		Int("pageSize", &input.PageSize).
		BindError()
	if err != nil {
		return nil, domainerrors.ErrInvalidPagination.WithDetails("pageNumber, pageSize and descending must be well-formed")
	}

	if raw := c.QueryParam("status"); raw != "" {
		status, err := entity.ParseTaskStatus(raw)
		if err != nil {
			return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
		}
		input.Status = entity.Some(status)
	}

	if raw := c.QueryParam("priority"); raw != "" {
		priority, err := entity.ParseTaskPriority(raw)
		if err != nil {
			return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
		}
		input.Priority = entity.Some(priority)
	}

	if raw := strings.TrimSpace(c.QueryParam("dueDate")); raw != "" {
		due, err := parseDueDate(raw)
		if err != nil {
			return nil, domainerrors.ErrValidationFailed.WithDetails("dueDate must be YYYY-MM-DD or RFC 3339")
		}
		input.DueDate = entity.Some(due)
	}

	return input, nil
}

func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dueDateLayout, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, raw)

	return t, errors.WithStack(err)
}

func taskScope(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// A malformed ID cannot name any task the caller owns.
		return uuid.Nil, uuid.Nil, domainerrors.ErrTaskNotFound
	}

	return userID, taskID, nil
}
