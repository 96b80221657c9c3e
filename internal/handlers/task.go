package handlers

import (
	"net/http"

	"taskboard-be/internal/models"
	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles task endpoints, including the legacy ticket alias
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new handler
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// ListTasks godoc
// @Summary List board tasks
// @Description Tasks sorted by column then position. q fuzzy matches titles and ranks by match.
// @Tags tasks
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Board ID"
// @Param columnId query string false "Only tasks of this column"
// @Param q query string false "Title search"
// @Success 200 {array} models.Task
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{id}/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	tasks, err := h.tasks.ListTasks(c.Request.Context(), actor, c.Param("id"), services.TaskQuery{
		ColumnID: c.Query("columnId"),
		Q:        c.Query("q"),
	})
	respond(c, http.StatusOK, list(tasks), err)
}

// CreateTask godoc
// @Summary Create a task
// @Description The task is appended at the end of its column
// @Tags tasks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param payload body models.CreateTaskRequest true "Task data"
// @Success 201 {object} models.Task
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse "AUDIT_WRITE_FAILED carries the created task"
// @Router /boards/{id}/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.CreateTask(c.Request.Context(), actor, c.Param("id"), services.TaskInput{
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate.Value,
	})
	respond(c, http.StatusCreated, task, err)
}

// GetTask godoc
// @Summary Get a task
// @Tags tasks
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	h.get(c, services.CodeTaskNotFound)
}

// GetTicket godoc
// @Summary Get a ticket
// @Description Alias of GET /tasks/{id} for older clients
// @Tags tasks
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} models.Task
// @Failure 404 {object} models.ErrorResponse
// @Router /tickets/{id} [get]
func (h *TaskHandler) GetTicket(c *gin.Context) {
	h.get(c, services.CodeTicketNotFound)
}

func (h *TaskHandler) get(c *gin.Context, notFoundCode string) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), actor, c.Param("id"), notFoundCode)
	respond(c, http.StatusOK, task, err)
}

// UpdateTask godoc
// @Summary Edit a task
// @Description Title is required. Absent fields are kept; null clears them.
// @Tags tasks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body models.UpdateTaskRequest true "Changes"
// @Success 200 {object} models.Task
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.UpdateTask(c.Request.Context(), actor, c.Param("id"), services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	respond(c, http.StatusOK, task, err)
}

// MoveTask godoc
// @Summary Move a task
// @Description Reorders within the column, or moves to another column of the same board
// @Tags tasks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body models.MoveTaskRequest true "Target"
// @Success 200 {object} models.Task
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /tasks/{id}/move [patch]
func (h *TaskHandler) MoveTask(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.MoveTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.MoveTask(c.Request.Context(), actor, c.Param("id"), services.TaskMove{
		ColumnID: req.ColumnID,
		Position: roundPosition(req.Position),
	})
	respond(c, http.StatusOK, task, err)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Security ApiKeyAuth
// @Param id path string true "Task ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	err := h.tasks.DeleteTask(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusNoContent, nil, err)
}
