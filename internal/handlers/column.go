package handlers

import (
	"net/http"

	"taskboard-be/internal/models"
	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
)

// ColumnHandler handles column endpoints
type ColumnHandler struct {
	boards *services.BoardService
}

// NewColumnHandler creates a new handler
func NewColumnHandler(boards *services.BoardService) *ColumnHandler {
	return &ColumnHandler{boards: boards}
}

// ListColumns godoc
// @Summary List board columns
// @Tags columns
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {array} models.Column
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{id}/columns [get]
func (h *ColumnHandler) ListColumns(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	columns, err := h.boards.ListColumns(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusOK, list(columns), err)
}

// CreateColumn godoc
// @Summary Create a column
// @Description The column is appended after the board's last column
// @Tags columns
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateColumnRequest true "Column data"
// @Success 201 {object} models.Column
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /columns [post]
func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.CreateColumnRequest
	if !bindJSON(c, &req) {
		return
	}
	isDone := req.IsDone != nil && *req.IsDone
	column, err := h.boards.CreateColumn(c.Request.Context(), actor, req.BoardID, req.Title, isDone)
	respond(c, http.StatusCreated, column, err)
}

// UpdateColumn godoc
// @Summary Update a column
// @Description Rename, reposition or toggle the done marker
// @Tags columns
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Column ID"
// @Param payload body models.UpdateColumnRequest true "Changes"
// @Success 200 {object} models.Column
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /columns/{id} [patch]
func (h *ColumnHandler) UpdateColumn(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.UpdateColumnRequest
	if !bindJSON(c, &req) {
		return
	}
	column, err := h.boards.UpdateColumn(c.Request.Context(), actor, c.Param("id"), services.ColumnUpdate{
		Title:    req.Title,
		Position: roundPosition(req.Position),
		IsDone:   req.IsDone,
	})
	respond(c, http.StatusOK, column, err)
}

// MoveColumn godoc
// @Summary Move a column
// @Tags columns
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Column ID"
// @Param payload body models.MoveColumnRequest true "Target position"
// @Success 200 {array} models.Column
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /columns/{id}/move [patch]
func (h *ColumnHandler) MoveColumn(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.MoveColumnRequest
	if !bindJSON(c, &req) {
		return
	}
	columns, err := h.boards.MoveColumn(c.Request.Context(), actor, c.Param("id"), *roundPosition(req.Position))
	respond(c, http.StatusOK, list(columns), err)
}

// DeleteColumn godoc
// @Summary Delete a column with its tasks
// @Tags columns
// @Security ApiKeyAuth
// @Param id path string true "Column ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /columns/{id} [delete]
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	err := h.boards.DeleteColumn(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusNoContent, nil, err)
}
