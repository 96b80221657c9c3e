package handlers

import (
	"net/http"

	"taskboard-be/internal/models"
	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
)

// BoardHandler handles board, label and membership endpoints
type BoardHandler struct {
	boards *services.BoardService
}

// NewBoardHandler creates a new handler
func NewBoardHandler(boards *services.BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

// ListBoards godoc
// @Summary List boards
// @Description Boards the current user owns or is a member of, with task stats
// @Tags boards
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.BoardSummary
// @Failure 503 {object} models.ErrorResponse
// @Router /boards [get]
func (h *BoardHandler) ListBoards(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	boards, err := h.boards.ListBoards(c.Request.Context(), actor)
	respond(c, http.StatusOK, list(boards), err)
}

// CreateBoard godoc
// @Summary Create a board
// @Tags boards
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateBoardRequest true "Board data"
// @Success 201 {object} models.Board
// @Failure 400 {object} models.ErrorResponse
// @Router /boards [post]
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.CreateBoardRequest
	if !bindJSON(c, &req) {
		return
	}
	board, err := h.boards.CreateBoard(c.Request.Context(), actor, req.Name)
	respond(c, http.StatusCreated, board, err)
}

// GetBoard godoc
// @Summary Get a board
// @Tags boards
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} models.Board
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{id} [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	board, err := h.boards.GetBoard(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusOK, board, err)
}

// UpdateBoard godoc
// @Summary Rename a board
// @Tags boards
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param payload body models.UpdateBoardRequest true "New name"
// @Success 200 {object} models.Board
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{id} [patch]
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.UpdateBoardRequest
	if !bindJSON(c, &req) {
		return
	}
	board, err := h.boards.RenameBoard(c.Request.Context(), actor, c.Param("id"), req.Name)
	respond(c, http.StatusOK, board, err)
}

// DeleteBoard godoc
// @Summary Delete a board with its tasks and invites
// @Tags boards
// @Security ApiKeyAuth
// @Param id path string true "Board ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{id} [delete]
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	err := h.boards.DeleteBoard(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusNoContent, nil, err)
}

// Renormalize godoc
// @Summary Repair column and task positions
// @Description Reassigns dense 1..N positions to columns and to the tasks of every column
// @Tags boards
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} services.RepairReport
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /boards/{id}/renormalize [post]
func (h *BoardHandler) Renormalize(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	report, err := h.boards.Renormalize(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusOK, report, err)
}

// ListLabels godoc
// @Summary List board labels
// @Tags labels
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {array} models.Label
// @Router /boards/{id}/labels [get]
func (h *BoardHandler) ListLabels(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	labels, err := h.boards.ListLabels(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusOK, list(labels), err)
}

// CreateLabel godoc
// @Summary Create a label
// @Tags labels
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param payload body models.LabelRequest true "Label data"
// @Success 201 {object} models.Label
// @Router /boards/{id}/labels [post]
func (h *BoardHandler) CreateLabel(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.LabelRequest
	if !bindJSON(c, &req) {
		return
	}
	label, err := h.boards.CreateLabel(c.Request.Context(), actor, c.Param("id"), req.Name)
	respond(c, http.StatusCreated, label, err)
}

// RenameLabel godoc
// @Summary Rename a label
// @Tags labels
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param labelId path string true "Label ID"
// @Param payload body models.LabelRequest true "Label data"
// @Success 200 {object} models.Label
// @Router /boards/{id}/labels/{labelId} [patch]
func (h *BoardHandler) RenameLabel(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.LabelRequest
	if !bindJSON(c, &req) {
		return
	}
	label, err := h.boards.RenameLabel(c.Request.Context(), actor, c.Param("id"), c.Param("labelId"), req.Name)
	respond(c, http.StatusOK, label, err)
}

// DeleteLabel godoc
// @Summary Delete a label
// @Tags labels
// @Security ApiKeyAuth
// @Param id path string true "Board ID"
// @Param labelId path string true "Label ID"
// @Success 204
// @Router /boards/{id}/labels/{labelId} [delete]
func (h *BoardHandler) DeleteLabel(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	err := h.boards.DeleteLabel(c.Request.Context(), actor, c.Param("id"), c.Param("labelId"))
	respond(c, http.StatusNoContent, nil, err)
}

// ListMembers godoc
// @Summary List who can see a board
// @Tags members
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Board ID"
// @Success 200 {object} models.MembersResponse
// @Router /boards/{id}/members [get]
func (h *BoardHandler) ListMembers(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	members, err := h.boards.ListMembers(c.Request.Context(), actor, c.Param("id"))
	respond(c, http.StatusOK, members, err)
}

// RemoveMember godoc
// @Summary Remove a member
// @Description Also revokes pending invites for the same email
// @Tags members
// @Security ApiKeyAuth
// @Param id path string true "Board ID"
// @Param email path string true "Member email"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /boards/{id}/members/{email} [delete]
func (h *BoardHandler) RemoveMember(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	err := h.boards.RemoveMember(c.Request.Context(), actor, c.Param("id"), c.Param("email"))
	respond(c, http.StatusNoContent, nil, err)
}
