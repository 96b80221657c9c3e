package handlers

import (
	"net/http"

	"taskboard-be/internal/models"
	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
)

// InviteHandler handles board invitation endpoints
type InviteHandler struct {
	invites *services.InviteService
}

// NewInviteHandler creates a new handler
func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

// CreateInvite godoc
// @Summary Invite a registered user to a board
// @Tags invites
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Board ID"
// @Param payload body models.CreateInviteRequest true "Invitee"
// @Success 201 {object} models.BoardInvite
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /boards/{id}/invites [post]
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.CreateInviteRequest
	if !bindJSON(c, &req) {
		return
	}
	invite, err := h.invites.CreateInvite(c.Request.Context(), actor, c.Param("id"), req.Email)
	respond(c, http.StatusCreated, invite, err)
}

// ListInvites godoc
// @Summary List invites
// @Tags invites
// @Security ApiKeyAuth
// @Produce json
// @Param type query string false "incoming (default) or outgoing"
// @Param status query string false "pending (default), accepted, revoked or all"
// @Success 200 {array} models.BoardInvite
// @Failure 400 {object} models.ErrorResponse
// @Router /invites [get]
func (h *InviteHandler) ListInvites(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	invites, err := h.invites.ListInvites(c.Request.Context(), actor, c.Query("type"), c.Query("status"))
	respond(c, http.StatusOK, list(invites), err)
}

// AcceptInvite godoc
// @Summary Accept an invite
// @Tags invites
// @Security ApiKeyAuth
// @Produce json
// @Param inviteId path string true "Invite ID"
// @Success 200 {object} models.InviteAcceptResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /invites/{inviteId}/accept [post]
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	resp, err := h.invites.AcceptInvite(c.Request.Context(), actor, c.Param("inviteId"))
	respond(c, http.StatusOK, resp, err)
}

// RevokeInvite godoc
// @Summary Revoke a pending invite
// @Tags invites
// @Security ApiKeyAuth
// @Param inviteId path string true "Invite ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /invites/{inviteId}/revoke [post]
func (h *InviteHandler) RevokeInvite(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	err := h.invites.RevokeInvite(c.Request.Context(), actor, c.Param("inviteId"))
	respond(c, http.StatusNoContent, nil, err)
}
