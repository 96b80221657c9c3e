package handlers

import (
	"net/http"
	"strconv"

	"taskboard-be/internal/models"
	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
)

// AuditHandler serves the audit trail
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler creates a new handler
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// AppendAudit godoc
// @Summary Append an audit entry
// @Description ts defaults to now and must carry a timezone when given
// @Tags audit
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body models.AppendAuditRequest true "Entry"
// @Success 201 {object} models.AuditEntry
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /audit [post]
func (h *AuditHandler) AppendAudit(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	var req models.AppendAuditRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.audit.Append(c.Request.Context(), actor, req)
	respond(c, http.StatusCreated, entry, err)
}

// QueryAudit godoc
// @Summary Query the audit trail
// @Description Most recent first. Timelines should re-sort ascending.
// @Tags audit
// @Security ApiKeyAuth
// @Produce json
// @Param entity query string false "Entity kind"
// @Param entityId query string false "Entity ID"
// @Param boardId query string false "Board ID"
// @Param limit query int false "Max entries"
// @Success 200 {array} models.AuditEntry
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /audit [get]
func (h *AuditHandler) QueryAudit(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	filter := models.AuditFilter{
		Entity:   models.EntityKind(c.Query("entity")),
		EntityID: c.Query("entityId"),
		BoardID:  c.Query("boardId"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   string(services.KindValidation),
				Message: "limit must be a positive integer",
				Field:   "limit",
			})
			return
		}
		filter.Limit = limit
	}
	entries, err := h.audit.Query(c.Request.Context(), actor, filter)
	respond(c, http.StatusOK, list(entries), err)
}
