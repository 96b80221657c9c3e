package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"taskboard-be/internal/models"
	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ActorKey is the gin context key the auth middleware stores the actor under.
const ActorKey = "actor"

// maxPosition bounds client positions before rounding; the ordering engine
// clamps to the collection size anyway.
const maxPosition = 1 << 30

func actorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// withActor resolves the actor or answers 401.
func withActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "AUTH_REQUIRED",
			Message: "Authentication required",
		})
	}
	return actor, ok
}

// roundPosition turns a JSON number into a 1-based slot. Fractions round to
// the nearest integer.
func roundPosition(p *float64) *int {
	if p == nil {
		return nil
	}
	v := math.Round(*p)
	v = math.Max(-maxPosition, math.Min(maxPosition, v))
	n := int(v)
	return &n
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	resp := models.ErrorResponse{
		Error:   string(services.KindValidation),
		Message: err.Error(),
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		resp.Field = typeErr.Field
		resp.Message = typeErr.Field + " must be a " + typeErr.Type.String()
	}
	c.JSON(http.StatusBadRequest, resp)
	return false
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes a service failure. result is the committed entity,
// reported alongside AUDIT_WRITE_FAILED so callers can reconcile.
func respondError(c *gin.Context, err error, result any) {
	se := services.AsError(err)
	resp := models.ErrorResponse{
		Error:   se.Code,
		Message: se.Message,
		Field:   se.Field,
	}
	switch se.Kind {
	case services.KindAuditWrite:
		resp.Result = result
	case services.KindInternal, services.KindUnavailable:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(statusFor(se.Kind), resp)
}

// respond writes result with status, or the failure.
func respond(c *gin.Context, status int, result any, err error) {
	if err != nil {
		respondError(c, err, result)
		return
	}
	if result == nil {
		c.Status(status)
		return
	}
	c.JSON(status, result)
}

// list renders a nil slice as an empty JSON array.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
