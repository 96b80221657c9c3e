package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// GetMe godoc
// @Summary Get current user
// @Description The identity the bearer token resolves to
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.Actor
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, actor)
}
