// internal/api/handlers/auth_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/DennisMbugua/collectflow/internal/api/responses"
	"github.com/DennisMbugua/collectflow/internal/core/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service auth.Service
}

func NewAuthHandler(service auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "username and password are required", err)
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			responses.Error(c, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		responses.Error(c, http.StatusInternalServerError, err.Error(), err)
		return
	}
	responses.OK(c, gin.H{"token": token})
}
