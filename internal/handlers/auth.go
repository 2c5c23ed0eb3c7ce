package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lochan861/mt/internal/auth"
	apierrors "github.com/lochan861/mt/internal/errors"
	"github.com/lochan861/mt/internal/util"
)

// Register creates an account and returns a token
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and password are required")
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		util.RespondWithAPIError(c, apierrors.AlreadyExists("user"))
	case errors.Is(err, auth.ErrInvalidEmail):
		util.RespondValidationError(c, "email", err.Error())
	case errors.Is(err, auth.ErrWeakPassword):
		util.RespondValidationError(c, "password", err.Error())
	case err != nil:
		util.RespondInternalError(c)
	default:
		c.JSON(http.StatusCreated, resp)
	}
}

// Login exchanges credentials for a token
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and password are required")
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
		// Same answer for both so emails can't be enumerated
		util.RespondUnauthorized(c, "invalid credentials")
	case err != nil:
		util.RespondInternalError(c)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// Me returns the authenticated user
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
