package handlers

import (
	"errors"
	"net/http"

	"bed_temperature/internal/service"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary      Sign in
// @Description  Authenticates against the device account and returns a session token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "device account credentials"
// @Success      200   {object}  map[string]string  "token"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input signInRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginFailed) {
			if h.log != nil {
				h.log.Infow("auth_sign_in_failed", "email", input.Email, "err", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "sign in failed", "auth_sign_in_error", err, "email", input.Email)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary      Session check
// @Description  Reports whether the device account must be signed in again.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]bool  "login_required"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /auth/session [get]
// @Security     BearerAuth
func (h *Handler) session(c *gin.Context) {
	required, err := h.services.CheckSession(c.Request.Context(), userEmail(c))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "session check failed", "auth_session_error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"login_required": required})
}
