package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"student-records/internal/service"
)

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.Registrations.WithLabelValues("validation").Inc()
		badRequest(c, "Invalid request body.")
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.metrics.Registrations.WithLabelValues(resultLabel(err)).Inc()
		h.writeServiceError(c, "register", err)
		return
	}

	h.metrics.Registrations.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully!",
		"user":    userToResponse(user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.metrics.Logins.WithLabelValues("validation").Inc()
		badRequest(c, "Invalid request body.")
		return
	}

	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.Logins.WithLabelValues(resultLabel(err)).Inc()
		h.writeServiceError(c, "login", err)
		return
	}

	h.metrics.Logins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful.",
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC(),
		"user":       userToResponse(res.User),
	})
}

// logout only clears the cookie; issued tokens stay valid until they expire.
func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("token", "", -1, "/", "", h.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User logged out successfully.",
	})
}

func (h *Handler) me(c *gin.Context) {
	claims, ok := Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": msgInvalidToken})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.ID)
	if err != nil {
		h.writeServiceError(c, "current user", err)
		return
	}
	h.logger.WithFields(logrus.Fields{"request_id": c.GetString(requestIDKey), "user_id": user.ID}).Debug("current user fetched")
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userToResponse(user)})
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, service.ErrValidation):
		return "validation"
	case errors.Is(err, service.ErrConflict):
		return "conflict"
	case errors.Is(err, service.ErrForbidden):
		return "forbidden"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid_credentials"
	}
	return "error"
}
