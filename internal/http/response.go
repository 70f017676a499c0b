package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"student-records/internal/domain"
	"student-records/internal/logging"
	"student-records/internal/service"
)

const msgInternal = "Internal Server Error. Please try again later."

// writeServiceError maps service error kinds to status codes. Internal
// failures are logged with their cause and answered with a generic message.
func (h *Handler) writeServiceError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logging.LogError(h.logger.WithField("request_id", c.GetString(requestIDKey)), op+" failed", err)
		c.JSON(status, gin.H{"success": false, "message": msgInternal})
		return
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}

type UserResponse struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
	}
}

type StudentResponse struct {
	ID            int64         `json:"id"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Gender        domain.Gender `json:"gender"`
	ProfilePic    *string       `json:"profile_pic"`
	ProfilePicURL string        `json:"profile_pic_url,omitempty"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
}

func (h *Handler) studentToResponse(c *gin.Context, s *domain.Student) StudentResponse {
	resp := StudentResponse{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Phone:     s.Phone,
		Gender:    s.Gender,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
	if s.ProfilePic != "" {
		key := s.ProfilePic
		resp.ProfilePic = &key
		url, err := h.students.PictureURL(c.Request.Context(), key)
		if err != nil {
			h.logger.WithField("key", key).Warnf("picture url: %v", err)
		} else {
			resp.ProfilePicURL = url
		}
	}
	return resp
}
