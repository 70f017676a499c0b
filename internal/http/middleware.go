package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"student-records/internal/auth"
	"student-records/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	claimsKey       = "claims"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgTokenExpired = "Token has expired. Please login again."
	msgInvalidToken = "Invalid token. Access denied."
)

// requestLogger tags every request with an id and records an access log
// line and a latency observation once the handler chain has finished.
func requestLogger(logger logrus.FieldLogger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		m.RequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(latency.Seconds())

		entry := logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    latency.String(),
			"client_ip":  c.ClientIP(),
		})
		if status >= http.StatusInternalServerError {
			entry.Error("request completed")
			return
		}
		entry.Info("request completed")
	}
}

// requireAuth is the request gate in front of protected routes. Verified
// claims are attached to both the gin context and the request context.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, err := auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"), h.tokens)
		if err != nil {
			reason, msg := "invalid", msgInvalidToken
			switch {
			case errors.Is(err, auth.ErrNoToken):
				reason, msg = "no_token", msgNoToken
			case errors.Is(err, auth.ErrTokenExpired):
				reason, msg = "expired", msgTokenExpired
			}
			h.metrics.GateRejections.WithLabelValues(reason).Inc()
			h.logger.WithFields(logrus.Fields{
				"request_id": c.GetString(requestIDKey),
				"reason":     reason,
			}).Info("request rejected by auth gate")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
			return
		}

		claims, _ := auth.ClaimsFromContext(ctx)
		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Claims returns the identity attached by the request gate.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}
