package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"student-records/internal/auth"
	"student-records/internal/metrics"
	"student-records/internal/service"
)

// Options configures a Handler.
type Options struct {
	Users    service.UserService
	Students service.StudentService
	Tokens   auth.TokenVerifier
	Metrics  *metrics.Metrics
	Logger   logrus.FieldLogger

	// UploadsDir is served under /uploads when pictures live on local disk.
	UploadsDir    string
	SecureCookies bool
	// RateLimit and RateBurst throttle register/login per client IP.
	// A non-positive RateLimit disables throttling.
	RateLimit float64
	RateBurst int
	Now       func() time.Time
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users         service.UserService
	students      service.StudentService
	tokens        auth.TokenVerifier
	metrics       *metrics.Metrics
	logger        logrus.FieldLogger
	uploadsDir    string
	secureCookies bool
	limiter       *multiLimiter
	now           func() time.Time
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		users:         opts.Users,
		students:      opts.Students,
		tokens:        opts.Tokens,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		uploadsDir:    opts.UploadsDir,
		secureCookies: opts.SecureCookies,
		now:           opts.Now,
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	if h.logger == nil {
		h.logger = logrus.StandardLogger()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		h.limiter = newMultiLimiter(opts.RateLimit, burst, 10*time.Minute)
	}
	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger, h.metrics))
	router.Use(corsMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Home Page!")
	})
	router.GET("/test", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	if h.uploadsDir != "" {
		router.Static("/uploads", h.uploadsDir)
	}

	api := router.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", h.rateLimit(), h.register)
		users.POST("/login", h.rateLimit(), h.login)
		users.POST("/logout", h.logout)
		users.GET("/me", h.requireAuth(), h.me)
	}

	students := api.Group("/students", h.requireAuth())
	{
		students.GET("", h.listStudents)
		students.GET("/:id", h.getStudent)
		students.POST("", h.createStudent)
		students.PUT("/:id", h.updateStudent)
		students.DELETE("/:id", h.deleteStudent)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found."})
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Welcome to CRUD Operation Tutorial!",
		"datetime": h.now().UTC().Format(time.RFC3339),
	})
}
