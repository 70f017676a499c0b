package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"student-records/internal/auth"
	apphttp "student-records/internal/http"
	"student-records/internal/metrics"
	"student-records/internal/service"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	logger.Infof("starting with %s", cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return oops.Code("DB_OPEN_FAILED").Wrap(err)
	}
	defer st.close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	tokens, err := auth.NewJWTService([]byte(cfg.Auth.JWTSecret), nil)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	pictures, uploadsDir, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return oops.Code("STORAGE_SETUP_FAILED").Wrap(err)
	}

	userService := service.NewUserService(st.users, hasher, tokens, cfg.Auth.TokenTTL, logger)
	studentService := service.NewStudentService(st.students, pictures, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Options{
		Users:         userService,
		Students:      studentService,
		Tokens:        tokens,
		Metrics:       metrics.New(),
		Logger:        logger,
		UploadsDir:    uploadsDir,
		SecureCookies: cfg.Auth.SecureCookies,
		RateLimit:     cfg.RateLimit.RPS,
		RateBurst:     cfg.RateLimit.Burst,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}
