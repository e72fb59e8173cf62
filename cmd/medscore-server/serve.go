package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/LzzJustBeYou/MedScore/internal/config"
	"github.com/LzzJustBeYou/MedScore/internal/domain/record"
	"github.com/LzzJustBeYou/MedScore/internal/platform/auth"
	"github.com/LzzJustBeYou/MedScore/internal/platform/db"
	"github.com/LzzJustBeYou/MedScore/internal/platform/middleware"
	"github.com/LzzJustBeYou/MedScore/pkg/scoring"
)

const requestTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scoring API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// store is the record repository for the configured driver plus its health
// endpoint.
type store struct {
	repo   record.RecordRepository
	health echo.HandlerFunc
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &store{repo: record.NewRecordRepoPG(pool), health: db.HealthHandler(pool), close: pool.Close}, nil
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{
			repo:   record.NewRecordRepoSQLite(sqlDB),
			health: db.SQLHealthHandler(sqlDB),
			close:  func() { sqlDB.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	reg := scoring.Default()
	logCoverage(logger, reg)

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open record store")
	}
	defer st.close()
	logger.Info().Str("driver", cfg.StoreDriver).Msg("record store ready")

	e, err := newServer(cfg, logger, reg, st)
	if err != nil {
		return err
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newServer(cfg *config.Config, logger zerolog.Logger, reg *scoring.Registry, st *store) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(requestTimeout))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		key, err := cfg.SigningKey()
		if err != nil {
			return nil, err
		}
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: key,
			Skipper:    auth.AuthSkipper,
		}))
	}
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", st.health)

	apiV1 := e.Group("/api/v1")
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
		rl.BurstSize = cfg.RateLimitBurst
	}
	if cfg.ScoreRateRPS > 0 {
		rl.Scoring = middleware.Limit{RequestsPerSecond: cfg.ScoreRateRPS, BurstSize: cfg.ScoreRateBurst}
	}
	apiV1.Use(middleware.RateLimit(rl))

	svc := record.NewService(st.repo, reg, cfg.StrictScoring, logger)
	record.NewHandler(svc).RegisterRoutes(apiV1)

	return e, nil
}

// logCoverage warns about result-range gaps and overlaps in the catalog.
func logCoverage(logger zerolog.Logger, reg *scoring.Registry) {
	for _, cfg := range reg.List() {
		for _, f := range reg.CheckCoverage(cfg) {
			logger.Warn().
				Str("score_config", cfg.ID).
				Str("kind", string(f.Kind)).
				Int("from", f.From).
				Int("to", f.To).
				Msg("result range coverage")
		}
	}
}
