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

	"github.com/medref/medref/internal/config"
	"github.com/medref/medref/internal/domain/calculator"
	"github.com/medref/medref/internal/domain/catalog"
	"github.com/medref/medref/internal/domain/userstate"
	"github.com/medref/medref/internal/platform/auth"
	"github.com/medref/medref/internal/platform/db"
	"github.com/medref/medref/internal/platform/mcpserver"
	"github.com/medref/medref/internal/platform/middleware"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "medref-server",
		Short:         "Psychiatric clinical reference API server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional env file with configuration")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(interactionsCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(bmiCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(migrateCmd())

	return rootCmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reference API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			withMCP, _ := cmd.Flags().GetBool("mcp")
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(cmd, withMCP, migrate)
		},
	}
	cmd.Flags().Bool("mcp", false, "Also serve the MCP tools over streamable HTTP at /mcp")
	cmd.Flags().Bool("migrate", true, "Apply pending migrations when the postgres backend is used")
	return cmd
}

func runServer(cmd *cobra.Command, withMCP, migrate bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)
	if cfg.ResolvedAuthMode() == config.AuthLocal {
		logger.Warn().Str("user", cfg.LocalUser).Msg("local auth mode: every request acts as LOCAL_USER; do not expose this server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg, logger, migrate)
	if err != nil {
		return err
	}
	defer b.Close()

	var verifier *auth.Verifier
	if cfg.ResolvedAuthMode() == config.AuthJWT {
		verifier, err = auth.NewVerifier(ctx, auth.JWTConfig{
			Issuer:         cfg.AuthIssuer,
			Audience:       cfg.AuthAudience,
			JWKSURL:        cfg.AuthJWKSURL,
			SigningKey:     []byte(cfg.AuthSigningKey),
			AllowAnonymous: true,
		})
		if err != nil {
			return err
		}
	}

	e := newServer(a, b, verifier, withMCP)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

wait:
	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case sig := <-sigs:
			if sig != syscall.SIGHUP {
				break wait
			}
			reload(ctx, a, b, logger)
		}
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// reload swaps in a fresh corpus generation and drops cached responses.
// A failed reload keeps serving the previous generation.
func reload(ctx context.Context, a *app, b *backends, logger zerolog.Logger) {
	report, err := a.store.Reload(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("corpus reload failed")
		return
	}
	if b.cache != nil {
		b.cache.Clear(ctx)
	}
	logger.Info().Int("entities", report.Total()).Int("skipped", report.SkippedCount()).Msg("corpus reloaded")
}

// newServer assembles the echo instance. verifier is nil in local auth
// mode.
func newServer(a *app, b *backends, verifier *auth.Verifier, withMCP bool) *echo.Echo {
	cfg, logger := a.cfg, a.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/mcp"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "If-None-Match", middleware.RequestIDHeader},
		ExposeHeaders: []string{"ETag", "X-Cache", middleware.RequestIDHeader},
	}))

	if verifier != nil {
		e.Use(auth.JWTMiddleware(verifier))
	} else {
		e.Use(auth.LocalMiddleware(cfg.LocalUser))
	}

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		report := a.store.Report()
		if report.Total() == 0 {
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	})
	e.GET("/health/db", db.HealthHandler(b.health))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg))

	// User state
	stateHandler := userstate.NewHandler(userstate.NewService(b.repo, logger), logger)
	stateGroup := apiV1.Group("", auth.RequireUser(), middleware.NoStore())
	stateHandler.RegisterRoutes(stateGroup)

	// Reference routes
	refMW := []echo.MiddlewareFunc{middleware.ETagMiddleware(middleware.DefaultCacheConfig())}
	if b.cache != nil {
		refMW = append(refMW, middleware.ResponseCacheMiddleware(b.cache, cfg.ResponseCacheTTL))
	}
	refGroup := apiV1.Group("", refMW...)

	catalogHandler := catalog.NewHandler(a.catalog)
	catalogHandler.OnView(func(c echo.Context, ent catalog.Entity) {
		stateHandler.RecordView(c, userstate.RecentItem{
			ID:   ent.ID(),
			Type: userstate.RecentType(ent.Kind),
			Name: ent.DisplayName(),
		})
	})
	catalogHandler.RegisterRoutes(refGroup)

	calcHandler := calculator.NewHandler(a.calc)
	calcHandler.OnView(func(c echo.Context, inst *calculator.Instrument) {
		stateHandler.RecordView(c, userstate.RecentItem{
			ID:   inst.ID,
			Type: userstate.RecentCalculator,
			Name: inst.Name,
		})
	})
	calcHandler.RegisterRoutes(refGroup)

	if withMCP {
		h := echo.WrapHandler(mcpserver.HTTPHandler(mcpserver.New(a.catalog, a.calc, version, logger)))
		e.Any("/mcp", h)
		e.Any("/mcp/*", h)
	}

	return e
}
