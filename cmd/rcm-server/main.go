package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rcm/rcm/internal/config"
	"github.com/rcm/rcm/internal/domain/allocation"
	"github.com/rcm/rcm/internal/domain/claims"
	"github.com/rcm/rcm/internal/domain/denials"
	"github.com/rcm/rcm/internal/domain/practice"
	"github.com/rcm/rcm/internal/domain/prediction"
	"github.com/rcm/rcm/internal/platform/auth"
	"github.com/rcm/rcm/internal/platform/db"
	"github.com/rcm/rcm/internal/platform/middleware"
	"github.com/rcm/rcm/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rcm-server",
		Short: "Reimbursement optimization and claim lifecycle API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{
				DatabaseURL: cfg.DatabaseURL,
				MaxConns:    cfg.DBMaxConns,
				MinConns:    cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{
				DatabaseURL: cfg.DatabaseURL,
				MaxConns:    cfg.DBMaxConns,
				MinConns:    cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// logSender writes outbound notifications to the structured log. Real
// SMTP/SMS providers plug in behind the same interfaces.
type logSender struct {
	logger zerolog.Logger
}

func (l *logSender) SendEmail(_ context.Context, to, subject, body string) error {
	l.logger.Info().Str("channel", "email").Str("to", to).Str("subject", subject).Msg(body)
	return nil
}

func (l *logSender) SendSMS(_ context.Context, to, body string) error {
	l.logger.Info().Str("channel", "sms").Str("to", to).Msg(body)
	return nil
}

// claimNotifier translates committed claim transitions into notifications
// addressed to the owning practice.
type claimNotifier struct {
	notifications *notification.Service
	practices     practice.PracticeRepository
	logger        zerolog.Logger
}

func (n *claimNotifier) NotifyStatusChange(ctx context.Context, c *claims.Claim) {
	recipient := "billing"
	if p, err := n.practices.GetByID(ctx, c.PracticeID); err == nil && p.Email != nil {
		recipient = *p.Email
	}

	data := map[string]string{
		"claim_id": c.ID.String(),
		"insurer":  c.InsurerName,
		"amount":   strconv.FormatFloat(c.TotalAmount, 'f', 2, 64),
		"date":     time.Now().UTC().Format("2006-01-02"),
	}

	var templateID string
	switch c.Status {
	case claims.StatusSubmitted:
		templateID = "claim-submitted"
	case claims.StatusPaid:
		templateID = "claim-paid"
		data["billed_amount"] = data["amount"]
		if c.PaidAmount != nil {
			data["paid_amount"] = strconv.FormatFloat(*c.PaidAmount, 'f', 2, 64)
		}
	case claims.StatusDenied:
		templateID = "claim-denied"
		if c.DenialReason != nil {
			data["denial_reason"] = *c.DenialReason
		}
	default:
		return
	}

	if _, err := n.notifications.SendFromTemplate(ctx, templateID, data, recipient); err != nil {
		n.logger.Warn().Err(err).Str("claim_id", c.ID.String()).Msg("claim notification failed")
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Production keeps JSON output for log aggregation; every other
	// environment gets human-readable console formatting.
	if !cfg.IsProduction() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Notification delivery
	notifySvc := notification.NewService(
		&logSender{logger: logger},
		&logSender{logger: logger},
		notification.NewTemplateEngine(),
	)

	// Practice domain
	practiceRepo := practice.NewPracticeRepoPG(pool)
	patientRepo := practice.NewPatientRepoPG(pool)
	practiceSvc := practice.NewService(practiceRepo, patientRepo)
	practiceHandler := practice.NewHandler(practiceSvc)
	practiceHandler.RegisterRoutes(apiV1)

	// Denial classification and appeal drafting
	drafter := denials.NewDrafter(practiceRepo, patientRepo)
	denialsHandler := denials.NewHandler()
	denialsHandler.RegisterRoutes(apiV1)

	// Claim lifecycle
	claimRepo := claims.NewClaimRepoPG(pool)
	appealRepo := claims.NewAppealRepoPG(pool)
	claimSvc := claims.NewService(claimRepo, appealRepo, drafter)
	claimSvc.SetNotifier(&claimNotifier{
		notifications: notifySvc,
		practices:     practiceRepo,
		logger:        logger,
	})
	claimHandler := claims.NewHandler(claimSvc)
	claimHandler.RegisterRoutes(apiV1)

	// Reimbursement prediction
	historyRepo := prediction.NewHistoryRepoPG(pool)
	predictionSvc := prediction.NewService(historyRepo)
	predictionHandler := prediction.NewHandler(predictionSvc)
	predictionHandler.RegisterRoutes(apiV1)

	// Unit allocation
	var strategy allocation.Strategy
	switch cfg.AllocatorMode {
	case "model":
		gen := allocation.NewHTTPTextGenerator(cfg.ModelAPIURL, cfg.ModelAPIKey, cfg.ModelName)
		strategy = allocation.NewModelBacked(gen, logger)
		logger.Info().Str("model", cfg.ModelName).Msg("using model-backed unit allocator")
	default:
		strategy = allocation.NewRuleBased()
	}
	allocationHandler := allocation.NewHandler(strategy, cfg.DefaultUnitRate)
	allocationHandler.RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
