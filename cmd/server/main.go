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

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swimintake/internal/catalog"
	"swimintake/internal/config"
	"swimintake/internal/database"
	"swimintake/internal/events"
	"swimintake/internal/guard"
	"swimintake/internal/handlers"
	"swimintake/internal/logging"
	"swimintake/internal/mailer"
	"swimintake/internal/repository"
	"swimintake/internal/security"
	"swimintake/internal/service"
)

// How often expired sessions, stale claims and idle rate limit entries are swept
const maintenanceInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "swimintake: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database (supports sqlite, postgres, mysql)
	dialect, dialectConfig, err := database.DialectFor(cfg.DatabaseType, cfg.DatabasePath, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, dialect, dialectConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database connection established", zap.String("type", dialect.Name()))

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations completed successfully")

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	templates, err := handlers.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	logger.Info("Templates loaded successfully")

	transport, err := mailer.New(ctx, mailer.Config{
		Kind:     cfg.MailTransport,
		FromName: cfg.MailFromName,
		SMTP: mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		},
		SES: mailer.SESConfig{
			Region:    cfg.AWSRegion,
			FromEmail: cfg.SESFromEmail,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mail transport: %w", err)
	}
	logger.Info("Mail transport ready", zap.String("transport", transport.Name()))

	// Initialize repositories
	submissionRepo := repository.NewSubmissionRepository(db)
	sessionRepo := repository.NewWizardSessionRepository(db)
	claimRepo := repository.NewClaimRepository(db)

	var sendGuard service.SendGuard = claimRepo
	if cfg.RedisURL != "" {
		client, err := guard.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		sendGuard = guard.NewRedisGuard(client, guard.DefaultTTL)
		logger.Info("Using Redis send guard")
	}

	var publisher events.Publisher = events.NewNopPublisher(logger)
	if cfg.RabbitMQURI != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange, logger)
		if err != nil {
			return err
		}
		publisher = amqpPublisher
	}
	defer publisher.Close()

	// Initialize services
	intakeService := service.NewIntakeService(submissionRepo, sendGuard, transport, publisher, cfg.IntakeToEmail, logger)
	wizardService := service.NewWizardService(cat, sessionRepo, intakeService, cfg.SessionDuration, logger)

	csrfSecret := cfg.CSRFSecret
	if csrfSecret == "" {
		csrfSecret = security.GenerateSessionID()
		logger.Warn("CSRF_SECRET not set; tokens will not survive a restart")
	}
	csrf := security.NewCSRFGenerator(csrfSecret)

	var staffAuth *security.StaffAuth
	if cfg.StaffEnabled() {
		staffAuth, err = security.NewStaffAuth(cfg.StaffPasswordHash, cfg.JWTSecret, 12*time.Hour)
		if err != nil {
			return err
		}
	} else {
		logger.Info("Staff pages disabled; set STAFF_PASSWORD_HASH and JWT_SECRET to enable them")
	}

	rateLimiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)

	router := &handlers.Router{
		Wizard:      handlers.NewWizardHandler(wizardService, csrf, templates, logger),
		Intake:      handlers.NewIntakeHandler(intakeService, logger),
		Health:      handlers.NewHealthHandler(db),
		Middleware:  handlers.NewMiddleware(csrf, staffAuth),
		RateLimiter: rateLimiter,
		Logger:      logger,
	}
	if staffAuth != nil {
		router.Staff = handlers.NewStaffHandler(staffAuth, intakeService, csrf, templates, logger)
	}

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Background cleanup
	g.Go(func() error {
		return wizardService.RunSweeper(gctx, maintenanceInterval)
	})
	g.Go(func() error {
		return rateLimiter.Run(gctx, maintenanceInterval)
	})
	if cfg.RedisURL == "" {
		g.Go(func() error {
			return sweepClaims(gctx, claimRepo, logger)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadCatalog reads CATALOG_PATH when set and falls back to the embedded catalog
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return c, nil
}

// sweepClaims drops database send claims older than the guard TTL
func sweepClaims(ctx context.Context, claims *repository.ClaimRepository, logger *zap.Logger) error {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := claims.DeleteBefore(ctx, time.Now().UTC().Add(-guard.DefaultTTL))
			if err != nil {
				logger.Warn("Send claim sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Removed stale send claims", zap.Int64("count", n))
			}
		}
	}
}
