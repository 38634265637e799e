package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sharath018/event-gift-backend/config"
	"github.com/sharath018/event-gift-backend/database"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/internal/event"
	"github.com/sharath018/event-gift-backend/internal/gift"
	"github.com/sharath018/event-gift-backend/internal/guest"
	"github.com/sharath018/event-gift-backend/internal/media"
	"github.com/sharath018/event-gift-backend/internal/metrics"
	"github.com/sharath018/event-gift-backend/internal/notification"
	"github.com/sharath018/event-gift-backend/routes"
	"github.com/sharath018/event-gift-backend/utils"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// models lists every table the service owns, in migration order.
func models() []any {
	return []any{
		&auth.User{},
		&gift.Gift{},
		&event.Event{},
		&guest.Guest{},
		&auditlog.AuditLog{},
	}
}

// bootstrap loads and validates configuration, configures logging and opens
// the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	utils.SetupLogger(cfg.LogLevel, !cfg.IsProduction())
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the schema on startup")
	return cmd
}

func serve(ctx context.Context, skipMigrate bool) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrate {
		if err := database.Migrate(db, models()...); err != nil {
			return err
		}
		log.Info().Msg("database migrations completed")
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if _, err := ensureAdmin(ctx, cfg, db, cfg.AdminName, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = utils.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, sessions and rate limits are per process")
	}

	images, err := media.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	publisher := notification.NewPublisher(cfg.KafkaBrokers, cfg.KafkaGuestTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close publisher")
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := routes.NewRouter(routes.Deps{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		Images:    images,
		Publisher: publisher,
		Metrics:   metrics.New(prometheus.DefaultRegisterer),
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    log.Logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", Version).Msg("giftdesk listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
