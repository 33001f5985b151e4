package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/bootstrap"
	"github.com/example/office-reservations/internal/config"
	"github.com/example/office-reservations/internal/events"
	httptransport "github.com/example/office-reservations/internal/http"
	"github.com/example/office-reservations/internal/locking"
	"github.com/example/office-reservations/internal/persistence/sqlstore"
	"github.com/example/office-reservations/internal/persistence/sqlstore/migration"
	"github.com/example/office-reservations/internal/timetable"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("reservation service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	locker, closeLocker, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	handler, err := newHandler(store, cfg, locker, publisher, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening",
		"addr", server.Addr,
		"span_mode", cfg.SpanMode,
		"timezone", cfg.Timezone,
		"lock_backend", cfg.LockBackend,
		"events_enabled", cfg.EventsEnabled(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	return nil
}

func databaseConfig(cfg config.Config) migration.DatabaseConfig {
	if cfg.DatabaseDriver == migration.DriverPostgres {
		return migration.PostgresConfig(cfg.DatabaseDSN)
	}
	return migration.DefaultSQLiteConfig(cfg.DatabaseDSN)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, databaseConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if !cfg.MigrationsEnabled {
		logger.Warn("schema migrations disabled")
		return store, nil
	}
	if err := store.Migrate(ctx, logger); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return store, nil
}

// newLocker returns the per-room lock. A local lock only serializes bookings
// inside this process; redis extends it across replicas.
func newLocker(ctx context.Context, cfg config.Config, logger *slog.Logger) (locking.Locker, func(), error) {
	if cfg.LockBackend != "redis" {
		return locking.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("using redis room locks", "addr", cfg.RedisAddr, "ttl", cfg.LockTTL)
	closer := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
	return locking.NewRedisLocker(client, cfg.LockTTL), closer, nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, func(), error) {
	if !cfg.EventsEnabled() {
		return events.NopPublisher{}, func() {}, nil
	}

	writer, err := events.NewKafkaWriter(events.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure kafka: %w", err)
	}

	publisher := events.NewKafkaPublisher(writer, cfg.KafkaTopic, logger)
	closer := func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close kafka publisher", "error", err)
		}
	}
	return publisher, closer, nil
}

func newHandler(store *sqlstore.Store, cfg config.Config, locker locking.Locker, publisher events.Publisher, logger *slog.Logger) (http.Handler, error) {
	catalog, err := timetable.NewCatalog(cfg.OpenHour, cfg.CloseHour)
	if err != nil {
		return nil, err
	}
	spanMode, ok := application.ParseSpanMode(cfg.SpanMode)
	if !ok {
		return nil, fmt.Errorf("unsupported span mode %q", cfg.SpanMode)
	}

	services := bootstrap.NewServices(store, bootstrap.Options{
		Catalog:   catalog,
		Location:  cfg.Location,
		SpanMode:  spanMode,
		Locker:    locker,
		Publisher: publisher,
		Logger:    logger,
	})

	return httptransport.NewRouter(httptransport.RouterConfig{
		Companies:    httptransport.NewCompanyHandler(services.Companies, logger),
		Users:        httptransport.NewUserHandler(services.Users, logger),
		Rooms:        httptransport.NewRoomHandler(services.Rooms, logger),
		Reservations: httptransport.NewReservationHandler(services.Reservations, cfg.Location, logger),
		Principals:   services.Users,
		Logger:       logger,
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}), nil
}
