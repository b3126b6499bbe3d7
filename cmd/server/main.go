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

	"github.com/richardliu001/ticket-service/internal/config"
	"github.com/richardliu001/ticket-service/internal/logger"
	"github.com/richardliu001/ticket-service/internal/messaging"
	"github.com/richardliu001/ticket-service/internal/model"
	"github.com/richardliu001/ticket-service/internal/outbox"
	"github.com/richardliu001/ticket-service/internal/repo"
	"github.com/richardliu001/ticket-service/internal/service"
	"github.com/richardliu001/ticket-service/internal/telemetry"
	httptransport "github.com/richardliu001/ticket-service/internal/transport/http"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "internal/config/config.yaml"
}

func main() {
	_ = godotenv.Load()

	// 1. load config
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	// 2. init logger
	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer log.Sync()

	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry.Tracing, cfg.Telemetry.ServiceName, os.Stdout)
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. postgres
	gdb, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{PrepareStmt: true, TranslateError: true})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := gdb.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// 4. redis
	var rdb *redis.Client
	if !cfg.Redis.DisableCache {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
	}

	// 5. repo & services
	repository := repo.NewRepository(gdb, rdb, cfg.Redis.CacheTTL, log)
	opts := []service.TicketOption{
		service.WithMaxAttempts(cfg.Reservation.MaxAttempts),
		service.WithTimeout(cfg.Reservation.Timeout),
	}

	// 6. optional in-process relay, nudged after every commit
	if cfg.Outbox.Embedded {
		kw := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
		defer kw.Close()
		relay := outbox.FromConfig(cfg.Outbox, repository, messaging.NewKafkaPublisher(kw, messaging.BreakerConfig{}, log), log)
		go relay.Run(ctx)
		opts = append(opts, service.WithNotifier(relay))
	}

	handler := httptransport.NewHandler(
		service.NewCustomerService(repository, log),
		service.NewPartnerService(repository, log),
		service.NewEventService(repository, log),
		service.NewTicketService(repository, log, opts...),
		func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		log,
	)

	// 7. gin router
	router := httptransport.NewRouter(handler, cfg.RateLimit, log)

	// 8. serve
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("ticket-server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Errorf("tracer shutdown: %v", err)
	}
}
