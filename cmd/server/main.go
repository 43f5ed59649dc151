package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/company-lifecycle/internal/adapters/httpapi"
	"github.com/ogurasousui/company-lifecycle/internal/adapters/notification/mail"
	"github.com/ogurasousui/company-lifecycle/internal/adapters/queue/kafka"
	"github.com/ogurasousui/company-lifecycle/internal/adapters/queue/logqueue"
	"github.com/ogurasousui/company-lifecycle/internal/adapters/queue/rabbitmq"
	pgrepo "github.com/ogurasousui/company-lifecycle/internal/adapters/repository/postgres"
	sqliterepo "github.com/ogurasousui/company-lifecycle/internal/adapters/repository/sqlite"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/ogurasousui/company-lifecycle/internal/platform/auth"
	"github.com/ogurasousui/company-lifecycle/internal/platform/config"
	pg "github.com/ogurasousui/company-lifecycle/internal/platform/db/postgres"
	"github.com/ogurasousui/company-lifecycle/internal/platform/db/sqlite"
	"github.com/ogurasousui/company-lifecycle/internal/platform/logger"
	"github.com/ogurasousui/company-lifecycle/internal/platform/server"
	"github.com/ogurasousui/company-lifecycle/internal/platform/telemetry"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server stopped with error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env が無い環境 (コンテナなど) では環境変数をそのまま使う。
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Log)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.close()

	composer, err := mail.NewComposer(cfg.Mail.Locale)
	if err != nil {
		return fmt.Errorf("load mail catalog: %w", err)
	}

	notifier, closeNotifier, err := openNotifier(cfg.Queue, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			log.Warn().Err(err).Msg("queue close failed")
		}
	}()

	svc := company.NewService(store.repo, composer, notifier,
		company.WithTransactionManager(store.tx),
		company.WithLogger(log),
	)

	verifier := auth.NewVerifier(cfg.Auth)
	grpcServer := server.New(cfg.Server.ListenAddr, svc, verifier, log)
	router := httpapi.NewRouter(
		httpapi.NewHandler(svc, log),
		httpapi.NewHealthHandler(httpapi.PingFunc(store.ping)),
		verifier,
		log,
	)
	httpServer := server.NewHTTP(cfg.HTTP, router)

	log.Info().
		Str("grpc_addr", cfg.Server.ListenAddr).
		Str("http_addr", cfg.HTTP.ListenAddr).
		Str("database", cfg.Database.Driver).
		Str("queue", cfg.Queue.Driver).
		Str("locale", composer.Locale()).
		Msg("company lifecycle service starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return grpcServer.Run(gctx) })
	g.Go(func() error { return httpServer.Run(gctx) })

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("company lifecycle service stopped")
	return nil
}

type store struct {
	repo  company.Repository
	tx    company.TransactionManager
	ping  func(context.Context) error
	close func()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg)
		if err != nil {
			return nil, err
		}
		if err := sqliterepo.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return &store{
			repo: sqliterepo.NewCompanyRepository(db),
			tx:   sqlite.NewTransactionManager(db),
			ping: func(ctx context.Context) error { return sqlite.Ping(ctx, db) },
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil
	default:
		pool, err := pg.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initialize database pool: %w", err)
		}
		return &store{
			repo:  pgrepo.NewCompanyRepository(pool),
			tx:    pg.NewTransactionManager(pool),
			ping:  pool.Ping,
			close: pool.Close,
		}, nil
	}
}

func openNotifier(cfg config.QueueConfig, log zerolog.Logger) (company.Notifier, func() error, error) {
	switch cfg.Driver {
	case config.QueueDriverKafka:
		p := kafka.NewProducer(cfg.Kafka)
		return p, p.Close, nil
	case config.QueueDriverRabbitMQ:
		p, err := rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return p, p.Close, nil
	default:
		return logqueue.New(log), func() error { return nil }, nil
	}
}
