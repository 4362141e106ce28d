// Command server runs the vendora HTTP API plus the audit outbox relay.
// Postgres, Redis, and Kafka are each optional: when unconfigured, the
// corresponding collaborator falls back to an in-memory implementation so
// the server stays runnable for local development.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vendora/internal/booking"
	bookinghandler "vendora/internal/booking/handler"
	bookingservice "vendora/internal/booking/service"
	bookingmemory "vendora/internal/booking/store/memory"
	bookingpg "vendora/internal/booking/store/postgres"
	"vendora/internal/broadcast"
	"vendora/internal/identity"
	identityhandler "vendora/internal/identity/handler"
	"vendora/internal/notification"
	"vendora/internal/order"
	orderhandler "vendora/internal/order/handler"
	orderservice "vendora/internal/order/service"
	ordermemory "vendora/internal/order/store/memory"
	orderpg "vendora/internal/order/store/postgres"
	"vendora/internal/platform/config"
	"vendora/internal/platform/httpserver"
	"vendora/internal/platform/kafka/producer"
	"vendora/internal/platform/logger"
	"vendora/internal/platform/metrics"
	"vendora/internal/platform/postgres"
	platformredis "vendora/internal/platform/redis"
	"vendora/internal/points"
	pointshandler "vendora/internal/points/handler"
	pointsmemory "vendora/internal/points/store/memory"
	pointspg "vendora/internal/points/store/postgres"
	"vendora/internal/ratelimit"
	httptransport "vendora/internal/transport/http"
	"vendora/internal/wallet"
	wallethandler "vendora/internal/wallet/handler"
	walletservice "vendora/internal/wallet/service"
	walletmemory "vendora/internal/wallet/store/memory"
	walletpg "vendora/internal/wallet/store/postgres"
	"vendora/pkg/domain"
	"vendora/pkg/platform/audit/publisher"
	"vendora/pkg/platform/audit/relay"
	auditmemory "vendora/pkg/platform/audit/store/memory"
	auditpg "vendora/pkg/platform/audit/store/postgres"
	"vendora/pkg/platform/orchestrator"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}

	kafkaProducer, err := producer.New(cfg.Kafka.Brokers)
	if err != nil {
		log.Error("kafka connect failed", "error", err)
		os.Exit(1)
	}

	// Unit of work and audit sink follow the persistence mode.
	var uow orchestrator.UnitOfWork
	var auditSink *publisher.Publisher
	if db != nil {
		uow = orchestrator.NewSQLUnitOfWork(db, cfg.TxTimeout)
		auditSink = publisher.New(auditpg.New(db), log)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		uow = orchestrator.NewMemoryUnitOfWork()
		auditSink = publisher.New(auditmemory.New(), log)
	}

	var notifier orchestrator.Notifier
	if kafkaProducer != nil {
		notifier = notification.NewKafkaNotifier(kafkaProducer, cfg.Kafka.NotificationTopic, log)
	} else {
		notifier = notification.NewMemoryNotifier()
	}

	var broadcaster orchestrator.Broadcaster
	if redisClient != nil {
		broadcaster = broadcast.NewRedisBroadcaster(redisClient, log)
	} else {
		broadcaster = broadcast.NewMemoryBroadcaster()
	}

	var pointsStore points.Store
	if db != nil {
		pointsStore = pointspg.NewStore(db)
	} else {
		pointsStore = pointsmemory.NewStore()
	}

	pointsSvc := points.NewService(pointsStore, log)
	fanout := orchestrator.NewFanout(orchestrator.Collaborators{
		Audit:       auditSink,
		Notifier:    notifier,
		Broadcaster: broadcaster,
		Points:      pointsSvc,
	}, log, m)
	orch := orchestrator.New(uow, fanout, log, m)

	bookingSvc := bookingservice.NewService(bookingStore(db), orch)
	walletSvc := walletservice.NewService(walletStore(db), orch)
	orderSvc := orderservice.NewService(orderStore(db), orch)

	tokens := identity.NewTokenService(cfg.JWTSigningKey, "vendora", time.Hour)
	creds := identity.NewMemoryCredentialStore()
	if cfg.BootstrapEmail != "" && cfg.BootstrapPassword != "" {
		if err := creds.Add(domain.NewUserID(), cfg.BootstrapEmail, cfg.BootstrapPassword, "admin", "en"); err != nil {
			log.Error("bootstrap credential seeding failed", "error", err)
			os.Exit(1)
		}
	}
	loginSvc := identity.NewLoginService(creds, tokens, auditSink, log)

	var limiterStore ratelimit.Store
	if redisClient != nil {
		limiterStore = ratelimit.NewRedisStore(redisClient)
	} else {
		limiterStore = ratelimit.NewMemoryStore()
	}
	loginLimiter := ratelimit.New(limiterStore, cfg.LoginRateLimit, time.Minute, log)

	router := httptransport.NewRouter(httptransport.Handlers{
		Auth:         identityhandler.NewHandler(loginSvc, log),
		Booking:      bookinghandler.NewHandler(bookingSvc, log),
		Wallet:       wallethandler.NewHandler(walletSvc, log),
		Order:        orderhandler.NewHandler(orderSvc, log),
		Points:       pointshandler.NewHandler(pointsSvc, log),
		LoginLimiter: loginLimiter.Limit,
	}, tokens, m, log)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if db != nil && kafkaProducer != nil {
		outboxRelay := relay.New(db, kafkaProducer, cfg.Kafka.AuditTopic, log, m, time.Second)
		group.Go(func() error {
			log.Info("starting audit outbox relay", "topic", cfg.Kafka.AuditTopic)
			if err := outboxRelay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}

	if kafkaProducer != nil {
		kafkaProducer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Info("shutdown complete")
}

func bookingStore(db *sql.DB) booking.Store {
	if db != nil {
		return bookingpg.NewStore(db)
	}
	return bookingmemory.NewStore()
}

func walletStore(db *sql.DB) wallet.Store {
	if db != nil {
		return walletpg.NewStore(db)
	}
	return walletmemory.NewStore()
}

func orderStore(db *sql.DB) order.Store {
	if db != nil {
		return orderpg.NewStore(db)
	}
	return ordermemory.NewStore()
}
