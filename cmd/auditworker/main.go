// Command auditworker consumes audit events from Kafka and materializes
// them into the audit_events table. It requires both Postgres and Kafka;
// the in-memory fallbacks of the API server have no place here.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"vendora/internal/platform/config"
	kafkaconsumer "vendora/internal/platform/kafka/consumer"
	"vendora/internal/platform/logger"
	"vendora/internal/platform/postgres"
	auditconsumer "vendora/pkg/platform/audit/consumer"
	auditpg "vendora/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if cfg.PostgresDSN == "" {
		log.Error("VENDORA_POSTGRES_DSN is required")
		os.Exit(1)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Error("VENDORA_KAFKA_BROKERS is required")
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	router := auditconsumer.NewRouter(log, nil)
	router.Register(cfg.Kafka.AuditTopic, auditconsumer.NewMaterializeHandler(auditpg.New(db), log))

	worker, err := kafkaconsumer.New(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, []string{cfg.Kafka.AuditTopic}, router, log)
	if err != nil {
		log.Error("kafka connect failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("audit worker started",
		"topic", cfg.Kafka.AuditTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("audit worker stopped")
}
