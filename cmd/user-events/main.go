// Package main runs the user events consumer: it binds a durable queue to the
// users exchange and logs every created and deleted user.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"user-service/internal/userevents"
	"user-service/pkg/config"
	"user-service/pkg/logger"
	"user-service/pkg/rabbitmq"
)

func main() {
	cfg := config.LoadForService("USER_EVENTS")

	log := logger.New("user-events", cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := rabbitmq.NewConnection(cfg.RabbitMQURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()

	consumer, err := userevents.NewConsumer(conn, cfg.EventsQueue, cfg.UsersExchange, log)
	if err != nil {
		log.Fatal("failed to create user events consumer", zap.Error(err))
	}
	if err := consumer.Start(ctx); err != nil {
		log.Fatal("failed to start user events consumer", zap.Error(err))
	}

	<-ctx.Done()

	created, deleted := consumer.Counts()
	log.Info("user events consumer stopped",
		zap.Int64("created", created),
		zap.Int64("deleted", deleted),
	)
}
