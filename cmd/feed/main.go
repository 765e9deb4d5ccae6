package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/classyshop/go-order-intake/internal/config"
	"github.com/classyshop/go-order-intake/internal/feed"
	kafkax "github.com/classyshop/go-order-intake/internal/kafka"
	"github.com/classyshop/go-order-intake/internal/orders"
	"github.com/classyshop/go-order-intake/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &feed.Service{
		Cache:       redisx.Cache{R: rdb},
		ServiceName: cfg.ServiceName + "-feed",
	}

	group := getenv("FEED_GROUP", "order-feed")
	workers := atoiOr(os.Getenv("FEED_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers)

	go func() {
		slog.Info("feed consumer started", "group", group, "topic", orders.TopicOrderCreated, "workers", workers)
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			slog.Error("consumer exited", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	slog.Info("shutting down feed consumer")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
