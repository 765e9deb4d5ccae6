package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/classyshop/go-order-intake/internal/config"
	"github.com/classyshop/go-order-intake/internal/httpx"
	kafkax "github.com/classyshop/go-order-intake/internal/kafka"
	"github.com/classyshop/go-order-intake/internal/metrics"
	"github.com/classyshop/go-order-intake/internal/notify"
	"github.com/classyshop/go-order-intake/internal/orders"
	"github.com/classyshop/go-order-intake/internal/postgres"
	"github.com/classyshop/go-order-intake/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET no esta definido; los tokens de usuario no seran validos")
	}
	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN no esta definido; las rutas administrativas quedan deshabilitadas")
	}

	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prod.Start(ctx)

	m := metrics.New(cfg.ServiceName, prometheus.DefaultRegisterer)

	oh := &httpx.OrdersHandler{
		Store:    &orders.Repo{DB: db},
		Producer: prod,
		Cache:    redisx.Cache{R: rdb},
		Notify: &notify.Dispatcher{
			Invoices: notify.PDFRenderer{},
			Mail: &notify.SMTPSender{
				Host:     cfg.EmailHost,
				Port:     cfg.EmailPort,
				Username: cfg.EmailUser,
				Password: cfg.EmailPass,
				From:     cfg.EmailFrom,
			},
		},
		Metrics: m,
		Service: cfg.ServiceName,
	}

	auth := &httpx.Auth{JWTSecret: cfg.JWTSecret, AdminToken: cfg.AdminToken}
	router := httpx.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)
		oh.Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx) // no more publishes after this
	prod.Close()
	prod.WaitClosed()
	cancel()
}
