package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/stefanjelkic00/TechShop/internal/credentials"
	h "github.com/stefanjelkic00/TechShop/internal/http"
	"github.com/stefanjelkic00/TechShop/internal/locker"
	"github.com/stefanjelkic00/TechShop/internal/notifier"
	"github.com/stefanjelkic00/TechShop/internal/publisher"
	"github.com/stefanjelkic00/TechShop/internal/repository"
	"github.com/stefanjelkic00/TechShop/internal/service"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	KafkaBrokers    []string
	SendGridAPIKey  string
	MailFrom        string
	JWTSecret       string
	JWTTTL          time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		MailFrom:        getEnv("MAIL_FROM", "orders@techshop.local"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
		JWTTTL:          24 * time.Hour,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("techshop starting...")

	cfg := loadConfig()

	// Database setup
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "techshop")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./internal/repository/migrations")

	port, err := strconv.Atoi(dbPort)
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	creds := &repository.Credentials{
		Host:              dbHost,
		Port:              port,
		User:              dbUser,
		Password:          dbPass,
		DBName:            dbName,
		MigrationsDirPath: migrationsPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	cartLocker := locker.NewRedisCartLocker(cfg.RedisAddr)
	defer cartLocker.Close()

	mailNotifier := notifier.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFrom)
	issuer := credentials.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)

	fulfillment := service.NewFulfillmentService(repo, cartLocker, mailNotifier, issuer)
	lifecycle := service.NewLifecycleService(repo, mailNotifier, issuer)

	// Outbox poller keeps the search index mirror in sync with the
	// stock ledger, independently of request lifecycles.
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	poller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	checkoutHandler := h.NewCheckoutHandler(fulfillment, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(repo, lifecycle, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware(issuer))
		r.Post("/checkout", checkoutHandler.Checkout)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
			r.Patch("/{order_id}", ordersHandler.UpdateOrder)
			r.Delete("/{order_id}", ordersHandler.DeleteOrder)
		})
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: otelhttp.NewHandler(r, "techshop"),
	}

	go func() {
		log.Printf("techshop listening on :%s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down techshop...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	stopPoller()
	if err := poller.Close(); err != nil {
		log.Printf("Poller close error: %v", err)
	}

	log.Println("techshop stopped")
}
