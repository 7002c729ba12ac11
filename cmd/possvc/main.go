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

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sufianahinfo/sufianah-pos/internal/catalog"
	"github.com/sufianahinfo/sufianah-pos/internal/counter"
	"github.com/sufianahinfo/sufianah-pos/internal/httpapi"
	"github.com/sufianahinfo/sufianah-pos/internal/inventory"
	"github.com/sufianahinfo/sufianah-pos/internal/ledger"
	"github.com/sufianahinfo/sufianah-pos/internal/publisher"
	"github.com/sufianahinfo/sufianah-pos/internal/sales"
	"github.com/sufianahinfo/sufianah-pos/internal/session"
)

type Config struct {
	HTTPPort             string
	SQLitePath           string
	CatalogMigrationsDir string
	RedisAddr            string
	RedisPassword        string
	MongoURI             string
	MongoDBName          string
	KafkaBrokers         []string
	PostgresHost         string
	PostgresPort         string
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	LedgerMigrationsDir  string
	RequestTimeout       time.Duration
	ShutdownTimeout      time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		SQLitePath:           getEnv("SQLITE_PATH", "catalog.db"),
		CatalogMigrationsDir: getEnv("CATALOG_MIGRATIONS_DIR", "internal/catalog/migrations"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:          getEnv("MONGO_DB_NAME", "posdb"),
		KafkaBrokers:         strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:         getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:           getEnv("POSTGRES_DB", "ledgerdb"),
		LedgerMigrationsDir:  getEnv("LEDGER_MIGRATIONS_DIR", "internal/ledger/migrations"),
		RequestTimeout:       30 * time.Second,
		ShutdownTimeout:      10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Product catalog (SQLite)
	catalogRepo, err := catalog.NewRepository(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open catalog database: %v", err)
	}
	defer catalogRepo.Close()

	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsDir); err != nil {
		log.Fatalf("Failed to run catalog migrations: %v", err)
	}
	log.Printf("Catalog database ready at %s", cfg.SQLitePath)

	// Redis (product cache + invoice counter)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	// Stock ledger seeded from the catalog
	stocks := inventory.NewStore()
	cache := catalog.NewRedisCache(redisClient)
	catalogSvc := catalog.NewService(catalogRepo, cache, stocks)
	if err := catalogSvc.SeedStocks(ctx); err != nil {
		log.Fatalf("Failed to seed stock levels: %v", err)
	}

	// Sales store (MongoDB)
	mongoDB, err := sales.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	if err := sales.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create sales indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	saleRepo := sales.NewMongoRepository(mongoDB)
	invoices := counter.NewRedisCounter(redisClient)
	salesSvc := sales.NewService(saleRepo, stocks, invoices)

	// Checkout sessions
	sessions := session.NewStore()
	defer sessions.Close()

	// Outbox poller publishing completed sales to Kafka
	poller := publisher.NewOutboxPoller(saleRepo, cfg.KafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)

	// Ledger consumer (Kafka -> PostgreSQL)
	pgPort, err := strconv.Atoi(cfg.PostgresPort)
	if err != nil {
		log.Fatalf("Invalid POSTGRES_PORT: %v", err)
	}
	ledgerCreds := &ledger.Credentials{
		Host:              cfg.PostgresHost,
		Port:              pgPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.LedgerMigrationsDir,
	}
	ledgerRepo, err := ledger.NewRepository(ledgerCreds)
	if err != nil {
		log.Fatalf("Failed to connect to ledger database: %v", err)
	}
	defer ledgerRepo.Close()
	if err := ledgerRepo.RunMigrations(ledgerCreds); err != nil {
		log.Fatalf("Failed to run ledger migrations: %v", err)
	}

	consumer := ledger.NewConsumer(ledgerRepo, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	// HTTP API
	checkoutHandler := httpapi.NewCheckoutHandler(sessions, catalogSvc, salesSvc, cfg.RequestTimeout)
	productHandler := httpapi.NewProductHandler(catalogSvc, cfg.RequestTimeout)
	salesHandler := httpapi.NewSalesHandler(salesSvc, cfg.RequestTimeout)

	router := httpapi.NewRouter(checkoutHandler, productHandler, salesHandler, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "possvc"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("POS service starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
