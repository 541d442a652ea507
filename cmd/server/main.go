package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/TienxDun/DigiBook-sub002/internal/cart"
	"github.com/TienxDun/DigiBook-sub002/internal/catalog"
	"github.com/TienxDun/DigiBook-sub002/internal/checkout"
	"github.com/TienxDun/DigiBook-sub002/internal/coupon"
	h "github.com/TienxDun/DigiBook-sub002/internal/http"
	"github.com/TienxDun/DigiBook-sub002/internal/inventory"
	"github.com/TienxDun/DigiBook-sub002/internal/order"
	"github.com/TienxDun/DigiBook-sub002/internal/pricing"
	"github.com/TienxDun/DigiBook-sub002/internal/publisher"
	"github.com/TienxDun/DigiBook-sub002/internal/stock"
	"github.com/TienxDun/DigiBook-sub002/internal/usercart"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string

	MongoURI    string
	MongoDBName string

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	CatalogDBPath         string
	CatalogMigrationsPath string

	KafkaBrokers string

	FreeShippingThreshold float64
	FlatShippingFee       float64

	SyncQueueSize int
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		RequestTimeout:        15 * time.Second,
		ShutdownTimeout:       10 * time.Second,
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:           getEnv("MONGO_DB_NAME", "digibook"),
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                dbPort,
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            getEnv("DB_PASSWORD", "postgres"),
		DBName:                getEnv("DB_NAME", "digibook"),
		MigrationsPath:        getEnv("MIGRATIONS_PATH", "./migrations/postgres"),
		CatalogDBPath:         getEnv("CATALOG_DB_PATH", "./digibook_catalog.db"),
		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "./migrations/catalog"),
		KafkaBrokers:          getEnv("KAFKA_BROKERS", "localhost:9092"),
		FreeShippingThreshold: getEnvFloat("FREE_SHIPPING_THRESHOLD", 300000),
		FlatShippingFee:       getEnvFloat("FLAT_SHIPPING_FEE", 30000),
		SyncQueueSize:         256,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Fatalf("Invalid %s: %v", key, err)
		}
		return f
	}
	return defaultValue
}

func main() {
	log.Println("digibook server starting...")
	cfg := loadConfig()
	ctx := context.Background()
	var wg sync.WaitGroup

	// Catalog (sqlite)
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog database: %v", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		log.Fatalf("Failed to run catalog migrations: %v", err)
	}
	log.Println("Catalog migrations completed")

	// Orders, stock and coupons (postgres)
	creds := &order.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	orderRepo, err := order.NewPostgresRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	stockStore := inventory.NewPostgresStore(orderRepo.DB())
	couponRepo := coupon.NewPostgresRepository(orderRepo.DB())

	// Session cart store (redis)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Println("Redis ping succeeded")
	sessionStore := cart.NewRedisStore(redisClient)

	// Per-user cart mirror (mongo)
	mongoDB, err := usercart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	mirrorRepo := usercart.NewMongoRepository(mongoDB)
	if err := mirrorRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create MongoDB indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	// Core services
	lookup := stock.NewLookup(catalogRepo, stockStore)
	validator := stock.NewValidator(lookup)
	pricer := pricing.NewCalculator(pricing.Config{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
	})

	syncer := cart.NewSyncer(mirrorRepo, cfg.SyncQueueSize)
	cartService := cart.NewService(sessionStore, validator, syncer)
	finalizer := checkout.NewFinalizer(cartService, validator, pricer, couponRepo, orderRepo)

	// Background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		syncer.Run(workerCtx)
	}()

	outboxPoller := publisher.NewOutboxPoller(orderRepo, cfg.KafkaBrokers)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outboxPoller.Run(workerCtx)
	}()

	// HTTP edge
	cartHandler := h.NewCartHandler(cartService, pricer, couponRepo, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(finalizer, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(orderRepo, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)
	r.Use(h.MockAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{book_id}", cartHandler.AdjustQuantity)
			r.Delete("/items/{book_id}", cartHandler.RemoveItem)
			r.Post("/items/{book_id}/toggle", cartHandler.ToggleSelection)
			r.Post("/selection", cartHandler.ToggleAll)
			r.Post("/coupon", cartHandler.ApplyCoupon)
			r.Post("/bootstrap", cartHandler.Bootstrap)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/validate", checkoutHandler.Validate)
			r.Post("/", checkoutHandler.Commit)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{order_id}", ordersHandler.GetOrder)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "digibook"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("digibook listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	workerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Println("workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("workers didn't stop in time")
	}

	outboxPoller.Close()
	log.Println("digibook stopped")
}
