package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ganaa/loantrack/internal/auth"
	"github.com/ganaa/loantrack/internal/cache"
	"github.com/ganaa/loantrack/internal/config"
	"github.com/ganaa/loantrack/internal/handler"
	"github.com/ganaa/loantrack/internal/repository"
	"github.com/ganaa/loantrack/internal/service"
	"github.com/ganaa/loantrack/pkg/response"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.GetTokenTTL())
	statsCache := cache.NewStatsCache(redisClient, cfg.GetStatsTTL())

	loanService := service.NewLoanService(loanRepo, paymentRepo, customerRepo, statsCache)
	customerService := service.NewCustomerService(customerRepo, loanRepo)
	authService := service.NewAuthService(userRepo, tokens)

	loanHandler := handler.NewLoanHandler(loanService)
	customerHandler := handler.NewCustomerHandler(customerService)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(tokens, loanHandler, customerHandler, authHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	tokens *auth.TokenManager,
	loanHandler *handler.LoanHandler,
	customerHandler *handler.CustomerHandler,
	authHandler *handler.AuthHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// Public auth routes
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Authenticated routes
	protected := api.NewRoute().Subrouter()
	protected.Use(handler.AuthMiddleware(tokens))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	protected.HandleFunc("/loans", loanHandler.GetLoans).Methods("GET")
	protected.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	protected.HandleFunc("/loans/stats", loanHandler.GetStats).Methods("GET")
	protected.HandleFunc("/loans/{id}", loanHandler.GetLoan).Methods("GET")
	protected.HandleFunc("/loans/{id}", loanHandler.UpdateLoan).Methods("PUT")
	protected.HandleFunc("/loans/{id}", loanHandler.DeleteLoan).Methods("DELETE")
	protected.HandleFunc("/loans/{id}/paid", loanHandler.MarkPaid).Methods("PATCH")
	protected.HandleFunc("/loans/{id}/payments", loanHandler.GetPayments).Methods("GET")
	protected.HandleFunc("/loans/{id}/payments", loanHandler.AddPayment).Methods("POST")
	protected.HandleFunc("/loans/{id}/payments/{paymentId}", loanHandler.RemovePayment).Methods("DELETE")

	protected.HandleFunc("/customers", customerHandler.GetCustomers).Methods("GET")
	protected.HandleFunc("/customers", customerHandler.CreateCustomer).Methods("POST")
	protected.HandleFunc("/customers/{id}", customerHandler.GetCustomer).Methods("GET")
	protected.HandleFunc("/customers/{id}", customerHandler.UpdateCustomer).Methods("PUT")
	protected.HandleFunc("/customers/{id}", customerHandler.DeleteCustomer).Methods("DELETE")
	protected.HandleFunc("/customers/{id}/stats", customerHandler.GetCustomerStats).Methods("GET")

	return router
}
