package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"checkout-flow-api/config"
	"checkout-flow-api/handlers"
	"checkout-flow-api/logger"
	"checkout-flow-api/middleware"
	"checkout-flow-api/services/payment"
	"checkout-flow-api/services/payment/checkoutcom"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("Invalid configuration", "error", err)
	}
	log.Infow("Configuration loaded", "env", cfg.Env, "checkout_environment", cfg.Checkout.Environment)

	var clientOpts []checkoutcom.Option
	if cfg.Checkout.BaseURL != "" {
		clientOpts = append(clientOpts, checkoutcom.WithBaseURL(cfg.Checkout.BaseURL))
	}
	gateway := checkoutcom.NewClient(cfg.Checkout.SecretKey, cfg.Checkout.Environment, log, clientOpts...)
	log.Infow("Payment gateway client ready", "base_url", gateway.BaseURL())

	paymentService := payment.NewPaymentService(gateway, payment.Settings{
		ProcessingChannelID: cfg.Checkout.ProcessingChannelID,
		SuccessURL:          cfg.Server.SuccessURL(),
		FailureURL:          cfg.Server.FailureURL(),
		Commerce:            cfg.Commerce,
	}, log)

	sessions := handlers.NewCheckoutSessions(cfg.Session, log)
	paymentHandler, err := handlers.NewPaymentHandler(paymentService, sessions, log)
	if err != nil {
		log.Fatalw("Failed to initialize payment handler", "error", err)
	}

	// Rate limiting needs Redis. Without it the server still runs.
	var limiter *middleware.RateLimiter
	if cfg.Redis.URL != "" {
		limiter, err = middleware.NewRateLimiter(cfg.Redis.URL, log)
		if err != nil {
			log.Warnw("Rate limiting disabled", "error", err)
			limiter = nil
		} else {
			defer limiter.Close()
			log.Infow("Rate limiting enabled")
		}
	}

	var healthHandler *handlers.HealthHandler
	if limiter != nil {
		healthHandler = handlers.NewHealthHandler(limiter)
	} else {
		healthHandler = handlers.NewHealthHandler(nil)
	}

	router := mux.NewRouter()
	router.Use(middleware.Logging(log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.PublicURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.SecurityHeadersMiddleware)
	if limiter != nil {
		router.Use(limiter.Middleware)
	}

	router.HandleFunc("/process-payment", paymentHandler.ProcessPayment).Methods("POST", "OPTIONS")
	router.HandleFunc("/success", paymentHandler.Success).Methods("GET")
	router.HandleFunc("/failure", paymentHandler.Failure).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/payment-context", paymentHandler.CreatePaymentContext).Methods("POST", "OPTIONS")
	api.HandleFunc("/payments", paymentHandler.FinalizePayment).Methods("POST", "OPTIONS")
	api.HandleFunc("/ideal-payments", paymentHandler.CreateRedirectPayment).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/session", paymentHandler.CheckoutSession).Methods("GET", "OPTIONS")
	api.HandleFunc("/health", healthHandler.Health).Methods("GET")

	srv := &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Infow("Server starting", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("Server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Infow("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}

	log.Infow("Server exited properly")
}
