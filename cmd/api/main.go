package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/eazyparking/parking-bookings/internal/http/handlers"
	internalmw "github.com/eazyparking/parking-bookings/internal/http/middleware"
	"github.com/eazyparking/parking-bookings/internal/platform/mailer"
	"github.com/eazyparking/parking-bookings/internal/platform/payments"
	"github.com/eazyparking/parking-bookings/internal/repo/postgres"
	"github.com/eazyparking/parking-bookings/internal/service"
	"github.com/eazyparking/parking-bookings/pkg/config"
	"github.com/eazyparking/parking-bookings/pkg/database"
	"github.com/eazyparking/parking-bookings/pkg/events"
	"github.com/eazyparking/parking-bookings/pkg/logger"
	mw "github.com/eazyparking/parking-bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Repositories
	lotRepo := postgres.NewParkingLotRepo(pool)
	bookingRepo := postgres.NewBookingRepo(pool)
	vehicleRepo := postgres.NewVehicleRepo(pool)
	userRepo := postgres.NewUserRepo(pool)
	catRepo := postgres.NewCategoryRepo(pool)
	statsRepo := postgres.NewStatsRepo(pool)

	// Platform
	provider := payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	var mail mailer.Service
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Services
	authService := service.NewAuthService(userRepo, cfg)
	bookingService := service.NewBookingService(bookingRepo, vehicleRepo, lotRepo, userRepo, catRepo, eventBus, cfg)
	paymentService := service.NewPaymentService(provider, bookingRepo, lotRepo, userRepo, catRepo, eventBus, cfg)

	notifier := service.NewNotifier(mail)
	if err := notifier.Start(eventBus); err != nil {
		logger.Error("Failed to start notifier", "error", err)
		os.Exit(1)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	lotHandler := handlers.NewParkingLotHandler(lotRepo)
	catHandler := handlers.NewCategoryHandler(catRepo)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	vehicleHandler := handlers.NewVehicleHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	dashHandler := handlers.NewDashboardHandler(statsRepo, userRepo, bookingService)

	authLimiter := internalmw.NewRateLimiter(rdb, internalmw.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		KeyFunc:  internalmw.IPKeyFunc,
	})
	checkoutLimiter := internalmw.NewRateLimiter(rdb, internalmw.RateLimitConfig{
		Requests: 30,
		Window:   time.Minute,
		KeyFunc:  internalmw.IPKeyFunc,
	})

	requireUser := internalmw.RequireJWT(cfg.Auth.JWTSecret, "user", "admin")
	requireAdmin := internalmw.RequireJWT(cfg.Auth.JWTSecret, "admin")

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Stripe calls the webhook unauthenticated; the signature header is
	// its credential.
	r.Post("/api/stripe/webhook", paymentHandler.Webhook)

	r.Route("/api", func(r chi.Router) {
		r.With(authLimiter.Middleware()).Mount("/auth", authHandler.Routes())
		r.With(authLimiter.Middleware()).Mount("/admin/auth", authHandler.AdminRoutes())

		r.Mount("/locations", lotHandler.Routes())

		r.Route("/user", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/profile", authHandler.Profile)
			r.Get("/report", dashHandler.UserReport)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(requireUser)
			r.Mount("/", bookingHandler.Routes())
		})

		r.Route("/payment", func(r chi.Router) {
			r.Use(requireUser)
			r.Use(checkoutLimiter.Middleware())
			r.Mount("/", paymentHandler.Routes())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/profile", authHandler.Profile)
			r.Mount("/parking-lots", lotHandler.AdminRoutes())
			r.Mount("/categories", catHandler.Routes())
			r.Mount("/bookings", bookingHandler.AdminRoutes())
			r.Mount("/vehicles", vehicleHandler.Routes())
			r.Mount("/dashboard", dashHandler.AdminRoutes())
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}
