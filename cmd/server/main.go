package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/turf-booking/internal/bkash"
	"github.com/iliyamo/turf-booking/internal/config"
	"github.com/iliyamo/turf-booking/internal/database"
	"github.com/iliyamo/turf-booking/internal/handler"
	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/queue"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/router"
	"github.com/iliyamo/turf-booking/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the slot-listing response cache.
	// A nil client disables both and the API still serves.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and response cache disabled")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	turfUsers := repository.NewTurfUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewTurfProfileRepo(db)
	fields := repository.NewTurfFieldRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)

	// Payment provider client with its cached grant token.
	gateway := bkash.NewClient(bkash.Config{
		BaseURL:   cfg.BkashBaseURL,
		Username:  cfg.BkashUsername,
		Password:  cfg.BkashPassword,
		AppKey:    cfg.BkashAppKey,
		AppSecret: cfg.BkashAppSecret,
	})

	// Services
	reservations := service.NewReservationService(fields, bookings)
	paymentSvc := service.NewPaymentService(payments, bookings, profiles, gateway, cfg.AppBaseURL)
	settlement := service.NewSettlementService(payments, bookings, profiles, fields, gateway, cfg.FrontendURL)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, turfUsers, profiles, tokens)
	ownerH := handler.NewOwnerHandler(profiles, fields, users)
	bookingH := handler.NewBookingHandler(reservations, profiles, fields)
	paymentH := handler.NewPaymentHandler(paymentSvc, settlement)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, bookingH, paymentH, rdb, config.LoadCacheConfig())
	router.RegisterBooking(e, bookingH, paymentH, cfg.JWTSecret)
	router.RegisterOwner(e, ownerH, cfg.JWTSecret)

	// Background consumer appending confirmed bookings to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
