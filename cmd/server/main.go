package main // Entry point package

import (
	"context" // background context for maintenance jobs
	"log"     // Logging library
	"time"    // durations for lock tuning

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/restaurant-table-booking/internal/booking"    // booking transaction orchestrator
	"github.com/iliyamo/restaurant-table-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/restaurant-table-booking/internal/database"   // MySQL connection helper
	"github.com/iliyamo/restaurant-table-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/restaurant-table-booking/internal/lock"       // distributed booking locks
	"github.com/iliyamo/restaurant-table-booking/internal/middleware" // rate limiting and response cache
	"github.com/iliyamo/restaurant-table-booking/internal/queue"      // booking event consumer
	"github.com/iliyamo/restaurant-table-booking/internal/repository" // DB repositories
	"github.com/iliyamo/restaurant-table-booking/internal/router"     // Internal router setup
	queue_publisher "github.com/iliyamo/restaurant-table-booking/internal/service"
)

func main() {
	// Load a .env file when present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// MySQL is the system of record for bookings and policy.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the distributed booking locks plus rate limiting and
	// the availability response cache.  When it is unreachable the locks
	// fall back to the in-process store, which is only safe for a single
	// instance; caching and rate limiting simply switch off.
	rdb := config.NewRedisClient()
	var lockStore lock.Store
	if rdb != nil {
		lockStore = lock.NewRedisStore(rdb)
	} else {
		log.Println("redis unavailable: using in-process lock store (single instance only)")
		lockStore = lock.NewMemStore()
	}
	locks := lock.NewCoordinator(lockStore, lock.Options{
		TTL:       time.Duration(cfg.LockTTLMs) * time.Millisecond,
		MaxWait:   time.Duration(cfg.LockMaxWaitMs) * time.Millisecond,
		WindowMin: cfg.LockWindowMin,
	})

	// Repositories over the shared *sql.DB.
	restaurants := repository.NewRestaurantRepo(db, time.Duration(cfg.PolicyCacheTTLSec)*time.Second)
	tables := repository.NewTableRepo(db)
	bookings := repository.NewBookingRepo(db)
	waitlist := repository.NewWaitlistRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	engine := booking.NewEngine(restaurants, tables, bookings, waitlist, locks, queue_publisher.New(), booking.Config{
		MaxCombineTables: cfg.MaxCombineTables,
		PersistRetries:   cfg.PersistRetries,
	})

	// Background consumer appends booking lifecycle events to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// Hourly cleanup of expired refresh tokens.
	go func() {
		for range time.Tick(time.Hour) {
			if n, err := tokens.PurgeExpired(context.Background()); err != nil {
				log.Printf("token purge: %v", err)
			} else if n > 0 {
				log.Printf("token purge: removed %d expired tokens", n)
			}
		}
	}()

	e := echo.New() // Create Echo instance

	// Distributed token-bucket rate limiting in front of everything.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)

	// Availability listing is public and cacheable.
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}
	router.RegisterPublic(e, handler.NewAvailabilityHandler(engine), cacheMW)
	bookingHandler := handler.NewBookingHandler(engine, bookings, waitlist)
	router.RegisterLookup(e, bookingHandler)
	router.RegisterBooking(e,
		bookingHandler,
		handler.NewStaffBookingHandler(engine, bookings, restaurants),
		cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
