package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-busbooking/internal/auth"
	"ms-busbooking/internal/booking"
	bookingapi "ms-busbooking/internal/booking/api"
	bookingdb "ms-busbooking/internal/booking/db"
	"ms-busbooking/internal/booking/kafka"
	"ms-busbooking/internal/booking/qr"
	rediswrap "ms-busbooking/internal/booking/redis"
	"ms-busbooking/internal/config"
	"ms-busbooking/internal/logger"
	"ms-busbooking/internal/schedule"
	scheduleapi "ms-busbooking/internal/schedule/api"
	scheduledb "ms-busbooking/internal/schedule/db"
)

func connectDatabase(cfg *config.Config) *bun.DB {
	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("❌ Failed to open Postgres: %v", err)
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatalf("❌ Failed to connect to Postgres: %v", err)
	}
	log.Println("[Database] Postgres connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	ctx := context.Background()
	cfg := config.Load()
	appLog := logger.NewLogger()
	defer appLog.Close()

	// --- PostgreSQL Setup ---
	bunDB := connectDatabase(cfg)
	defer bunDB.Close()
	bookingdb.Migrate(bunDB)

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	log.Println("🔗 Connecting to Redis...")
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	// --- Stripe Setup ---
	booking.InitStripe()

	// --- Initialize Dependencies ---
	holds := rediswrap.NewHolds(redisClient)
	holds.TTL = cfg.Redis.HoldTTL

	var events booking.EventPublisher = kafka.NopProducer{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		events = producer
	}

	bookingDB := &bookingdb.DB{Bun: bunDB}
	qrGen := qr.NewGenerator(cfg.QRSecret)

	log.Println("📦 Initializing Booking Service...")
	bookingService := booking.NewService(bookingDB, holds, events, qrGen, appLog)
	bookingHandler := &bookingapi.Handler{BookingService: bookingService, Logger: appLog}

	scheduleService := schedule.NewService(&scheduledb.DB{Bun: bunDB}, appLog)
	scheduleHandler := &scheduleapi.Handler{ScheduleService: scheduleService, Logger: appLog}

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schedules", scheduleHandler.SearchSchedules)
		r.Get("/schedules/{scheduleId}", scheduleHandler.GetSchedule)
		r.Get("/schedules/{scheduleId}/seats", bookingHandler.SeatMap)

		r.Post("/webhooks/stripe", bookingHandler.StripeWebhook)

		// Passenger routes need a valid JWT.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())

			r.Post("/bookings", bookingHandler.CreateBooking)
			r.Delete("/bookings/{ticketId}", bookingHandler.CancelBooking)
			r.Post("/bookings/{ticketId}/payment-intent", bookingHandler.CreatePaymentIntent)
			r.Get("/tickets", bookingHandler.ListMyTickets)
			r.Get("/tickets/{ticketId}", bookingHandler.GetTicket)
		})

		// Operator routes.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())

			r.Post("/schedules", scheduleHandler.PublishSchedule)
			r.Delete("/schedules/{scheduleId}", scheduleHandler.DeactivateSchedule)
			r.Post("/bookings/{ticketId}/confirm", bookingHandler.ConfirmBooking)
			r.Post("/schedules/{scheduleId}/seats/block", bookingHandler.BlockSeats)
			r.Post("/schedules/{scheduleId}/seats/unblock", bookingHandler.UnblockSeats)
		})
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("🚀 Booking Service running on %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("📦 Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}
