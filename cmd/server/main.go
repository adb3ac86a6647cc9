package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hotel-room-inventory/internal/cache"
	"github.com/iliyamo/hotel-room-inventory/internal/config"
	"github.com/iliyamo/hotel-room-inventory/internal/database"
	"github.com/iliyamo/hotel-room-inventory/internal/handler"
	"github.com/iliyamo/hotel-room-inventory/internal/hub"
	appmw "github.com/iliyamo/hotel-room-inventory/internal/middleware"
	"github.com/iliyamo/hotel-room-inventory/internal/queue"
	"github.com/iliyamo/hotel-room-inventory/internal/repository"
	"github.com/iliyamo/hotel-room-inventory/internal/router"
	"github.com/iliyamo/hotel-room-inventory/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting disabled, cache degrades to local tier")
	}

	// Event plumbing: the in-process bus fans committed changes out to the
	// cache invalidator, the realtime hub and the RabbitMQ publisher.
	bus := queue.NewBus(0)
	publisher := queue.NewPublisher(queue.BrokerURL())
	publisher.Attach(bus)
	go func() {
		if err := queue.StartAuditConsumer(queue.BrokerURL()); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	hotels := repository.NewHotelRepo(db)
	seq := repository.NewSequenceRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	store := service.NewStore(db, rooms, bookings, hotels, seq, bus)
	guard := service.NewGuard(store, cfg.GuardMaxAttempts, time.Duration(cfg.GuardBackoffMS)*time.Millisecond)
	engine := service.NewAssignmentEngine(store)

	cacheCfg := config.LoadCacheConfig()
	calc := service.NewCalculator(rooms, bookings, hotels, cacheCfg.TTL)
	snapshots := cache.New(cacheCfg, rdb)
	snapshots.AttachInvalidator(bus)

	sessions := hub.New(time.Duration(cfg.SessionIdleMin)*time.Minute, 30*time.Second)
	sessions.Attach(bus)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, handler.NewAvailabilityHandler(calc, snapshots), handler.NewSessionHandler(sessions))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterReservations(e, handler.NewReservationHandler(guard, engine), cfg.JWTSecret)
	router.RegisterRooms(e, handler.NewRoomHandler(store), cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	sessions.Close()
	bus.Close()
	publisher.Close()
}
