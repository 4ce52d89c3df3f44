package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"    // Optional .env bootstrap
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/train-ticket-inventory/internal/allocation"
	"github.com/iliyamo/train-ticket-inventory/internal/cachesync"
	"github.com/iliyamo/train-ticket-inventory/internal/config"
	"github.com/iliyamo/train-ticket-inventory/internal/database"
	"github.com/iliyamo/train-ticket-inventory/internal/handler"
	"github.com/iliyamo/train-ticket-inventory/internal/orderlock"
	"github.com/iliyamo/train-ticket-inventory/internal/queue"
	"github.com/iliyamo/train-ticket-inventory/internal/remote"
	"github.com/iliyamo/train-ticket-inventory/internal/repository"
	"github.com/iliyamo/train-ticket-inventory/internal/router"
	"github.com/iliyamo/train-ticket-inventory/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		// The remaining-ticket cache and the order locks both live in
		// redis; without it the engine cannot run correctly.
		log.Fatal("redis unavailable")
	}

	seatRepo := repository.NewSeatRepo(db)
	dispatcher, err := allocation.DefaultDispatcher(seatRepo)
	if err != nil {
		log.Fatalf("build dispatcher: %v", err)
	}
	coordinator := allocation.NewCoordinator(dispatcher, seatRepo, allocation.PoolConfig{
		Workers:     cfg.AllocWorkers,
		QueueDepth:  cfg.AllocQueueDepth,
		TaskTimeout: cfg.AllocTaskTimeout,
	})
	defer coordinator.Close()

	cache := cachesync.NewRedisCache(rdb)
	syncer := cachesync.NewSyncer(cache)
	consumer := &queue.SeatFeedConsumer{
		URL:       cfg.RabbitURL,
		QueueName: cfg.SeatFeedQueue,
		Sink:      syncer,
	}
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	go func() {
		if err := consumer.Run(feedCtx); err != nil && feedCtx.Err() == nil {
			log.Printf("seat-feed consumer stopped: %v", err)
		}
	}()

	locks := orderlock.NewManager(orderlock.NewRedisStore(rdb), cfg.OrderLockTTL, cfg.OrderLockRetry)
	orderRepo := repository.NewOrderRepo(db)
	priceRepo := repository.NewPriceRepo(db)
	profiles := remote.NewProfileClient(cfg.ProfileBaseURL)

	tickets := service.NewTicketService(coordinator, profiles, priceRepo, orderRepo)
	orders := service.NewOrderService(orderRepo, seatRepo, locks)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterTickets(e, handler.NewTicketHandler(tickets, orders, cache))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
