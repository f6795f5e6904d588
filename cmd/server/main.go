package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/snowflake"
	"github.com/iliyamo/event-ticketing/internal/ticketing"
	"github.com/iliyamo/event-ticketing/internal/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: middleware degrades to pass-through when nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	ids := snowflake.New(cfg.SnowflakeWorker)
	codec := token.New(cfg.CheckinSecret, cfg.CheckinTokenTTL)

	store := repository.NewTicketingStore(db)
	issuer := ticketing.NewIssuer(store, ids)
	catalog := ticketing.NewCatalog(store)
	checkins := ticketing.NewCheckinService(store, codec)

	staffRepo := repository.NewStaffRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	merchantRepo := repository.NewMerchantRepo(db)
	grantRepo := repository.NewGrantRepo(db)
	eventRepo := repository.NewEventRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	checkinRepo := repository.NewCheckinRepo(db)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, staffRepo, tokenRepo, merchantRepo),
		Staff:   handler.NewStaffHandler(cfg, staffRepo, grantRepo, eventRepo),
		Event:   handler.NewEventHandler(eventRepo, catalog, store),
		Ticket:  handler.NewTicketHandler(issuer, ticketRepo, checkinRepo, codec),
		Checkin: handler.NewCheckinHandler(checkins, grantRepo, checkinRepo, eventRepo),
	}

	// Background audit consumer; reconnects forever on its own.
	go func() {
		if err := queue.StartCheckinConsumer(); err != nil {
			log.Printf("checkin consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
