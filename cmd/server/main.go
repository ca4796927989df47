package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-listing-platform/internal/config"
	"github.com/iliyamo/event-listing-platform/internal/database"
	"github.com/iliyamo/event-listing-platform/internal/handler"
	"github.com/iliyamo/event-listing-platform/internal/queue"
	"github.com/iliyamo/event-listing-platform/internal/repository"
	"github.com/iliyamo/event-listing-platform/internal/router"
	"github.com/iliyamo/event-listing-platform/internal/service"
	"github.com/iliyamo/event-listing-platform/internal/stats"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	eventRepo := repository.NewEventRepo(db)
	requestRepo := repository.NewRequestRepo(db)
	userRepo := repository.NewUserRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)

	hits := stats.NewClient(cfg.StatsURL, cfg.AppName, cfg.StatsTimeout)
	statsSvc := service.NewStatsService(requestRepo, hits)

	notifier := queue.Notifier{}
	eventSvc := service.NewEventService(eventRepo, userRepo, categoryRepo, statsSvc, notifier)
	admissionSvc := service.NewAdmissionService(requestRepo, eventRepo, userRepo, notifier)

	// The consumer is best-effort: it reconnects on broker failures and
	// never takes the API down with it.
	go func() {
		if err := queue.StartNotificationsConsumer(); err != nil {
			log.Printf("notifications consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterPrivate(e,
		handler.NewPrivateEventHandler(eventSvc),
		handler.NewRequestHandler(admissionSvc),
	)
	router.RegisterAdmin(e, handler.NewAdminEventHandler(eventSvc))
	router.RegisterPublic(e, handler.NewPublicEventHandler(eventSvc), config.NewRedisClient())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
