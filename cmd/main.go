package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/SharvChopra/SnapGram/internal/auth"
	"github.com/SharvChopra/SnapGram/internal/cache"
	"github.com/SharvChopra/SnapGram/internal/config"
	"github.com/SharvChopra/SnapGram/internal/events"
	"github.com/SharvChopra/SnapGram/internal/handlers"
	"github.com/SharvChopra/SnapGram/internal/logger"
	"github.com/SharvChopra/SnapGram/internal/metrics"
	"github.com/SharvChopra/SnapGram/internal/repository"
	"github.com/SharvChopra/SnapGram/internal/routes"
	"github.com/SharvChopra/SnapGram/internal/service"
	"github.com/SharvChopra/SnapGram/internal/users"
	"github.com/SharvChopra/SnapGram/internal/ws"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("APP_CONFIG"), "path to yaml config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync()

	var verifier *auth.Verifier
	if cfg.JWT.Algorithm == "RS256" {
		verifier, err = auth.NewVerifierRS256(cfg.JWT.PublicKeyPath)
	} else {
		verifier, err = auth.NewVerifierHS256(cfg.JWT.HSSecret)
	}
	if err != nil {
		zl.Fatalw("jwt verifier init", "err", err)
	}

	mongoClient, err := repository.NewMongoClient(cfg.Mongo.URI)
	if err != nil {
		zl.Fatalw("mongo connect", "err", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)
	repo := repository.NewMessageRepository(db)

	var redisCache *cache.Client
	if cfg.Redis.Addr != "" {
		redisCache, err = cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			zl.Fatalw("redis connect", "err", err)
		}
		defer redisCache.Close()
	}

	directory := users.NewDirectory(db, redisCache, zl)

	var hub *ws.Hub
	if redisCache != nil {
		hub = ws.NewHub(redisCache, zl)
	} else {
		hub = ws.NewHub(nil, zl)
	}
	wsSrv := ws.NewServer(hub, verifier, zl)

	var publisher service.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	}

	svc := service.NewMessageService(repo, hub, directory, publisher, zl)

	var presence handlers.PresenceReader
	if redisCache != nil {
		presence = redisCache
	}
	h := handlers.NewMessageHandler(svc, presence, zl)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	routes.Register(app, h, wsSrv, verifier)

	go func() {
		addr := ":" + cfg.Metrics.Port
		zl.Infow("metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, metrics.Handler()); err != nil {
			zl.Warnw("metrics server", "err", err)
		}
	}()

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		zl.Infow("messaging service listening", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case e := <-errs:
		zl.Fatalw("server error", "err", e)
	case s := <-sig:
		zl.Infow("signal received", "signal", s.String())
	}

	if err := app.Shutdown(); err != nil {
		zl.Warnw("fiber shutdown", "err", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mongoClient.Disconnect(ctx); err != nil {
		zl.Warnw("mongo disconnect", "err", err)
	}
	zl.Infow("shutdown complete")
}
