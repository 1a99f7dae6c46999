package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env into the process environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/store-ratings/internal/config"
	"github.com/iliyamo/store-ratings/internal/database"
	"github.com/iliyamo/store-ratings/internal/handler"
	"github.com/iliyamo/store-ratings/internal/middleware"
	"github.com/iliyamo/store-ratings/internal/queue"
	"github.com/iliyamo/store-ratings/internal/repository"
	"github.com/iliyamo/store-ratings/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := repository.NewUserRepo(db)
	stores := repository.NewStoreRepo(db)
	ratings := repository.NewRatingRepo(db)

	// Redis is optional; a nil client turns the cache and rate limiter
	// into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	authLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	h := router.Handlers{
		Auth:   handler.NewAuthHandler(cfg, users),
		Store:  handler.NewStoreHandler(stores, ratings),
		Rating: handler.NewRatingHandler(ratings, cache),
		Owner:  handler.NewOwnerHandler(ratings),
		Admin:  handler.NewAdminHandler(cfg, users, stores, ratings, cache),
	}

	// Background consumer logs rating events; runs its own reconnect loop.
	go func() {
		if err := queue.StartRatingConsumer(); err != nil {
			log.Printf("rating consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, h, cfg.JWTSecret, cache.Middleware(), authLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
