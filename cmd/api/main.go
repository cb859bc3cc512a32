package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	store, mediaRoot, err := selectStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize image storage")
	}

	images := service.NewImageService(store)
	auth := service.NewAuthService(db, cfg.JWTSecret)
	users := service.NewUserService(db, images, cfg.DefaultAvatar)
	recipes := service.NewRecipeService(db, images)
	shopping := service.NewShoppingListService(db)

	var limiter *middleware.RateLimiter
	if cfg.RedisHost != "" || cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		limiter = middleware.NewRecipeWriteRateLimiter(redisClient)
		log.Info().Msg("rate limiting enabled")
	}

	srv := server.New(cfg, router.Deps{
		DB:        db,
		Auth:      auth,
		Users:     users,
		Recipes:   recipes,
		Shopping:  shopping,
		BaseURL:   cfg.BaseURL,
		MediaRoot: mediaRoot,
		Limiter:   limiter,
	})

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

// selectStore picks S3 when a bucket is configured, local disk
// otherwise. The local root is returned so the router can serve it.
func selectStore(cfg *config.Config) (storage.Store, string, error) {
	if cfg.S3Bucket != "" {
		s3cfg, err := config.NewS3Config(context.Background(), cfg.S3Bucket)
		if err != nil {
			return nil, "", err
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("using s3 image storage")
		return storage.NewS3Store(s3cfg), "", nil
	}
	log.Info().Str("root", cfg.MediaRoot).Msg("using local image storage")
	return storage.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL), cfg.MediaRoot, nil
}
