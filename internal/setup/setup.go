package setup

import (
	"time"

	"github.com/bobaboard/bobaserver/internal/config"
	"github.com/bobaboard/bobaserver/internal/handler"
	"github.com/bobaboard/bobaserver/internal/jwt"
	"github.com/bobaboard/bobaserver/internal/middleware"
	"github.com/bobaboard/bobaserver/internal/service"
	"github.com/bobaboard/bobaserver/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.Private.JwtKey, 24*time.Hour)
	authMw := middleware.NewAuth(jwtService, storage)

	feed := service.NewFeed(storage, storage, &cfg.Public)
	thread := service.NewThread(storage, storage)
	user := service.NewUser(storage)

	h := handler.New(feed, thread, user, cfg)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: authMw,
	}, nil
}
