package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myGroupBuy/app/bootstrap"
	"myGroupBuy/app/echo-server/router"
	"myGroupBuy/business/interaction"
	"myGroupBuy/internal/events"
	"myGroupBuy/internal/middleware"
	"myGroupBuy/internal/rest"
	"myGroupBuy/pkg/config"
	"myGroupBuy/pkg/logger"
	"myGroupBuy/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting MyGroupBuy", "version", cfg.App.Version)

	deps, err := bootstrap.Build(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "error", err)
	}
	logger.Info("Database connected successfully")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Serving works without a model (cold-start only), so a failed load is
	// not fatal. The refresher picks up the first trained artifact.
	modelType := deps.Recommendation.Config(ctx).ModelType
	if _, err := deps.Recommendation.Registry().Load(ctx, modelType); err != nil {
		logger.Warn("No active model loaded", "model_type", modelType, "error", err)
	}
	go deps.Recommendation.Registry().RunRefresher(ctx, modelType, cfg.Recommendation.RefreshInterval)

	// Interaction updates: handlers publish, the router applies.
	applier := interaction.NewService(deps.RecoEvents, nil)
	busCfg := events.DefaultRouterConfig()
	busCfg.InteractionTopic = cfg.Events.InteractionTopic
	busCfg.BufferSize = cfg.Events.BufferSize
	bus, err := events.NewBus(busCfg, applier, events.NewZapLoggerAdapter(logger.L()))
	if err != nil {
		logger.Fatal("Failed to create event bus", "error", err)
	}
	go func() {
		if err := bus.Router.Run(ctx); err != nil {
			logger.Error("Event router stopped", "error", err)
		}
	}()
	tracker := interaction.NewService(deps.RecoEvents, bus.Publisher)

	metrics.Init()

	// Init handler
	recoHandler := rest.NewRecommendationHandler(deps.Recommendation, tracker)
	adminHandler := rest.NewRecommendationAdminHandler(deps.Recommendation)
	groupBuyHandler := rest.NewGroupBuyHandler(deps.GroupBuyService, tracker)
	userHandler := rest.NewUserHandler(deps.UserService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)

	api := e.Group("/api/v1")
	router.SetRecommendationRoutes(api, recoHandler, authRequired)
	router.SetGroupBuyRoutes(api, groupBuyHandler, authRequired)
	router.SetRecommendationAdminRoutes(api, adminHandler, authRequired)
	router.SetupUserRoutes(api, userHandler, authRequired)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	stop()
	if err := bus.Close(); err != nil {
		logger.Error("Event bus shutdown error", "error", err)
	}
	deps.Close()

	logger.Info("Server stopped")
}
