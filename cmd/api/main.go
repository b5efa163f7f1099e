package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"market-scout/internal/api/handlers"
	"market-scout/internal/api/middleware"
	"market-scout/internal/config"
	"market-scout/internal/discovery"
	"market-scout/internal/engine"
	"market-scout/internal/exchange"
)

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	cfgPath := os.Getenv("FILTERS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/filters.yaml"
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}

	// The gateway is optional: without credentials the server still serves
	// inline-snapshot inspections.
	var fetcher handlers.SnapshotFetcher
	var finder handlers.Finder
	if creds, err := exchange.CredentialsFromEnv(); err == nil {
		client, err := exchange.NewClient(creds, log)
		if err != nil {
			log.Fatal().Err(err).Msg("build exchange client")
		}
		fetcher = client
		finder = discovery.New(client, log)
	} else {
		log.Warn().Err(err).Msg("running offline, live fetch disabled")
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler())

	eng := engine.New(cfg, log)
	inspectHandler := handlers.NewInspectHandler(eng, fetcher)
	discoverHandler := handlers.NewDiscoverHandler(finder, cfg.CountryCodes())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	api := router.Group("/api/v1")
	{
		api.POST("/inspect", inspectHandler.Inspect)
		api.POST("/discover", discoverHandler.Discover)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("addr", addr).Msg("starting API server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
