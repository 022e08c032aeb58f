package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealradar/dealradar/internal/config"
	"github.com/dealradar/dealradar/internal/deals"
	"github.com/dealradar/dealradar/internal/geocode"
	"github.com/dealradar/dealradar/internal/logger"
	"github.com/dealradar/dealradar/internal/metrics"
	"github.com/dealradar/dealradar/internal/push"
	"github.com/dealradar/dealradar/internal/scrape"
	"github.com/dealradar/dealradar/internal/storage/pg"
	"github.com/dealradar/dealradar/pkg/arearules"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	config.LoadConfig()

	log := logger.New(logger.FromConfig(config.AppConfig.LogLevel, config.AppConfig.LogFormat))

	log.Info("Setting Gin mode", "mode", config.AppConfig.GinMode)
	gin.SetMode(config.AppConfig.GinMode)

	// Initialize database.
	db, err := pg.InitDatabase(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.DB.Close() //nolint:errcheck

	rules, err := loadAreaRules(config.AppConfig.AreaRulesFile)
	if err != nil {
		log.Error("Failed to load area rules", "error", err, "file", config.AppConfig.AreaRulesFile)
		os.Exit(1)
	}

	// Initialize services
	dealStore := deals.NewStore(log, db.DB)
	dealService := deals.NewService(dealStore, rules, log)
	geocodeService := geocode.NewService(config.AppConfig.GeocoderBaseURL, config.AppConfig.GeocoderUserAgent, log)
	scrapeService := scrape.NewService(
		dealStore,
		log,
		config.AppConfig.FirecrawlAPIKey,
		config.AppConfig.FirecrawlBaseURL,
		config.AppConfig.ScrapeTargetSites,
		time.Duration(config.AppConfig.ScrapeTimeoutSeconds)*time.Second,
		config.AppConfig.ScrapeMinDiscount,
	)
	pushStore := push.NewStore(log, db.DB)
	pushService := push.NewService(
		pushStore,
		log,
		config.AppConfig.VAPIDPublicKey,
		config.AppConfig.VAPIDPrivateKey,
		config.AppConfig.VAPIDSubscriber,
		config.AppConfig.PushEnabled,
	)

	// Initialize handlers
	dealHandler := deals.NewHandler(dealService, log)
	scrapeHandler := scrape.NewHandler(scrapeService, log)
	pushHandler := push.NewHandler(pushService, log)
	geocodeHandler := geocode.NewHandler(geocodeService, log)

	// Initialize Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", config.AppConfig.CORSAllowedOrigins)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		if err := db.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", metrics.Handler())

	// The service worker script must be served from the site root so its
	// scope covers the whole app.
	router.StaticFile("/service-worker.js", config.AppConfig.ServiceWorkerDir+"/service-worker.js")

	api := router.Group("/api")
	{
		api.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Deal Radar API is running"})
		})

		api.GET("/deals", dealHandler.GetDeals)
		api.GET("/geocode", geocodeHandler.ResolveLocation)
		api.POST("/scrape-deals", scrapeHandler.TriggerScrape)
		api.POST("/sample-deals", dealHandler.CreateSampleDeals)

		notifications := api.Group("/notifications")
		{
			notifications.GET("/public-key", pushHandler.GetPublicKey)
			notifications.POST("/subscribe", pushHandler.Subscribe)
			notifications.DELETE("/subscribe", pushHandler.Unsubscribe)
			notifications.POST("/broadcast", pushHandler.Broadcast)
		}
	}

	// Scheduled scraping.
	scheduler := cron.New()
	if config.AppConfig.ScrapeSchedule != "" {
		_, err := scheduler.AddFunc(config.AppConfig.ScrapeSchedule, func() {
			runScheduledScrape(scrapeService, pushService, log)
		})
		if err != nil {
			log.Error("Failed to schedule scrape job", "error", err, "schedule", config.AppConfig.ScrapeSchedule)
			os.Exit(1)
		}
		scheduler.Start()
		log.Info("Scheduled scraping enabled", "schedule", config.AppConfig.ScrapeSchedule)
	} else {
		log.Info("Scheduled scraping disabled")
	}

	// Expired-deal sweeper.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	if config.AppConfig.DealExpiryIntervalMin > 0 {
		expiryWorker := deals.NewExpiryWorker(dealStore, log, time.Duration(config.AppConfig.DealExpiryIntervalMin)*time.Minute)
		go expiryWorker.Run(workerCtx)
	}

	port := ":" + config.AppConfig.Port
	log.Info("deal radar listening on " + port)

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	cancelWorkers()
	if config.AppConfig.ScrapeSchedule != "" {
		<-scheduler.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.AppConfig.ServerShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

func loadAreaRules(path string) (*arearules.Table, error) {
	if path == "" {
		return arearules.Default(), nil
	}
	return arearules.LoadFile(path)
}

func runScheduledScrape(scrapeService *scrape.Service, pushService *push.Service, log *logger.Logger) {
	ctx := context.Background()

	result, err := scrapeService.Scrape(ctx)
	if err != nil {
		log.Error("Scheduled scrape failed", "error", err)
		return
	}

	log.Info("Scheduled scrape complete", "scraped", result.Scraped, "stored", result.Stored)
	if result.Stored == 0 {
		return
	}

	sent, err := pushService.Broadcast(ctx, push.Message{
		Title: "New deals nearby",
		Body:  fmt.Sprintf("%d new deals were just found. Take a look!", result.Stored),
		Icon:  "/icon-192.png",
		Badge: "/badge-72.png",
		URL:   "/",
	})
	if err != nil {
		log.Error("Failed to broadcast new-deal notification", "error", err)
		return
	}
	log.Info("Broadcast new-deal notification", "subscribers", sent)
}
