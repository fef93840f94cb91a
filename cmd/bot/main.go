package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockwatch/backend/internal/application/monitor"
	"github.com/stockwatch/backend/internal/application/subscriber"
	"github.com/stockwatch/backend/internal/infrastructure/config"
	"github.com/stockwatch/backend/internal/infrastructure/logger"
	"github.com/stockwatch/backend/internal/infrastructure/persistence"
	"github.com/stockwatch/backend/internal/infrastructure/scraper"
	tgclient "github.com/stockwatch/backend/internal/infrastructure/telegram"
	opshttp "github.com/stockwatch/backend/internal/interfaces/http"
	botiface "github.com/stockwatch/backend/internal/interfaces/telegram"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StockWatch",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	if cfg.Telegram.Token == "" {
		log.Fatal("telegram.token is required (STOCKWATCH_TELEGRAM_TOKEN)")
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	alertRepo := persistence.NewGormAlertRepository(db.DB)

	// Headless browser shared by the resolver and the catalog fetcher
	browser := scraper.NewBrowser(scraper.Config{
		BaseURL:     cfg.Scraper.BaseURL,
		CatalogPath: cfg.Scraper.CatalogPath,
		UserAgent:   cfg.Scraper.UserAgent,
		RemoteURL:   cfg.Scraper.RemoteURL,
		Headless:    cfg.Scraper.Headless,
		NoSandbox:   cfg.Scraper.NoSandbox,
		NavTimeout:  cfg.Scraper.NavTimeout,
		StepTimeout: cfg.Scraper.StepTimeout,
		TypeDelay:   cfg.Scraper.TypeDelay,
		SettleDelay: cfg.Scraper.SettleDelay,
	}, log.Named("scraper"))
	defer browser.Close()

	resolver := scraper.NewResolver(browser, log.Named("resolver"))

	// Telegram client serves both directions: polling in, notifications out
	tg, err := tgclient.NewClient(cfg.Telegram.Token, log.Named("telegram"),
		tgclient.WithBaseURL(cfg.Telegram.APIBaseURL))
	if err != nil {
		log.Fatal("Failed to connect to the bot api", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stock monitor
	monitorStore := persistence.NewMonitorStore(userRepo, productRepo, subscriptionRepo, alertRepo)
	mon := monitor.New(monitorStore, resolver, browser, tg, monitor.Config{
		Interval:       cfg.Monitor.Interval,
		PartitionPause: cfg.Monitor.PartitionPause,
	}, log.Named("monitor"))

	if cfg.Monitor.Enabled {
		if err := mon.Start(ctx); err != nil {
			log.Fatal("Failed to start stock monitor", zap.Error(err))
		}
	} else {
		log.Warn("Stock monitor disabled by configuration")
	}

	// Chat interface
	subscriberStore := persistence.NewSubscriberStore(userRepo, productRepo, subscriptionRepo)
	service := subscriber.NewService(subscriberStore, resolver, browser, log.Named("subscriber"))
	bot := botiface.NewBot(tg, tg, service, log.Named("bot"),
		botiface.WithPollTimeout(cfg.Telegram.PollTimeout))
	if err := bot.Start(ctx); err != nil {
		log.Fatal("Failed to start telegram bot", zap.Error(err))
	}

	// Ops HTTP server
	var ops *opshttp.Server
	if cfg.HTTP.Enabled {
		ops = opshttp.NewServer(":"+cfg.HTTP.Port, mon, productRepo, alertRepo, db, log.Named("http"))
		ops.Start()
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := bot.Stop(shutdownCtx); err != nil {
		log.Error("Telegram bot shutdown error", zap.Error(err))
	}
	if cfg.Monitor.Enabled {
		if err := mon.Stop(shutdownCtx); err != nil {
			log.Error("Stock monitor shutdown error", zap.Error(err))
		}
	}
	if ops != nil {
		if err := ops.Shutdown(shutdownCtx); err != nil {
			log.Error("Ops server shutdown error", zap.Error(err))
		}
	}

	log.Info("Shutdown complete")
}
