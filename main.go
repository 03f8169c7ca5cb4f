package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"outagewatch/config"
	"outagewatch/helpers"
	"outagewatch/internal/metrics"
	"outagewatch/internal/scraper"
	"outagewatch/logger"
	"outagewatch/services/cache"
	"outagewatch/services/notifier"
	"outagewatch/services/ocr"
	"outagewatch/services/publisher"
	"outagewatch/services/store"
	"outagewatch/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Load and validate configuration
	cfg := config.LoadConfig()

	// Initialize logger
	logger.Init(cfg.Debug)
	log := logger.Default

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Dur("poll_interval", cfg.PollInterval).
		Str("cache_dir", cfg.CacheDir).
		Str("db_path", cfg.DBPath).
		Msg("Starting outage watcher")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Create scrapers
	fetcher := helpers.NewFetcher(cfg.HTTPTimeout)
	scrapers := scraper.CreateScrapers(&cfg, services.Store, services.Cache, fetcher,
		&ocr.Tesseract{}, &ocr.Pdftoppm{})
	if len(scrapers) == 0 {
		log.Fatal().Msg("No scrapers were created")
	}
	log.Info().Int("scraper_count", len(scrapers)).Msg("Created scrapers")

	// Create the notifier; absence of credentials degrades to persist-only
	var n worker.NotificationRunner
	if cfg.NotificationsEnabled() {
		sender := notifier.NewTelegramSender(cfg.TelegramBotToken, cfg.HTTPTimeout)
		n = notifier.NewNotifier(services.Store, services.Cache, sender,
			cfg.TelegramChatIDs, store.KeywordMatch(cfg.Keywords))
	} else {
		log.Warn().Msg("Telegram credentials not configured, notifications disabled")
	}

	// Optional metrics endpoint
	if cfg.MetricsAddr != "" {
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	// Create and start worker
	w := worker.NewWorker(ctx, scrapers, n, services.Publisher, cfg.PollInterval)

	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting poll loop")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Store     store.RecordStore
	Cache     cache.ArtifactCache
	Publisher publisher.Publisher
}

// Cleanup closes all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes the record store, the artifact cache, and
// the optional downstream publisher
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	fileCache, err := cache.NewFileCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	services.Cache = fileCache

	recordStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	services.Store = recordStore
	logger.Info("Opened record store at %s", cfg.DBPath)

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		logger.Info("Publishing new records to Redis at %s (stream: %s)", cfg.RedisAddr, cfg.RedisStream)
	}

	return services, nil
}
