package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/paperbot/internal/bot"
	"github.com/kailas-cloud/paperbot/internal/catalog"
	"github.com/kailas-cloud/paperbot/internal/config"
	logpkg "github.com/kailas-cloud/paperbot/internal/logger"
	"github.com/kailas-cloud/paperbot/internal/metrics"
	chiTransport "github.com/kailas-cloud/paperbot/internal/transport/chi"
	"github.com/kailas-cloud/paperbot/internal/transport/telegram"
	"github.com/kailas-cloud/paperbot/internal/transport/wg21"
	healthuc "github.com/kailas-cloud/paperbot/internal/usecase/health"
	"github.com/kailas-cloud/paperbot/internal/usecase/reply"
	searchuc "github.com/kailas-cloud/paperbot/internal/usecase/search"
	"github.com/kailas-cloud/paperbot/internal/version"
)

// staleAfterRefreshes is how many missed refresh intervals make the catalog stale in /health.
const staleAfterRefreshes = 3

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, env, err := loadConfig(false)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, stop, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// serve is the composition root. It returns after ctx is cancelled and all
// background work has stopped.
func serve(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting paperbot",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("mode", cfg.Telegram.Mode),
		zap.String("catalog_url", cfg.Catalog.URL),
		zap.Duration("refresh_interval", cfg.RefreshInterval()),
		zap.Int("max_results", cfg.Search.MaxResults),
		zap.Int("max_message_length", cfg.Search.MaxMessageLength),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterBotMetrics()
	if err := tgbotapi.SetLogger(logpkg.StdLogger(logger, "tgbotapi")); err != nil {
		logger.Warn("Cannot redirect Bot API library logs", zap.Error(err))
	}

	// Catalog: synchronous first fetch, then the periodic refresher
	store := catalog.NewStore()
	fetcher := wg21.NewClient(wg21.Config{
		URL:          cfg.Catalog.URL,
		Timeout:      time.Duration(cfg.Catalog.FetchTimeoutSec) * time.Second,
		MaxBodyBytes: int64(cfg.Catalog.MaxBodyMB) << 20,
		UserAgent:    userAgent(cfg.Catalog.UserAgent),
	})
	refresher := catalog.NewRefresher(fetcher, store, cfg.RefreshInterval(), logger.Named("catalog"))
	if err := refresher.Prime(ctx); err != nil {
		logger.Warn("Starting with an empty catalog", zap.Error(err))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Run(ctx)
	}()

	// Bot pipeline: transport -> dispatcher -> handler -> search/formatter -> transport
	tg := telegram.NewClient(telegram.Config{
		Token:       cfg.Telegram.Token,
		APIEndpoint: cfg.Telegram.APIEndpoint,
		Mode:        cfg.Telegram.Mode,
		PollTimeout: time.Duration(cfg.Telegram.PollTimeoutSec) * time.Second,
		WebhookURL:  cfg.WebhookURL(),
		SendRate:    cfg.Telegram.SendRatePerSec,
	}, logger.Named("telegram"))

	searchSvc := searchuc.New(store, cfg.Search.MaxResults)
	formatter := reply.NewFormatter(cfg.Search.MaxMessageLength)
	handler := bot.NewHandler(searchSvc, formatter, tg, cfg.Catalog.URL, logger.Named("bot"))
	dispatcher := bot.NewDispatcher(handler, cfg.Telegram.MaxConcurrentUpdates, logger.Named("bot"))

	// Ops HTTP server (health, metrics, admin refresh, webhook receiver)
	var srv *http.Server
	if cfg.HTTPEnabled() {
		healthSvc := healthuc.New(store, refresher, tg, staleAfterRefreshes*cfg.RefreshInterval())
		opts := chiTransport.Options{
			APIKeys:     cfg.Auth.APIKeys,
			WebhookPath: cfg.Telegram.Webhook.Path,
		}
		if cfg.Telegram.Mode == telegram.ModeWebhook {
			opts.Webhook = tg.WebhookHandler(dispatcher.Dispatch)
		}

		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		srv = &http.Server{
			Addr:         addr,
			Handler:      chiTransport.NewServer(healthSvc, refresher, logger.Named("http")).Router(opts),
			ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		}

		go func() {
			logger.Info("Starting HTTP server", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", zap.Error(err))
				stop()
			}
		}()
	}

	// Blocks until ctx is cancelled; transport failures are retried inside.
	bot.NewSupervisor(retryPolicy(cfg.Telegram.Retry), logger.Named("supervisor")).
		Run(ctx, tg.Session(dispatcher.Dispatch))

	logger.Info("Received shutdown signal")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	}

	dispatcher.Wait()
	wg.Wait()

	logger.Info("Stopped gracefully")
	return nil
}

func retryPolicy(rc config.RetryConfig) bot.RetryPolicy {
	if rc.Policy == "backoff" {
		return bot.Backoff{
			Initial: time.Duration(rc.InitialDelayMS) * time.Millisecond,
			Max:     time.Duration(rc.MaxDelayMS) * time.Millisecond,
		}
	}
	return bot.InfiniteRetry{}
}

func userAgent(configured string) string {
	if configured != "" {
		return configured
	}
	return version.UserAgent()
}
