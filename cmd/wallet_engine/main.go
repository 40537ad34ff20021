package main

import (
	"context"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"wallet_engine/internal/app/service"
	"wallet_engine/internal/infrastructure/configloader"
	"wallet_engine/internal/infrastructure/explorer"
	"wallet_engine/internal/infrastructure/market"
	"wallet_engine/internal/infrastructure/restapi"
	"wallet_engine/internal/infrastructure/tokenlist"
	"wallet_engine/internal/infrastructure/walletloader"
	"wallet_engine/internal/pkg/logger"
	"wallet_engine/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// logrus handles the optional file-based log sink configured in YAML;
	// zap is the structured logger the services run on.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	logger.SetHandler(slogHandler)
	slog.SetDefault(slog.New(slogHandler))

	cfgPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := configloader.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Infof("Failed to log to file, using default stdout: %v", err)
		}
	}

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	portLogger := logger.NewSlogAdapter()

	explorerClient := explorer.NewClient(explorer.Config{
		BaseURL:      cfg.Explorer.BaseURL,
		Timeout:      time.Duration(cfg.Explorer.RequestTimeoutMillis) * time.Millisecond,
		MaxRetries:   cfg.Explorer.MaxRetries,
		RateLimitRPS: cfg.Explorer.RateLimitRPS,
		BurstLimit:   cfg.Explorer.BurstLimit,
	}, zapLogger)
	zapLogger.Info("Explorer client initialized", zap.String("baseURL", cfg.Explorer.BaseURL))

	marketClient := market.NewClient(
		cfg.Market.BaseURL,
		time.Duration(cfg.Market.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	zapLogger.Info("Market client initialized", zap.String("baseURL", cfg.Market.BaseURL))

	addressRegistry := walletloader.NewAddressFileLoader(cfg.Wallet.AddressesFile, portLogger.Warn)
	tokenListProvider := tokenlist.NewFileProvider(cfg.Wallet.TokenListFile, portLogger)

	aggregator := service.NewBalanceAggregator(explorerClient, portLogger, service.BalanceAggregatorConfig{
		StaleTTL:              time.Duration(cfg.Balances.StaleTTLSeconds) * time.Second,
		GCInterval:            time.Duration(cfg.Balances.GCIntervalSeconds) * time.Second,
		MaxConcurrentRoutines: cfg.Performance.MaxConcurrentRoutines,
	})

	worthService := service.NewWorthService(marketClient, tokenListProvider, portLogger, service.WorthServiceConfig{
		Currency:              cfg.Market.Currency,
		PriceTTL:              time.Duration(cfg.Market.RefreshIntervalSeconds*5) * time.Second,
		MaxSymbolsPerRequest:  cfg.Market.MaxSymbolsPerRequest,
		MaxConcurrentRoutines: cfg.Performance.MaxConcurrentRoutines,
	})

	sentLog := service.NewSentTransactionLog()
	historyService := service.NewHistoryService(explorerClient, addressRegistry, sentLog, portLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background refresh loops keep the aggregate monotonically revised as
	// queries resolve; reads never block on the network.
	go refreshLoop(ctx, time.Duration(cfg.Balances.RefreshIntervalSeconds)*time.Second, func(loopCtx context.Context) {
		addresses, err := addressRegistry.GetAddresses()
		if err != nil {
			zapLogger.Error("Failed to load addresses for balance refresh", zap.Error(err))
			return
		}
		if err := aggregator.Refresh(loopCtx, addresses); err != nil {
			zapLogger.Error("Balance refresh failed", zap.Error(err))
		}
	})
	go refreshLoop(ctx, time.Duration(cfg.Market.RefreshIntervalSeconds)*time.Second, func(loopCtx context.Context) {
		if err := worthService.RefreshPrices(loopCtx); err != nil {
			zapLogger.Error("Price refresh failed", zap.Error(err))
		}
	})

	handler := restapi.NewWalletHandler(addressRegistry, aggregator, worthService, historyService)
	router := restapi.SetupRouter(handler)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	// Pprof endpoints (for debugging performance issues)
	// Make sure to protect these in a production environment
	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/block", gin.WrapH(pprof.Handler("block")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
		pprofRouter.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
		pprofRouter.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
	}
	zapLogger.Info("Pprof endpoints enabled under /debug/pprof")

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}

// refreshLoop runs fn immediately and then on every tick until ctx ends.
func refreshLoop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		interval = time.Minute
	}
	fn(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
