package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"log/slog"

	"wallet_engine/internal/app/port"
	"wallet_engine/internal/app/service"
	"wallet_engine/internal/infrastructure/configloader"
	"wallet_engine/internal/infrastructure/explorer"
	"wallet_engine/internal/infrastructure/market"
	"wallet_engine/internal/infrastructure/tokenlist"
	"wallet_engine/internal/infrastructure/walletloader"
	"wallet_engine/internal/pkg/logger"
	"wallet_engine/internal/pkg/utils"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// worthcheck is a one-shot valuation of the configured wallet: it fetches
// every address's balances and the current prices, prints the ranked token
// worth table and exits.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	timeout := flag.Duration("timeout", 60*time.Second, "overall fetch timeout")
	flag.Parse()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	logger.SetHandler(slogHandler)
	slog.SetDefault(slog.New(slogHandler))

	cfg, err := configloader.LoadConfig(*configPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	portLogger := logger.NewSlogAdapter()

	explorerClient := explorer.NewClient(explorer.Config{
		BaseURL:      cfg.Explorer.BaseURL,
		Timeout:      time.Duration(cfg.Explorer.RequestTimeoutMillis) * time.Millisecond,
		MaxRetries:   cfg.Explorer.MaxRetries,
		RateLimitRPS: cfg.Explorer.RateLimitRPS,
		BurstLimit:   cfg.Explorer.BurstLimit,
	}, zapLogger)
	marketClient := market.NewClient(
		cfg.Market.BaseURL,
		time.Duration(cfg.Market.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	registry := walletloader.NewAddressFileLoader(cfg.Wallet.AddressesFile, portLogger.Warn)
	tokenListProvider := tokenlist.NewFileProvider(cfg.Wallet.TokenListFile, portLogger)

	aggregator := service.NewBalanceAggregator(explorerClient, portLogger, service.BalanceAggregatorConfig{
		StaleTTL:              time.Duration(cfg.Balances.StaleTTLSeconds) * time.Second,
		GCInterval:            time.Duration(cfg.Balances.GCIntervalSeconds) * time.Second,
		MaxConcurrentRoutines: cfg.Performance.MaxConcurrentRoutines,
	})
	worthService := service.NewWorthService(marketClient, tokenListProvider, portLogger, service.WorthServiceConfig{
		Currency:              cfg.Market.Currency,
		MaxSymbolsPerRequest:  cfg.Market.MaxSymbolsPerRequest,
		MaxConcurrentRoutines: cfg.Performance.MaxConcurrentRoutines,
	})

	addresses, err := registry.GetAddresses()
	if err != nil {
		zapLogger.Fatal("Failed to load wallet addresses", zap.Error(err))
	}
	if len(addresses) == 0 {
		zapLogger.Fatal("No addresses configured", zap.String("file", cfg.Wallet.AddressesFile))
	}
	zapLogger.Info("Checking wallet worth", zap.Int("addresses", len(addresses)))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := aggregator.Refresh(ctx, addresses); err != nil {
		zapLogger.Fatal("Balance fetch failed", zap.Error(err))
	}
	if err := worthService.RefreshPrices(ctx); err != nil {
		zapLogger.Warn("Price fetch failed, worth will be partial", zap.Error(err))
	}

	agg := aggregator.AggregateWalletBalances(addresses, true)
	if agg.Error {
		zapLogger.Fatal("Balance aggregation failed for at least one address")
	}

	// The aggregate carries ALPH as a pseudo-token entry, so the worth
	// service values native holdings alongside the tokens.
	printWorthTable(worthService.ComputeWorth(agg.Tokens))
}

func printWorthTable(result port.WorthResult) {
	fmt.Printf("%-12s %-24s %14s\n", "TOKEN", "BALANCE", "WORTH")
	fmt.Println("--------------------------------------------------")

	for _, t := range result.Tokens {
		balance := t.Balance
		if raw, ok := new(big.Int).SetString(t.Balance, 10); ok {
			balance = utils.FormatAmount(raw, t.Token.Decimals)
		}
		fmt.Printf("%-12s %-24s %s\n", t.Token.Symbol, balance, formatWorth(t.Worth, t.Priced))
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("%-12s %38s\n", "TOTAL", fmt.Sprintf("$%.2f", result.Worth))
	if result.IsLoading {
		fmt.Println("note: some prices did not resolve, total is partial")
	}
}

func formatWorth(worth float64, priced bool) string {
	if !priced {
		return fmt.Sprintf("%14s", "-")
	}
	return fmt.Sprintf("%14s", fmt.Sprintf("$%.2f", worth))
}
