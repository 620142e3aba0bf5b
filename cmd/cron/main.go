package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hindsight-api/internal/cli"
	"hindsight-api/internal/config"
	"hindsight-api/pkg/market"

	// Import for side-effects: registers the coingecko provider
	_ "hindsight-api/pkg/market/exchanges/coingecko"
)

const (
	listingInterval  = 10 * time.Minute // Top-coin listing refresh interval
	snapshotInterval = 30 * time.Minute // Reference-date snapshot interval
	apiTimeout       = 45 * time.Second // Timeout for individual API calls
	shutdownTimeout  = 10 * time.Second // Grace period for shutdown

	snapshotLookbackDays = 30
)

var monitoredCoins = []string{"bitcoin", "ethereum", "solana"}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting cron monitor...")

	// Load application configuration
	var appCfg *config.Config
	var err error
	configPath := "etc/hindsight.yaml"
	appCfg, err = config.Load(configPath)
	if err != nil {
		log.Printf("[main] Warning: Failed to load app config: %v", err)
		log.Printf("[main] Using default configuration")
		appCfg = &config.Config{Env: "test"} // Default fallback
	}

	// Log configuration information
	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	marketCfg := appCfg.Market.Value
	marketPath := appCfg.Market.File
	if marketCfg == nil {
		marketCfg = config.MustLoadMarket()
		if marketPath == "" {
			marketPath = "etc/market.yaml (default)"
		}
	}

	log.Printf("  - Market Config Path: %s", marketPath)
	log.Printf("  - Monitored Coins: %v", monitoredCoins)
	log.Printf("  - Monitoring Intervals: listing=%s, snapshot=%s", listingInterval, snapshotInterval)

	// Build market providers
	marketProviders, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("[main] Failed to build market providers: %v", err)
	}

	// Get default market provider
	marketProvider, ok := marketProviders[marketCfg.Default]
	if !ok {
		log.Fatalf("[main] Default market provider %q not found", marketCfg.Default)
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create wait group for goroutines
	var wg sync.WaitGroup

	// Start listing monitoring task
	wg.Add(1)
	go func() {
		defer wg.Done()
		runListingMonitor(ctx, marketProvider)
	}()

	// Start reference snapshot task
	wg.Add(1)
	go func() {
		defer wg.Done()
		runSnapshotMonitor(ctx, marketProvider)
	}()

	log.Println("[main] Cron monitor started. Press Ctrl+C to stop.")

	// Wait for signal
	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping tasks...")

	// Give tasks time to complete current work
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] All tasks stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}

	log.Println("[main] Cron monitor stopped")
}

// runListingMonitor refreshes the top-coin listing on a schedule. With
// persistence attached to the provider this keeps the coins table warm.
func runListingMonitor(ctx context.Context, provider market.Provider) {
	ticker := time.NewTicker(listingInterval)
	defer ticker.Stop()

	// Run once immediately on startup
	monitorListing(ctx, provider)

	for {
		select {
		case <-ctx.Done():
			log.Println("[listing] Stopping listing monitor")
			return
		case <-ticker.C:
			monitorListing(ctx, provider)
		}
	}
}

// runSnapshotMonitor records reference-date prices for monitored coins.
func runSnapshotMonitor(ctx context.Context, provider market.Provider) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	// Run once immediately on startup
	monitorSnapshots(ctx, provider)

	for {
		select {
		case <-ctx.Done():
			log.Println("[snapshot] Stopping snapshot monitor")
			return
		case <-ticker.C:
			monitorSnapshots(ctx, provider)
		}
	}
}

// monitorListing fetches the coin universe and logs results
func monitorListing(parentCtx context.Context, provider market.Provider) {
	if parentCtx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
	defer cancel()

	start := time.Now()
	coins, err := provider.TopCoins(ctx)
	elapsed := time.Since(start)

	if err != nil {
		log.Printf("[listing.top_coins] [ERROR] %v, took %dms", err, elapsed.Milliseconds())
		return
	}

	log.Printf("[listing.top_coins] [OK] found %d coins, took %dms", len(coins), elapsed.Milliseconds())
	for i, coin := range coins {
		if i >= 3 {
			break
		}
		log.Printf("  - #%d %s (%s): price=%.2f, market_cap=%.0f",
			coin.MarketCapRank, coin.Name, coin.Symbol, coin.CurrentPrice, coin.MarketCap)
	}
}

// monitorSnapshots fetches reference-date prices for monitored coins and logs results
func monitorSnapshots(parentCtx context.Context, provider market.Provider) {
	if parentCtx.Err() != nil {
		return
	}

	refDate := time.Now().UTC().AddDate(0, 0, -snapshotLookbackDays)

	for _, coinID := range monitoredCoins {
		func(id string) {
			ctx, cancel := context.WithTimeout(parentCtx, apiTimeout)
			defer cancel()

			start := time.Now()
			price, err := provider.HistoricalPrice(ctx, id, refDate)
			elapsed := time.Since(start)

			if err != nil {
				log.Printf("[snapshot.%s] [ERROR] %v, took %dms", id, err, elapsed.Milliseconds())
				return
			}

			// Validate data
			if price <= 0 {
				log.Printf("[snapshot.%s] [WARN] invalid price=%f, took %dms", id, price, elapsed.Milliseconds())
				return
			}

			log.Printf("[snapshot.%s] [OK] price=%.2f on %s, took %dms",
				id, price, refDate.Format("2006-01-02"), elapsed.Milliseconds())
		}(coinID)
	}
}
