package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"paytrack/internal/api"
	"paytrack/internal/cache"
	"paytrack/internal/cachestore"
	"paytrack/internal/config"
	"paytrack/internal/coordinator"
	"paytrack/internal/core"
	applog "paytrack/internal/log"
	"paytrack/internal/stats"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	periodFlag := flag.String("period", "1M", "time period (1D, 1W, 1M, 3M, 6M, 1Y)")
	localFlag := flag.Bool("local", false, "aggregate client-side from raw transactions instead of using the server dashboard")
	watchFlag := flag.Bool("watch", false, "keep running and reprint the dashboard as refreshes land")
	flag.Parse()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentApp})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	period, err := core.ParsePeriod(*periodFlag)
	if err != nil {
		logger.Error("invalid period", applog.FieldPeriod, *periodFlag)
		os.Exit(1)
	}

	store, err := cachestore.Open(cfg.CacheDBPath)
	if err != nil {
		logger.Error("failed to open cache store", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer store.Close()

	client, err := api.NewClient(api.Config{
		BaseURL:     cfg.ServerURL,
		Token:       cfg.APIToken,
		Timeout:     cfg.RequestTimeout,
		LongTimeout: cfg.LongRequestTimeout,
		Logger:      logger.WithComponent(applog.ComponentGateway),
	})
	if err != nil {
		logger.Error("failed to build gateway client", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *localFlag {
		if err := printLocalSummary(ctx, client, period); err != nil {
			logger.Error("local aggregation failed", applog.FieldError, err.Error())
			os.Exit(1)
		}
		return
	}

	// The dashboard survives restarts through the sqlite-backed cache; the
	// transaction listing only needs the in-memory LRU.
	dashCache := cachestore.NewTyped[api.DashboardResponse](store, cfg.CacheTTL, logger.WithComponent(applog.ComponentCacheStore))
	txnCache := cache.NewLRUCache[api.TransactionsResponse](cfg.CacheMaxEntries, cfg.CacheTTL)

	manager := cache.NewManager(logger.WithComponent(applog.ComponentCache))
	manager.Register(txnCache)
	defer manager.Stop()
	if *watchFlag {
		manager.StartCleanup(cfg.CacheSweep)
	}

	dash := coordinator.New[api.DashboardResponse](dashCache,
		func(ctx context.Context, key string) (api.DashboardResponse, error) {
			p, err := core.ParsePeriod(key)
			if err != nil {
				return api.DashboardResponse{}, err
			}
			return client.Dashboard(ctx, p)
		},
		logger.WithComponent(applog.ComponentCoordinator))
	defer dash.Close()

	listing := coordinator.New[api.TransactionsResponse](txnCache,
		func(ctx context.Context, key string) (api.TransactionsResponse, error) {
			p, err := core.ParsePeriod(key)
			if err != nil {
				return api.TransactionsResponse{}, err
			}
			return client.Transactions(ctx, api.TransactionQuery{Period: p})
		},
		logger.WithComponent(applog.ComponentCoordinator))
	defer listing.Close()

	dashUpdates := dash.Subscribe()
	listingUpdates := listing.Subscribe()
	dash.Activate(ctx, period.String())
	listing.Activate(ctx, period.String())

	var dashDone, listingDone bool
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-dashUpdates:
			if !ok {
				return
			}
			printSnapshot(snap)
			dashDone = resolved(snap.State)
		case snap, ok := <-listingUpdates:
			if !ok {
				return
			}
			printListing(snap)
			listingDone = resolved(snap.State)
		}
		if !*watchFlag && dashDone && listingDone {
			return
		}
	}
}

func resolved(s coordinator.State) bool {
	return s == coordinator.StateReady || s == coordinator.StateFailed
}

func printSnapshot(snap coordinator.Snapshot[api.DashboardResponse]) {
	switch snap.State {
	case coordinator.StateLoading:
		if snap.FromCache {
			fmt.Printf("loading %s (showing cached data)...\n", snap.Key)
			printDashboard(snap.Value, snap.Stale)
		} else {
			fmt.Printf("loading %s...\n", snap.Key)
		}
	case coordinator.StateReady:
		printDashboard(snap.Value, snap.Stale)
	case coordinator.StateFailed:
		fmt.Printf("failed to load %s: %v\n", snap.Key, snap.Err)
	}
}

func printListing(snap coordinator.Snapshot[api.TransactionsResponse]) {
	// Loading snapshots stay quiet here; the dashboard header already
	// announces the refresh.
	switch snap.State {
	case coordinator.StateReady:
		header := fmt.Sprintf("%d total", snap.Value.TotalCount)
		if snap.Stale {
			header += ", stale"
		}
		fmt.Printf("== recent transactions (%s) ==\n", header)
		for _, dto := range snap.Value.Transactions {
			tx := dto.Transaction()
			fmt.Printf("%s  %-8s %-16s %s\n", dto.Date, tx.Source, tx.WorkerName, tx.Amount.StringFixed(2))
		}
	case coordinator.StateFailed:
		fmt.Printf("failed to load transactions: %v\n", snap.Err)
	}
}

func printDashboard(d api.DashboardResponse, stale bool) {
	header := d.Period
	if stale {
		header += " (stale)"
	}
	fmt.Printf("== dashboard %s ==\n", header)
	fmt.Printf("total income:   %s\n", d.TotalIncome.StringFixed(2))
	fmt.Printf("paysafe income: %s (%s)\n", d.PaysafeIncome.StringFixed(2), d.PaysafeChange.PercentChange())
	fmt.Printf("paypal income:  %s (%s)\n", d.PaypalIncome.StringFixed(2), d.PaypalChange.PercentChange())
	for i, w := range d.TopWorkers {
		fmt.Printf("top %d: %s  %s\n", i+1, w.WorkerName, w.Total.StringFixed(2))
	}
}

// printLocalSummary rebuilds the dashboard numbers from raw data, useful
// when the server aggregate looks wrong and for spot-checking it.
func printLocalSummary(ctx context.Context, client *api.Client, period core.TimePeriod) error {
	workersResp, err := client.Workers(ctx)
	if err != nil {
		return fmt.Errorf("fetch workers: %w", err)
	}
	workers := make([]core.Worker, len(workersResp.Workers))
	for i, dto := range workersResp.Workers {
		workers[i] = dto.Worker()
	}

	var txns []core.Transaction
	pager := api.NewPager(api.TransactionQuery{Period: period})
	for pager.HasMore() {
		page, err := client.Transactions(ctx, pager.Query())
		if err != nil {
			return fmt.Errorf("fetch transactions page %d: %w", pager.Query().Page, err)
		}
		for _, dto := range page.Transactions {
			txns = append(txns, dto.Transaction())
		}
		pager.Advance(page)
	}

	summary := stats.Summarize(txns, workers, period, time.Now().UTC())
	fmt.Printf("== local summary %s ==\n", period)
	fmt.Printf("total income: %s\n", summary.TotalIncome.StringFixed(2))
	for _, source := range core.Sources() {
		fmt.Printf("%-8s %s (%s)\n", source,
			summary.IncomeBySource[source].StringFixed(2),
			summary.ChangeBySource[source])
	}
	for i, w := range summary.TopWorkers {
		fmt.Printf("top %d: %s  %s\n", i+1, w.Name, w.Total.StringFixed(2))
	}
	for _, point := range summary.Chart {
		fmt.Printf("%-8s %s\n", point.Label, point.Total().StringFixed(2))
	}
	return nil
}
