package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"paytrack/internal/api"
	"paytrack/internal/config"
	"paytrack/internal/core"
	gexport "paytrack/internal/export/google"
	applog "paytrack/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	periodFlag := flag.String("period", "1M", "time period to export (1D, 1W, 1M, 3M, 6M, 1Y)")
	flag.Parse()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentExport})
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

	ctx := context.Background()

	exporter, err := gexport.NewFromEnv(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize Google Sheets exporter", applog.FieldError, err.Error())
		os.Exit(1)
	}

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

	txns, err := fetchAllTransactions(ctx, client, period)
	if err != nil {
		logger.Error("failed to fetch transactions", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if len(txns) == 0 {
		logger.Info("nothing to export", applog.FieldPeriod, period.String())
		return
	}

	written, err := exporter.AppendTransactions(ctx, txns)
	if err != nil {
		logger.Error("export failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("export complete",
		applog.FieldTxnCount, len(txns),
		applog.FieldSheetsRange, written)
}

// fetchAllTransactions pulls every page for the period. The first page
// reveals the page count; the rest are fetched concurrently.
func fetchAllTransactions(ctx context.Context, client *api.Client, period core.TimePeriod) ([]core.Transaction, error) {
	first, err := client.Transactions(ctx, api.TransactionQuery{Period: period, Page: 1})
	if err != nil {
		return nil, err
	}

	totalPages := first.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	pages := make([][]api.TransactionDTO, totalPages+1)
	pages[1] = first.Transactions

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for page := 2; page <= totalPages; page++ {
		g.Go(func() error {
			resp, err := client.Transactions(gctx, api.TransactionQuery{Period: period, Page: page})
			if err != nil {
				return err
			}
			pages[page] = resp.Transactions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var txns []core.Transaction
	for _, dtos := range pages {
		for _, dto := range dtos {
			txns = append(txns, dto.Transaction())
		}
	}
	return txns, nil
}
