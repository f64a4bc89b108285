package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/config"
	"github.com/exchnew/cartel-v1-demo/internal/market"
	"github.com/exchnew/cartel-v1-demo/internal/metrics"
	"github.com/exchnew/cartel-v1-demo/internal/rates"
)

func newRatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Refresh and print the full rate table",
		RunE:  runRates,
	}
	addSharedFlags(cmd)
	return cmd
}

func runRates(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Serve(ctx, cfg.MetricsAddr, logger)

	client := market.NewClient(cfg.ProviderURL, cfg.ProviderTimeout)
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("provider unreachable: %w", err)
	}

	composer := rates.NewComposer(rates.Config{
		MarkupPercent:         cfg.MarkupPercent,
		FloatFeePercent:       cfg.FloatFeePercent,
		FixedFeePercent:       cfg.FixedFeePercent,
		PartnerRateDifference: cfg.PartnerRateDifference,
		TableTTL:              cfg.CacheTTL,
	}, asset.DefaultRegistry(), client, market.NewPriceCache(cfg.CacheTTL), logger)

	table, err := composer.AllRates(ctx)
	if err != nil {
		return err
	}

	return printJSON(table)
}
