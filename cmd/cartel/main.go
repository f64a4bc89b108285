package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/config"
	"github.com/exchnew/cartel-v1-demo/internal/market"
	"github.com/exchnew/cartel-v1-demo/internal/model"
	"github.com/exchnew/cartel-v1-demo/internal/rates"
	"github.com/exchnew/cartel-v1-demo/internal/storage"
	"github.com/exchnew/cartel-v1-demo/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "cartel",
		Short:        "Exchange rate composition and deposit confirmation engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote <from> <to>",
		Short: "Compose an exchange rate quote",
		Args:  cobra.ExactArgs(2),
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("tier", "float", "fee tier (float or fixed)")
	quoteCmd.Flags().String("partner", "", "partner id (applies partner pricing)")
	quoteCmd.Flags().Float64("amount", 0, "intended amount in the from currency, checked against tradeable limits")
	addSharedFlags(quoteCmd)

	root.AddCommand(quoteCmd)
	root.AddCommand(newDepositCmd())
	root.AddCommand(newRatesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addSharedFlags registers the flags every subcommand consumes via config.
func addSharedFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider-url", "https://api.kucoin.com", "market data provider base URL")
	cmd.Flags().Duration("provider-timeout", 30*time.Second, "upstream HTTP timeout")
	cmd.Flags().Duration("cache-ttl", 30*time.Second, "price cache freshness window")
	cmd.Flags().Float64("markup", 0, "rate markup percentage")
	cmd.Flags().Float64("float-fee", 1.0, "float tier fee percentage")
	cmd.Flags().Float64("fixed-fee", 2.0, "fixed tier fee percentage")
	cmd.Flags().Float64("partner-rate-difference", 0, "partner rate difference percentage")
	cmd.Flags().Float64("partner-commission", 30.0, "partner commission rate percentage")
	cmd.Flags().String("audit-out", "", "audit JSONL path (optional)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for audit records (optional)")
	cmd.Flags().String("metrics-addr", "", "metrics listen address (optional)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runQuote(cmd *cobra.Command, args []string) error {
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

	tierName, _ := cmd.Flags().GetString("tier")
	tier := model.FeeTier(tierName)
	if tier != model.FeeTierFloat && tier != model.FeeTierFixed {
		return fmt.Errorf("unknown fee tier %q", tierName)
	}

	registry := asset.DefaultRegistry()

	if amount, _ := cmd.Flags().GetFloat64("amount"); amount > 0 {
		a, ok := registry.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unsupported asset: %s", args[0])
		}
		if amount < a.MinAmount || amount > a.MaxAmount {
			return fmt.Errorf("amount %v out of tradeable range [%v, %v] for %s",
				amount, a.MinAmount, a.MaxAmount, a.Code)
		}
	}

	client := market.NewClient(cfg.ProviderURL, cfg.ProviderTimeout)
	defer client.Close()

	composer := rates.NewComposer(rates.Config{
		MarkupPercent:         cfg.MarkupPercent,
		FloatFeePercent:       cfg.FloatFeePercent,
		FixedFeePercent:       cfg.FixedFeePercent,
		PartnerRateDifference: cfg.PartnerRateDifference,
		TableTTL:              cfg.CacheTTL,
	}, registry, client, market.NewPriceCache(cfg.CacheTTL), logger)

	var partner *model.PartnerContext
	if partnerID, _ := cmd.Flags().GetString("partner"); partnerID != "" {
		partner = &model.PartnerContext{ID: partnerID, CommissionRate: cfg.PartnerCommission}
	}

	quote, err := composer.Quote(ctx, args[0], args[1], tier, partner)
	if err != nil {
		return err
	}

	sink, closeSink, err := buildAuditSink(ctx, cfg)
	if err != nil {
		return err
	}
	if sink != nil {
		defer closeSink()
		if err := sink.PutQuote(ctx, quote); err != nil {
			logger.Warn("audit quote failed", zap.Error(err))
		}
	}

	return printJSON(quote)
}

// buildAuditSink returns the configured audit sink, or nil when auditing is
// off. Postgres wins over JSONL when both are set.
func buildAuditSink(ctx context.Context, cfg config.Config) (storage.AuditSink, func(), error) {
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect audit store: %w", err)
		}
		return store, store.Close, nil
	}
	if cfg.AuditOut != "" {
		return storage.NewJsonlSink(cfg.AuditOut), func() {}, nil
	}
	return nil, nil, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
