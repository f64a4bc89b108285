package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exchnew/cartel-v1-demo/internal/asset"
	"github.com/exchnew/cartel-v1-demo/internal/chain"
	"github.com/exchnew/cartel-v1-demo/internal/config"
	"github.com/exchnew/cartel-v1-demo/internal/deposit"
)

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit <currency> <address>",
		Short: "Check a deposit address on-chain",
		Args:  cobra.ExactArgs(2),
		RunE:  runDeposit,
	}

	cmd.Flags().Float64("expected", 0, "expected deposit amount")
	cmd.Flags().String("blockcypher-url", deposit.DefaultBlockCypherURL, "BlockCypher base URL")
	cmd.Flags().String("etherscan-url", deposit.DefaultEtherscanURL, "Etherscan base URL")
	cmd.Flags().String("etherscan-api-key", "", "Etherscan API key")
	cmd.Flags().String("xrpl-url", deposit.DefaultXRPLURL, "XRP Ledger JSON-RPC URL")
	cmd.Flags().String("trongrid-url", deposit.DefaultTronGridURL, "TronGrid base URL")
	cmd.Flags().String("eth-rpc", "", "Ethereum RPC URL for block-height derivation (optional)")
	addSharedFlags(cmd)

	return cmd
}

func runDeposit(cmd *cobra.Command, args []string) error {
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

	ups := deposit.Upstreams{
		HTTPClient:      &http.Client{Timeout: cfg.ProviderTimeout},
		BlockCypherURL:  cfg.BlockCypherURL,
		EtherscanURL:    cfg.EtherscanURL,
		EtherscanAPIKey: cfg.EtherscanAPIKey,
		XRPLURL:         cfg.XRPLURL,
		TronGridURL:     cfg.TronGridURL,
	}

	if cfg.EthRPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.EthRPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		ups.Heights = chainClient
	}

	engine, err := deposit.NewEngine(asset.DefaultRegistry(), ups, logger)
	if err != nil {
		return err
	}

	var expected *float64
	if cmd.Flags().Changed("expected") {
		amount, _ := cmd.Flags().GetFloat64("expected")
		expected = &amount
	}

	result, err := engine.CheckDeposit(ctx, args[0], args[1], expected)
	if err != nil {
		return err
	}

	sink, closeSink, err := buildAuditSink(ctx, cfg)
	if err != nil {
		return err
	}
	if sink != nil {
		defer closeSink()
		if err := sink.PutDepositCheck(ctx, result); err != nil {
			logger.Warn("audit deposit check failed", zap.Error(err))
		}
	}

	return printJSON(result)
}
