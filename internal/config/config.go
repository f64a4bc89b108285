package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
// Pricing parameters are owned by the settings layer; the core reads them
// once at startup.
type Config struct {
	// Market data provider.
	ProviderURL     string
	ProviderTimeout time.Duration
	CacheTTL        time.Duration

	// Pricing.
	MarkupPercent         float64
	FloatFeePercent       float64
	FixedFeePercent       float64
	PartnerRateDifference float64
	PartnerCommission     float64

	// Chain explorers.
	BlockCypherURL  string
	EtherscanURL    string
	EtherscanAPIKey string
	XRPLURL         string
	TronGridURL     string
	EthRPCURL       string

	// Audit sinks (optional).
	AuditOut string
	PGDSN    string

	MetricsAddr string
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CARTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("provider-url", "https://api.kucoin.com")
	v.SetDefault("provider-timeout", 30*time.Second)
	v.SetDefault("cache-ttl", 30*time.Second)
	v.SetDefault("markup", 0.0)
	v.SetDefault("float-fee", 1.0)
	v.SetDefault("fixed-fee", 2.0)
	v.SetDefault("partner-rate-difference", 0.0)
	v.SetDefault("partner-commission", 30.0)
	v.SetDefault("blockcypher-url", "https://api.blockcypher.com")
	v.SetDefault("etherscan-url", "https://api.etherscan.io")
	v.SetDefault("xrpl-url", "https://s1.ripple.com:51234")
	v.SetDefault("trongrid-url", "https://api.trongrid.io")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ProviderURL:           v.GetString("provider-url"),
		ProviderTimeout:       v.GetDuration("provider-timeout"),
		CacheTTL:              v.GetDuration("cache-ttl"),
		MarkupPercent:         v.GetFloat64("markup"),
		FloatFeePercent:       v.GetFloat64("float-fee"),
		FixedFeePercent:       v.GetFloat64("fixed-fee"),
		PartnerRateDifference: v.GetFloat64("partner-rate-difference"),
		PartnerCommission:     v.GetFloat64("partner-commission"),
		BlockCypherURL:        v.GetString("blockcypher-url"),
		EtherscanURL:          v.GetString("etherscan-url"),
		EtherscanAPIKey:       v.GetString("etherscan-api-key"),
		XRPLURL:               v.GetString("xrpl-url"),
		TronGridURL:           v.GetString("trongrid-url"),
		EthRPCURL:             v.GetString("eth-rpc"),
		AuditOut:              v.GetString("audit-out"),
		PGDSN:                 v.GetString("pg-dsn"),
		MetricsAddr:           v.GetString("metrics-addr"),
		LogLevel:              v.GetString("log-level"),
	}

	return cfg, nil
}
