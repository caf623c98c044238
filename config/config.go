// Package config loads the static configuration bundle for the payment gate
// from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/payflow-labs/x402-paygate-go/types"
)

// Defaults for optional settings.
const (
	DefaultNetwork            = types.NetworkSeiTestnet
	DefaultAssetDecimals      = 6
	DefaultAssetName          = "USDC"
	DefaultAssetVersion       = "1"
	DefaultPriceSmallestUnits = "1000"
	DefaultListenAddr         = ":8080"
	DefaultVerifyTimeout      = 30 * time.Second
	DefaultCacheTTL           = 50 * time.Minute
)

// Config is the static configuration bundle provided at process start.
type Config struct {
	Network            types.Network
	AssetAddress       string
	AssetDecimals      int
	AssetName          string
	AssetVersion       string
	RecipientAddress   string
	RPCURL             string
	PriceSmallestUnits string
	ListenAddr         string
	VerifyTimeout      time.Duration
	CacheTTL           time.Duration
	LogLevel           slog.Level
}

// FromEnv builds a Config from environment variables, applying defaults for
// the optional settings and validating the required ones.
func FromEnv() (Config, error) {
	cfg := Config{
		Network:            DefaultNetwork,
		AssetDecimals:      DefaultAssetDecimals,
		AssetName:          DefaultAssetName,
		AssetVersion:       DefaultAssetVersion,
		PriceSmallestUnits: DefaultPriceSmallestUnits,
		ListenAddr:         DefaultListenAddr,
		VerifyTimeout:      DefaultVerifyTimeout,
		CacheTTL:           DefaultCacheTTL,
		LogLevel:           slog.LevelInfo,
	}

	if network := os.Getenv("NETWORK"); network != "" {
		cfg.Network = types.Network(network)
	}

	cfg.AssetAddress = os.Getenv("ASSET_ADDRESS")
	cfg.RecipientAddress = os.Getenv("RECIPIENT_ADDRESS")
	cfg.RPCURL = os.Getenv("RPC_URL")

	if name := os.Getenv("ASSET_NAME"); name != "" {
		cfg.AssetName = name
	}

	if version := os.Getenv("ASSET_VERSION"); version != "" {
		cfg.AssetVersion = version
	}

	if decimals := os.Getenv("ASSET_DECIMALS"); decimals != "" {
		parsed, err := strconv.Atoi(decimals)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ASSET_DECIMALS %q: %w", decimals, err)
		}
		cfg.AssetDecimals = parsed
	}

	if price := os.Getenv("PRICE_SMALLEST_UNITS"); price != "" {
		cfg.PriceSmallestUnits = price
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	if timeout := os.Getenv("VERIFY_TIMEOUT_SECONDS"); timeout != "" {
		parsed, err := strconv.Atoi(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid VERIFY_TIMEOUT_SECONDS %q: %w", timeout, err)
		}
		cfg.VerifyTimeout = time.Duration(parsed) * time.Second
	}

	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		parsed, err := strconv.Atoi(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CACHE_TTL_SECONDS %q: %w", ttl, err)
		}
		cfg.CacheTTL = time.Duration(parsed) * time.Second
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed, err := parseLogLevel(level)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = parsed
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the required settings are present and well-formed.
func (c Config) Validate() error {
	if c.Network == "" {
		return fmt.Errorf("network is required")
	}

	if !common.IsHexAddress(c.AssetAddress) {
		return fmt.Errorf("ASSET_ADDRESS %q is not a valid hex address", c.AssetAddress)
	}

	if !common.IsHexAddress(c.RecipientAddress) {
		return fmt.Errorf("RECIPIENT_ADDRESS %q is not a valid hex address", c.RecipientAddress)
	}

	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}

	if c.AssetDecimals < 0 {
		return fmt.Errorf("asset decimals must be non-negative, got %d", c.AssetDecimals)
	}

	if _, err := strconv.ParseUint(c.PriceSmallestUnits, 10, 64); err != nil {
		return fmt.Errorf("price %q is not a valid smallest-unit amount: %w", c.PriceSmallestUnits, err)
	}

	return nil
}

// parseLogLevel parses a log level string (case-insensitive).
func parseLogLevel(level string) (slog.Level, error) {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return parsed, nil
}
