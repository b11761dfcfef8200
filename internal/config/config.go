package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPool         = "BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh"
	DefaultAmount       = "0.001"
	DefaultBinHalfWidth = 34
	maxBinHalfWidth     = 34
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Listen      string
	CORSOrigins []string
	LogLevel    string

	PrivyAppID           string
	PrivyAppSecret       string
	PrivyVerificationKey string
	PrivyAuthURL         string
	PrivyAPIURL          string

	RPCURL     string
	WSURL      string
	DataAPIURL string

	Pool             string
	Amount           string
	BinHalfWidth     int32
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
	StageTimeout     time.Duration
	Confirm          bool

	TransferDestination string
	TransferAmount      string

	PostgresDSN      string
	MetricsNamespace string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LPBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":3000")
	v.SetDefault("log-level", "info")
	v.SetDefault("privy-auth-url", "https://auth.privy.io")
	v.SetDefault("privy-api-url", "https://api.privy.io")
	v.SetDefault("data-api-url", "https://dlmm-api.meteora.ag")
	v.SetDefault("pool", DefaultPool)
	v.SetDefault("amount", DefaultAmount)
	v.SetDefault("bin-half-width", DefaultBinHalfWidth)
	v.SetDefault("compute-unit-limit", uint32(400_000))
	v.SetDefault("compute-unit-price", uint64(0))
	v.SetDefault("stage-timeout", 20*time.Second)
	v.SetDefault("confirm", false)
	v.SetDefault("transfer-amount", "0.0001")
	v.SetDefault("metrics-namespace", "lpbot")

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
		v.SetConfigName("lpbot")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Listen:      v.GetString("listen"),
		CORSOrigins: getStringSlice(v, "cors-origins"),
		LogLevel:    v.GetString("log-level"),

		PrivyAppID:           v.GetString("privy-app-id"),
		PrivyAppSecret:       v.GetString("privy-app-secret"),
		PrivyVerificationKey: v.GetString("privy-verification-key"),
		PrivyAuthURL:         v.GetString("privy-auth-url"),
		PrivyAPIURL:          v.GetString("privy-api-url"),

		RPCURL:     v.GetString("rpc-url"),
		WSURL:      v.GetString("ws-url"),
		DataAPIURL: v.GetString("data-api-url"),

		Pool:             v.GetString("pool"),
		Amount:           v.GetString("amount"),
		BinHalfWidth:     v.GetInt32("bin-half-width"),
		ComputeUnitLimit: v.GetUint32("compute-unit-limit"),
		ComputeUnitPrice: v.GetUint64("compute-unit-price"),
		StageTimeout:     v.GetDuration("stage-timeout"),
		Confirm:          v.GetBool("confirm"),

		TransferDestination: v.GetString("transfer-destination"),
		TransferAmount:      v.GetString("transfer-amount"),

		PostgresDSN:      v.GetString("postgres-dsn"),
		MetricsNamespace: v.GetString("metrics-namespace"),
	}

	return cfg, nil
}

// Validate checks everything serve needs before it starts listening.
func (c Config) Validate() error {
	var errs []error
	if c.PrivyAppID == "" {
		errs = append(errs, errors.New("privy-app-id is required"))
	}
	if c.PrivyAppSecret == "" {
		errs = append(errs, errors.New("privy-app-secret is required"))
	}
	if err := c.ValidateChain(); err != nil {
		errs = append(errs, err)
	}
	if c.StageTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stage-timeout must be positive, got %s", c.StageTimeout))
	}
	if c.TransferDestination != "" {
		if err := ValidateAddress(c.TransferDestination); err != nil {
			errs = append(errs, fmt.Errorf("transfer-destination: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ValidateChain checks the settings used to read pools and build positions.
func (c Config) ValidateChain() error {
	var errs []error
	if c.RPCURL == "" {
		errs = append(errs, errors.New("rpc-url is required"))
	}
	if err := ValidateAddress(c.Pool); err != nil {
		errs = append(errs, fmt.Errorf("pool: %w", err))
	}
	if c.BinHalfWidth < 1 || c.BinHalfWidth > maxBinHalfWidth {
		errs = append(errs, fmt.Errorf("bin-half-width must be in [1, %d], got %d", maxBinHalfWidth, c.BinHalfWidth))
	}
	return errors.Join(errs...)
}

// ValidateAddress accepts base58 text of a 32 byte public key.
func ValidateAddress(address string) error {
	if address == "" {
		return errors.New("address is empty")
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("decode %q: %w", address, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%q decodes to %d bytes, want 32", address, len(raw))
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return cleanStrings(strings.Split(typed, ","))
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
