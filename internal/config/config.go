// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds launcher-wide settings. The deployer key pair identifies the
// account that pays for token, market and pool creation.
type Config struct {
	Network            string   `mapstructure:"network"`
	RPCList            []string `mapstructure:"rpc_list"`
	DeployerPublicKey  string   `mapstructure:"deployer_public_key"`
	DeployerPrivateKey string   `mapstructure:"deployer_private_key"`
	WalletsFile        string   `mapstructure:"wallets_file"`
	CheckpointDir      string   `mapstructure:"checkpoint_dir"`
	DebugLogging       bool     `mapstructure:"debug_logging"`
	RateLimitRPS       float64  `mapstructure:"rate_limit_rps"`
	RPCDelay           int      `mapstructure:"rpc_delay"`
}

const (
	DefaultNetwork       = "devnet"
	DefaultWalletsFile   = "configs/wallets.txt"
	DefaultCheckpointDir = "runs"
	DefaultRateLimitRPS  = 8
	DefaultRPCDelay      = 100
)

// Load reads the network-specific configuration file from dir
// (e.g. configs/config.devnet.yaml) and applies SOLANA_LAUNCHER_* env overrides.
func Load(dir, network string) (*Config, error) {
	if network == "" {
		network = DefaultNetwork
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, fmt.Sprintf("config.%s.yaml", network)))

	defaults := map[string]interface{}{
		"network":        network,
		"wallets_file":   DefaultWalletsFile,
		"checkpoint_dir": DefaultCheckpointDir,
		"rate_limit_rps": DefaultRateLimitRPS,
		"rpc_delay":      DefaultRPCDelay,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURL(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol: " + rpcURL)
		}
	}
	if cfg.DeployerPublicKey == "" {
		return errors.New("missing deployer_public_key in configuration")
	}
	if cfg.DeployerPrivateKey == "" {
		return errors.New("missing deployer_private_key in configuration")
	}
	if cfg.RateLimitRPS < 0 {
		return errors.New("invalid rate_limit_rps")
	}
	if cfg.RPCDelay <= 0 {
		return errors.New("invalid rpc_delay")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("SOLANA_LAUNCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if pk := v.GetString("DEPLOYER_PUBLIC_KEY"); pk != "" {
		cfg.DeployerPublicKey = pk
	}
	if sk := v.GetString("DEPLOYER_PRIVATE_KEY"); sk != "" {
		cfg.DeployerPrivateKey = sk
	}

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
	return nil
}
