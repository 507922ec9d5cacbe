package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pelletier/go-toml/v2"
)

// RuntimeConfig is the coldctl.toml shape: where the device listens and which
// network the session targets.
type RuntimeConfig struct {
	DeviceAddr string `toml:"device_addr"`
	Network    string `toml:"network"`
	XpubPath   string `toml:"xpub_path"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DeviceAddr: "127.0.0.1:9999",
		Network:    "testnet",
		XpubPath:   "m/48'/1'/0'/2'",
	}
}

// LoadRuntimeConfig reads path, fills defaults for absent fields, and
// validates the result. A missing file is not an error; defaults apply.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return RuntimeConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var raw RuntimeConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return RuntimeConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if strings.TrimSpace(raw.DeviceAddr) != "" {
		cfg.DeviceAddr = strings.TrimSpace(raw.DeviceAddr)
	}
	if strings.TrimSpace(raw.Network) != "" {
		cfg.Network = strings.TrimSpace(raw.Network)
	}
	if strings.TrimSpace(raw.XpubPath) != "" {
		cfg.XpubPath = strings.TrimSpace(raw.XpubPath)
	}
	if err := ValidateRuntimeConfig(cfg); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

func ValidateRuntimeConfig(cfg RuntimeConfig) error {
	if strings.TrimSpace(cfg.DeviceAddr) == "" {
		return fmt.Errorf("config missing device_addr")
	}
	if _, err := NetworkParams(cfg.Network); err != nil {
		return err
	}
	return nil
}

// NetworkParams maps a config network name onto chain parameters.
func NetworkParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}
