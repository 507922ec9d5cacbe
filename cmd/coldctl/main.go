package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keyfrost/coldctl/host"
	"github.com/keyfrost/coldctl/internal/config"
	"github.com/keyfrost/coldctl/internal/logging"
	"github.com/keyfrost/coldctl/internal/observability"
	"github.com/keyfrost/coldctl/ledger"
	"github.com/keyfrost/coldctl/transport/tcp"
)

var (
	configFlag  string
	deviceFlag  string
	networkFlag string
	timeoutFlag time.Duration

	runtimeCfg config.RuntimeConfig
	logger     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "coldctl",
	Short:         "Drive a hardware signing device over its session protocol",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.ConfigureRuntime()
		logger = observability.InitLogger("coldctl")
		observability.RegisterMetrics()

		cfg, err := config.LoadRuntimeConfig(configFlag)
		if err != nil {
			return err
		}
		if deviceFlag != "" {
			cfg.DeviceAddr = deviceFlag
		}
		if networkFlag != "" {
			cfg.Network = networkFlag
		}
		if err := config.ValidateRuntimeConfig(cfg); err != nil {
			return err
		}
		runtimeCfg = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "coldctl.toml", "runtime configuration file")
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "device address, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", "", "network name, overrides the config file")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 60*time.Second, "whole-session deadline")

	rootCmd.AddCommand(openAppCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(xpubCmd)
	rootCmd.AddCommand(walletCmd)
}

// runSession dials the device, drives one command through one session, and
// closes the channel. Every subcommand funnels through here.
func runSession(command ledger.Command) (ledger.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	ch, err := tcp.Dial(runtimeCfg.DeviceAddr)
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	logger.Debug().Str("device", runtimeCfg.DeviceAddr).Msg("coldctl: session dial")
	return host.RunLedger(ctx, ch, ledger.NewInterpreter(), command)
}

var openAppCmd = &cobra.Command{
	Use:   "open-app",
	Short: "Launch the signing application for the configured network",
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := config.NetworkParams(runtimeCfg.Network)
		if err != nil {
			return err
		}
		if _, err := runSession(ledger.OpenApp{Network: params}); err != nil {
			return err
		}
		fmt.Printf("signing application open (%s)\n", runtimeCfg.Network)
		return nil
	},
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Read the master key fingerprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runSession(ledger.GetMasterFingerprint{})
		if err != nil {
			return err
		}
		fp, ok := res.(ledger.MasterFingerprint)
		if !ok {
			return fmt.Errorf("unexpected device result %T", res)
		}
		fmt.Println(hex.EncodeToString(fp.Fingerprint[:]))
		return nil
	},
}

var (
	xpubPathFlag    string
	xpubDisplayFlag bool
)

var xpubCmd = &cobra.Command{
	Use:   "xpub",
	Short: "Read the extended public key at a derivation path",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := xpubPathFlag
		if raw == "" {
			raw = runtimeCfg.XpubPath
		}
		path, err := ledger.ParseDerivationPath(raw)
		if err != nil {
			return err
		}
		res, err := runSession(ledger.GetXpub{Path: path, Display: xpubDisplayFlag})
		if err != nil {
			return err
		}
		xpub, ok := res.(ledger.Xpub)
		if !ok {
			return fmt.Errorf("unexpected device result %T", res)
		}
		fmt.Println(xpub.Key.String())
		return nil
	},
}

func init() {
	xpubCmd.Flags().StringVar(&xpubPathFlag, "path", "", "derivation path, overrides the config file")
	xpubCmd.Flags().BoolVar(&xpubDisplayFlag, "display", false, "confirm the key on the device screen")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "coldctl: %v\n", err)
		os.Exit(1)
	}
}
