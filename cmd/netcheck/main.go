// Command netcheck monitors the internet connectivity of this machine.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/digineo/go-netcheck/internal/config"
	"github.com/digineo/go-netcheck/internal/logger"
)

var opts = struct {
	configPath string
	v          *viper.Viper
	cfg        *config.Config
}{
	v: config.New(),
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "netcheck",
		Short: "Connectivity monitor",
		Long: `netcheck periodically pings a set of hosts, fetches captive portal pages
and resolves the public IP address and its country. It notifies when the
connection goes down or comes back.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default ./netcheck.yaml or ~/.config/netcheck/netcheck.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("prefs", config.BackendFile, "preferences backend (memory, file, redis)")
	_ = opts.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = opts.v.BindPFlag("prefs.backend", flags.Lookup("prefs"))

	rootCmd.AddCommand(
		newRunCommand(),
		newOnceCommand(),
		newProbeCommand(),
		newHostsCommand(),
		newSetCommand(),
		newShowCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(opts.v, opts.configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	opts.cfg = cfg
	return nil
}
