package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/digineo/go-netcheck/monitor"
)

// withPreferences opens the preferences store for the duration of fn.
func withPreferences(fn func(*monitor.Preferences) error) error {
	store, closeStore, err := openStore(opts.cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(monitor.NewPreferences(store))
}

func newHostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Manage the custom hosts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the custom hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPreferences(func(p *monitor.Preferences) error {
				for i, host := range p.Config().CustomHosts {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, host)
				}
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add HOST...",
		Short: "Add custom hosts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPreferences(func(p *monitor.Preferences) error {
				for _, host := range args {
					if !p.AddCustomHost(host) {
						fmt.Fprintf(cmd.ErrOrStderr(), "skipped %q: empty or already present\n", host)
					}
				}
				return nil
			})
		},
	}

	var byIndex bool
	remove := &cobra.Command{
		Use:   "remove HOST...",
		Short: "Remove custom hosts by name, or by position with --index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPreferences(func(p *monitor.Preferences) error {
				if byIndex {
					indexes := make([]int, 0, len(args))
					for _, arg := range args {
						i, err := strconv.Atoi(arg)
						if err != nil {
							return fmt.Errorf("invalid index %q: %w", arg, err)
						}
						indexes = append(indexes, i)
					}
					p.RemoveCustomHostAt(indexes...)
					return nil
				}

				for _, host := range args {
					if !p.RemoveCustomHost(host) {
						fmt.Fprintf(cmd.ErrOrStderr(), "%q is not a custom host\n", host)
					}
				}
				return nil
			})
		},
	}
	remove.Flags().BoolVar(&byIndex, "index", false, "arguments are positions as shown by list")

	cmd.AddCommand(list, add, remove)
	return cmd
}

// settings maps the names accepted by "set" to the preference setters.
var settings = map[string]func(p *monitor.Preferences, value string) error{
	"apple":     boolSetting((*monitor.Preferences).SetIncludeApple),
	"microsoft": boolSetting((*monitor.Preferences).SetIncludeMicrosoft),
	"router":    boolSetting((*monitor.Preferences).SetIncludeRouter),
	"vpn":       boolSetting((*monitor.Preferences).SetIncludeVPNCheck),
	"interval":  intSetting((*monitor.Preferences).SetPingInterval),
	"ignored":   intSetting((*monitor.Preferences).SetIgnoredTimeouts),
}

func boolSetting(set func(*monitor.Preferences, bool)) func(*monitor.Preferences, string) error {
	return func(p *monitor.Preferences, value string) error {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		set(p, v)
		return nil
	}
}

func intSetting(set func(*monitor.Preferences, int)) func(*monitor.Preferences, string) error {
	return func(p *monitor.Preferences, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		set(p, v)
		return nil
	}
}

func settingNames() []string {
	return []string{"apple", "microsoft", "router", "vpn", "interval", "ignored"}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set KEY VALUE",
		Short:     "Change a preference (" + strings.Join(settingNames(), ", ") + ")",
		Args:      cobra.ExactArgs(2),
		ValidArgs: settingNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, ok := settings[args[0]]
			if !ok {
				return fmt.Errorf("unknown preference %q, use one of %s", args[0], strings.Join(settingNames(), ", "))
			}
			return withPreferences(func(p *monitor.Preferences) error {
				if err := set(p, args[1]); err != nil {
					return fmt.Errorf("invalid value for %s: %w", args[0], err)
				}
				printConfig(cmd.OutOrStdout(), p.Config())
				return nil
			})
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPreferences(func(p *monitor.Preferences) error {
				printConfig(cmd.OutOrStdout(), p.Config())
				return nil
			})
		},
	}
}

func printConfig(w io.Writer, cfg monitor.Config) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "apple\t%t\n", cfg.IncludeApple)
	fmt.Fprintf(tw, "microsoft\t%t\n", cfg.IncludeMicrosoft)
	fmt.Fprintf(tw, "router\t%t\n", cfg.IncludeRouter)
	fmt.Fprintf(tw, "vpn\t%t\n", cfg.IncludeVPNCheck)
	fmt.Fprintf(tw, "interval\t%ds\n", cfg.PingInterval)
	fmt.Fprintf(tw, "ignored\t%d\n", cfg.IgnoredTimeouts)
	fmt.Fprintf(tw, "hosts\t%s\n", strings.Join(cfg.CustomHosts, ", "))
	tw.Flush()
}
