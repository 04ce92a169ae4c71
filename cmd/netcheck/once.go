package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/digineo/go-netcheck/monitor"
	"github.com/digineo/go-netcheck/probe"
)

var errDown = errors.New("not all targets are up")

func newOnceCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single check and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := openResources(opts.cfg)
			if err != nil {
				return err
			}
			defer res.close()

			m := res.newMonitor(nil, nil)
			snap := m.RunOnce(cmd.Context())

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(snap); err != nil {
					return err
				}
			} else {
				printSnapshot(cmd.OutOrStdout(), snap)
			}

			if !snap.OverallUp {
				return errDown
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func printSnapshot(w io.Writer, snap monitor.Snapshot) {
	fmt.Fprintln(w, headline(snap))
	printOutcomes(w, snap.Outcomes)
}

func printOutcomes(w io.Writer, outcomes []probe.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tSTATE\tADDRESS")
	for _, o := range outcomes {
		state := "down"
		if o.Up {
			state = "up"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Name, state, o.IP)
	}
	tw.Flush()
}

func newProbeCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe HOST...",
		Short: "Ping the given hosts once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, closeHosts, err := openHostProbe(opts.cfg)
			if err != nil {
				return err
			}
			defer closeHosts()

			targets := make([]probe.Target, 0, len(args))
			for _, arg := range args {
				if host := strings.TrimSpace(arg); host != "" {
					targets = append(targets, probe.Host(host))
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Second)
			defer cancel()

			prober := probe.NewProber(hosts, nil)
			outcomes := prober.RunAll(ctx, targets, timeout)
			printOutcomes(cmd.OutOrStdout(), outcomes)

			for _, o := range outcomes {
				if !o.Up {
					return errDown
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "timeout per host")
	return cmd
}
