package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/digineo/go-netcheck/internal/logger"
	"github.com/digineo/go-netcheck/monitor"
	"github.com/digineo/go-netcheck/status"
)

// shutdownTimeout bounds waiting for a cycle in progress on exit.
const shutdownTimeout = 30 * time.Second

func newRunCommand() *cobra.Command {
	var uiMode string
	var listen string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the connectivity monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				opts.cfg.Status.Listen = listen
			}
			return runMonitor(cmd.Context(), uiMode)
		},
	}

	cmd.Flags().StringVar(&uiMode, "ui", "table", "user interface (table or log)")
	cmd.Flags().StringVar(&listen, "listen", "", "address of the status server, e.g. 127.0.0.1:8080")
	return cmd
}

func runMonitor(ctx context.Context, uiMode string) error {
	var ui *userInterface
	switch uiMode {
	case "table":
		ui = buildTUI()
		// before anything captures the console logger
		logger.Redirect(ui.logs)
	case "log":
	default:
		return fmt.Errorf("unknown ui %q", uiMode)
	}

	res, err := openResources(opts.cfg)
	if err != nil {
		return err
	}
	defer res.close()

	log := logger.WithComponent("run")
	out := sinks{logSink{}}
	if ui != nil {
		out = sinks{ui}
	}

	var srv *status.Server
	if addr := opts.cfg.Status.Listen; addr != "" {
		srv = status.New(addr, logger.WithComponent("status"))
		out = append(out, srv)
		go func() {
			if err := srv.Run(); err != nil {
				log.Error("status server failed", "error", err)
			}
		}()
	}

	m := res.newMonitor(newNotifier(opts.cfg), out)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m.Start()
	log.Info("monitor started", "interval", m.Config().PingInterval, "targets", len(m.Config().Targets()))

	if ui != nil {
		go func() {
			<-ctx.Done()
			ui.Stop()
		}()
		if err := ui.Run(); err != nil {
			return err
		}
	} else {
		<-ctx.Done()
	}

	m.Stop()
	select {
	case <-m.Done():
	case <-time.After(shutdownTimeout):
		log.Warn("cycle still running, exiting anyway")
	}

	if srv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("status server shutdown", "error", err)
		}
	}
	return nil
}

// logSink writes every snapshot as a log record.
type logSink struct{}

func (logSink) Publish(snap monitor.Snapshot) {
	log := logger.WithComponent("status")
	log.Info(headline(snap))
	for _, o := range snap.Outcomes {
		log.Debug("target", "name", o.Name, "up", o.Up, "ip", o.IP)
	}
}
