package main

import (
	"context"
	"flag"
	"io"

	focusclient "focusctl/internal/client"
	"focusctl/internal/config"
	"focusctl/internal/gateway"
	"focusctl/internal/logging"
	"focusctl/internal/reschedule"
	"focusctl/internal/runner"
	"focusctl/internal/store"
	"focusctl/internal/types"
	"focusctl/internal/ui"
)

type UICommand struct {
	stderr    io.Writer
	newClient clientFactory
	version   string
}

func NewUICommand(stderr io.Writer, newClient clientFactory, version string) *UICommand {
	return &UICommand{
		stderr:    stderr,
		newClient: newClient,
		version:   version,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	return client.RunUI(c.version)
}

// runInteractiveUI assembles the full runtime: snapshot store, orchestrator,
// poller, push gateway, and reschedule coordinator around one client.
func runInteractiveUI(client *focusclient.Client, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logPath, err := config.LogPath()
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.NewFileLogger(logPath, logging.ParseLevel(cfg.LogLevel()))
	if err != nil {
		logger = logging.Nop()
		closeLog = func() error { return nil }
	}
	defer closeLog()

	dbPath, err := config.SnapshotDBPath()
	if err != nil {
		return err
	}
	snapshots, err := store.OpenSnapshotStore(dbPath)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orc := runner.NewOrchestrator(client, runner.NewBus(), snapshots, logger.With(logging.F("component", "runner")))
	defer orc.Close()

	coordinator := reschedule.NewCoordinator(client, func() {
		_ = orc.RefreshSchedule(ctx)
	}, logger.With(logging.F("component", "reschedule")))

	slot := gateway.NewSlot(nil)
	gw := gateway.New(client, slot, logger.With(logging.F("component", "gateway")))
	gw.OnNotification(func(msg *types.NotificationMessage) {
		_ = snapshots.AppendNotification(msg)
	})
	go func() {
		if err := gw.Run(ctx); err != nil {
			logger.Error("push_channel_stopped", logging.F("err", err))
		}
	}()

	poller := runner.NewPoller(orc, logger.With(logging.F("component", "poller")))
	poller.Start(ctx)
	defer poller.Stop()

	return ui.Run(ui.Deps{
		Orchestrator: orc,
		Coordinator:  coordinator,
		Slot:         slot,
		Gateway:      gw,
		Poller:       poller,
		Version:      version,
	})
}
