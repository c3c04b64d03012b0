package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	focusclient "focusctl/internal/client"
	"focusctl/internal/config"
	"focusctl/internal/countdown"
	"focusctl/internal/store"
	"focusctl/internal/types"
)

type StatusCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewStatusCommand(stdout, stderr io.Writer, newClient clientFactory) *StatusCommand {
	return &StatusCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *StatusCommand) Run(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	session, err := client.CurrentSession(ctx)
	if errors.Is(err, focusclient.ErrNetwork) {
		return c.printCachedStatus(err)
	}
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Fprintln(c.stdout, "no session running")
		if stale, err := client.UnresponsiveSession(ctx); err == nil && stale != nil {
			fmt.Fprintf(c.stdout, "found unresponsive session %s on task %s; check out or resume it\n", stale.ID, stale.TaskID)
		}
		c.printServerLine(ctx, client)
		return nil
	}

	status := countdown.Compute(session.PlannedCheckoutAt, session.StartedAt, session.PausedAt, time.Now())
	state := "active"
	switch {
	case session.Paused():
		state = "paused"
	case status.Overdue:
		state = "overdue"
	}

	fmt.Fprintf(c.stdout, "session %s\n", session.ID)
	fmt.Fprintf(c.stdout, "task      %s\n", session.TaskID)
	fmt.Fprintf(c.stdout, "state     %s\n", state)
	fmt.Fprintf(c.stdout, "remaining %s (%.0f%% elapsed)\n", formatDuration(status.Remaining), status.Progress)
	fmt.Fprintf(c.stdout, "checkout  %s\n", session.PlannedCheckoutAt.Local().Format("15:04"))
	if session.SnoozeCount > 0 {
		fmt.Fprintf(c.stdout, "snoozes   %d\n", session.SnoozeCount)
	}
	c.printServerLine(ctx, client)
	return nil
}

// printServerLine reports backend health and version; a failed health check
// is itself worth a line since the session data above may be going stale.
func (c *StatusCommand) printServerLine(ctx context.Context, client commandClient) {
	health, err := client.Health(ctx)
	if err != nil || health == nil || !health.OK {
		fmt.Fprintln(c.stdout, "server    unhealthy")
		return
	}
	line := "server    ok"
	if health.Version != "" {
		line += " " + health.Version
	}
	fmt.Fprintln(c.stdout, line)
}

// printCachedStatus serves the last snapshot when the backend is unreachable.
func (c *StatusCommand) printCachedStatus(cause error) error {
	session, err := readSnapshot(func(s *store.SnapshotStore) (*types.WorkSession, error) {
		return s.ActiveSession()
	})
	if err != nil || session == nil {
		return cause
	}
	status := countdown.Compute(session.PlannedCheckoutAt, session.StartedAt, session.PausedAt, time.Now())
	fmt.Fprintln(c.stdout, "backend unreachable; showing last known session")
	fmt.Fprintf(c.stdout, "session   %s\n", session.ID)
	fmt.Fprintf(c.stdout, "task      %s\n", session.TaskID)
	fmt.Fprintf(c.stdout, "remaining %s (%.0f%% elapsed)\n", formatDuration(status.Remaining), status.Progress)
	return nil
}

// readSnapshot opens the local snapshot store for a single read.
func readSnapshot[T any](read func(*store.SnapshotStore) (T, error)) (T, error) {
	var zero T
	dbPath, err := config.SnapshotDBPath()
	if err != nil {
		return zero, err
	}
	snapshots, err := store.OpenSnapshotStore(dbPath)
	if err != nil {
		return zero, err
	}
	defer snapshots.Close()
	return read(snapshots)
}
