package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	focusclient "focusctl/internal/client"
	"focusctl/internal/store"
	"focusctl/internal/types"
)

type HistoryCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewHistoryCommand(stdout, stderr io.Writer, newClient clientFactory) *HistoryCommand {
	return &HistoryCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *HistoryCommand) Run(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	skip := fs.Int("skip", 0, "entries to skip")
	limit := fs.Int("limit", 20, "max entries")
	task := fs.String("task", "", "filter by task id")
	notifications := fs.Bool("notifications", false, "list recent reminders from the local store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *notifications {
		return c.printNotifications(*limit)
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}

	var sessions []*types.WorkSession
	if *task != "" {
		sessions, err = client.SessionsByTask(ctx, *task, *skip, *limit)
	} else {
		sessions, err = client.SessionHistory(ctx, *skip, *limit)
	}
	if errors.Is(err, focusclient.ErrNetwork) && *task == "" {
		cached, cacheErr := readSnapshot(func(s *store.SnapshotStore) ([]*types.WorkSession, error) {
			return s.History(*limit)
		})
		if cacheErr != nil || len(cached) == 0 {
			return err
		}
		fmt.Fprintln(c.stdout, "backend unreachable; showing local history")
		printSessions(c.stdout, cached)
		return nil
	}
	if err != nil {
		return err
	}
	printSessions(c.stdout, sessions)
	return nil
}

func (c *HistoryCommand) printNotifications(limit int) error {
	messages, err := readSnapshot(func(s *store.SnapshotStore) ([]*types.NotificationMessage, error) {
		return s.Notifications(limit)
	})
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Fprintln(c.stdout, "no reminders recorded")
		return nil
	}
	for _, msg := range messages {
		line := string(msg.Level) + "  " + msg.Title
		if msg.Body != "" {
			line += ": " + msg.Body
		}
		fmt.Fprintln(c.stdout, line)
	}
	return nil
}
