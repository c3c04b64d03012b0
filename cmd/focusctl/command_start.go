package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	focusclient "focusctl/internal/client"
)

type StartCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewStartCommand(stdout, stderr io.Writer, newClient clientFactory) *StartCommand {
	return &StartCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *StartCommand) Run(args []string) error {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	task := fs.String("task", "", "task id")
	minutes := fs.Int("minutes", 0, "planned session length in minutes")
	until := fs.String("until", "", "planned checkout clock time HH:MM")
	outcome := fs.String("outcome", "", "planned outcome")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *task == "" {
		return errors.New("task is required")
	}

	plannedAt, err := resolvePlannedCheckout(*minutes, *until, time.Now())
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	session, err := client.StartSession(ctx, focusclient.StartSessionRequest{
		TaskID:            *task,
		PlannedCheckoutAt: plannedAt.UTC().Format(time.RFC3339),
		PlannedOutcome:    *outcome,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, session.ID)
	return nil
}

func resolvePlannedCheckout(minutes int, until string, now time.Time) (time.Time, error) {
	if minutes > 0 && until != "" {
		return time.Time{}, errors.New("use either --minutes or --until, not both")
	}
	if until != "" {
		clock, err := time.Parse("15:04", until)
		if err != nil {
			return time.Time{}, errors.New("invalid --until: expected HH:MM")
		}
		planned := time.Date(now.Year(), now.Month(), now.Day(),
			clock.Hour(), clock.Minute(), 0, 0, now.Location())
		if !planned.After(now) {
			// A clock time already past means tomorrow.
			planned = planned.Add(24 * time.Hour)
		}
		return planned, nil
	}
	if minutes <= 0 {
		minutes = 60
	}
	return now.Add(time.Duration(minutes) * time.Minute), nil
}
