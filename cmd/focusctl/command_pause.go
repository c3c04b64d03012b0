package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"focusctl/internal/types"
)

type PauseCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewPauseCommand(stdout, stderr io.Writer, newClient clientFactory) *PauseCommand {
	return &PauseCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *PauseCommand) Run(args []string) error {
	fs := flag.NewFlagSet("pause", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	session, err := client.PauseSession(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "paused %s\n", session.ID)
	return nil
}

type ResumeCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewResumeCommand(stdout, stderr io.Writer, newClient clientFactory) *ResumeCommand {
	return &ResumeCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *ResumeCommand) Run(args []string) error {
	fs := flag.NewFlagSet("resume", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	noExtend := fs.Bool("no-extend", false, "do not shift the planned checkout by the paused duration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	session, err := client.ResumeSession(context.Background(), !*noExtend)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "resumed %s, checkout at %s\n", session.ID, session.PlannedCheckoutAt.Local().Format("15:04"))
	return nil
}

type SnoozeCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewSnoozeCommand(stdout, stderr io.Writer, newClient clientFactory) *SnoozeCommand {
	return &SnoozeCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *SnoozeCommand) Run(args []string) error {
	fs := flag.NewFlagSet("snooze", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	minutes := fs.Int("minutes", types.DefaultSnoozeMinutes, "postpone the reminder by this many minutes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	resp, err := client.Snooze(context.Background(), *minutes)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "snoozed %d/%d\n", resp.Session.SnoozeCount, types.SnoozeLimit)
	return nil
}
