package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"
)

type ScheduleCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewScheduleCommand(stdout, stderr io.Writer, newClient clientFactory) *ScheduleCommand {
	return &ScheduleCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *ScheduleCommand) Run(args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	date := fs.String("date", "", "day to show, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day := *date
	if day == "" {
		day = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	entries, err := client.DaySchedule(context.Background(), day)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(c.stdout, "no slots planned for %s\n", day)
		return nil
	}
	printSchedule(c.stdout, entries)
	return nil
}
