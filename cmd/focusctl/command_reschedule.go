package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"focusctl/internal/types"
)

type RescheduleCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewRescheduleCommand(stdout, stderr io.Writer, newClient clientFactory) *RescheduleCommand {
	return &RescheduleCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *RescheduleCommand) Run(args []string) error {
	action := "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		action = args[0]
		args = args[1:]
	}
	// The id comes before any flags so the flag package sees only flags.
	id := ""
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		id = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("reschedule", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	reason := fs.String("reason", "", "free-text reason for the decision")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}

	switch action {
	case "list":
		suggestions, err := client.PendingReschedules(ctx)
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			fmt.Fprintln(c.stdout, "no pending suggestions")
			return nil
		}
		for _, suggestion := range suggestions {
			printSuggestion(c.stdout, suggestion)
		}
		return nil
	case "show":
		if id == "" {
			return errors.New("usage: focusctl reschedule show <id>")
		}
		suggestion, err := client.GetReschedule(ctx, id)
		if err != nil {
			return err
		}
		printSuggestion(c.stdout, suggestion)
		return nil
	case "accept", "reject":
		if id == "" {
			return fmt.Errorf("usage: focusctl reschedule %s <id> [--reason ...]", action)
		}
		var decided *types.RescheduleSuggestion
		if action == "accept" {
			decided, err = client.AcceptReschedule(ctx, id, *reason)
		} else {
			decided, err = client.RejectReschedule(ctx, id, *reason)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s %s\n", decided.Status, decided.ID)
		return nil
	default:
		return fmt.Errorf("unknown reschedule action: %s (want list, show, accept, or reject)", action)
	}
}
