package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"

	focusclient "focusctl/internal/client"
	"focusctl/internal/types"
)

type CheckoutCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewCheckoutCommand(stdout, stderr io.Writer, newClient clientFactory) *CheckoutCommand {
	return &CheckoutCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *CheckoutCommand) Run(args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	decision := fs.String("decision", "complete", "complete|continue|stop")
	reason := fs.String("reason", "", "why the task continues later")
	keep := fs.String("keep", "", "what went well")
	problem := fs.String("problem", "", "what got in the way")
	try := fs.String("try", "", "what to try next time")
	estimate := fs.Float64("estimate", -1, "remaining estimate in hours")
	nextTask := fs.String("next-task", "", "task id to chain into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d := types.SessionDecision(*decision)
	if !d.Valid() {
		return errors.New("decision must be complete, continue, or stop")
	}

	req := focusclient.CheckoutRequest{
		Decision:       d,
		ContinueReason: *reason,
		KPTKeep:        *keep,
		KPTProblem:     *problem,
		KPTTry:         *try,
		NextTaskID:     *nextTask,
		IdempotencyKey: uuid.NewString(),
	}
	if *estimate >= 0 {
		req.RemainingEstimateHours = estimate
	}

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	resp, err := client.Checkout(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.stdout, "checked out %s\n", resp.Session.ID)
	if resp.GeneratedLog != nil {
		fmt.Fprintln(c.stdout)
		fmt.Fprintln(c.stdout, resp.GeneratedLog.Content)
	}
	if resp.RescheduleSuggestion != nil {
		fmt.Fprintln(c.stdout)
		fmt.Fprintf(c.stdout, "reschedule suggested: %s\n", resp.RescheduleSuggestion.Summary)
		fmt.Fprintf(c.stdout, "decide with: focusctl reschedule accept %s (or reject)\n", resp.RescheduleSuggestion.ID)
	}
	return nil
}
