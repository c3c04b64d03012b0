package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"focusctl/internal/config"
	"focusctl/internal/gateway"
	"focusctl/internal/store"
)

type PushCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewPushCommand(stdout, stderr io.Writer, newClient clientFactory) *PushCommand {
	return &PushCommand{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newClient,
	}
}

func (c *PushCommand) Run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: focusctl push subscribe|unsubscribe|status")
	}
	action := args[0]

	fs := flag.NewFlagSet("push", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := c.newClient()
	if err != nil {
		return err
	}
	dbPath, err := config.SnapshotDBPath()
	if err != nil {
		return err
	}
	snapshots, err := store.OpenSnapshotStore(dbPath)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	ctx := context.Background()
	switch action {
	case "subscribe":
		existing, err := snapshots.PushSubscription()
		if err != nil {
			return err
		}
		if existing != nil {
			fmt.Fprintf(c.stdout, "already subscribed: %s\n", existing.Endpoint)
			return nil
		}
		manager := gateway.NewPushManager(
			client,
			gateway.TerminalPlatform{RelayBaseURL: cfg.ServerURL()},
			cfg.PushPublicKey(),
			cfg.DeviceType(),
			nil,
		)
		sub, err := manager.Subscribe(ctx)
		if err != nil {
			return err
		}
		if sub == nil {
			fmt.Fprintln(c.stdout, "push is not configured (set push.public_key in config.toml)")
			return nil
		}
		if err := snapshots.PutPushSubscription(sub); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "subscribed %s\n", sub.Endpoint)
		return nil
	case "unsubscribe":
		sub, err := snapshots.PushSubscription()
		if err != nil {
			return err
		}
		if sub == nil {
			fmt.Fprintln(c.stdout, "not subscribed")
			return nil
		}
		if err := client.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
			return err
		}
		if err := snapshots.PutPushSubscription(nil); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "unsubscribed")
		return nil
	case "status":
		sub, err := snapshots.PushSubscription()
		if err != nil {
			return err
		}
		if sub == nil {
			fmt.Fprintln(c.stdout, "not subscribed")
			return nil
		}
		fmt.Fprintf(c.stdout, "subscribed %s (%s)\n", sub.Endpoint, sub.DeviceType)
		return nil
	default:
		return fmt.Errorf("unknown push action: %s (want subscribe, unsubscribe, or status)", action)
	}
}
