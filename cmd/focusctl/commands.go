package main

import (
	"io"
	"os"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
	version   string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:    stdout,
		stderr:    stderr,
		newClient: newFocusClient,
		version:   buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"status":     NewStatusCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"start":      NewStartCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"checkout":   NewCheckoutCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"pause":      NewPauseCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"resume":     NewResumeCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"snooze":     NewSnoozeCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"history":    NewHistoryCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"schedule":   NewScheduleCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"reschedule": NewRescheduleCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"push":       NewPushCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"config":     NewConfigCommand(wiring.stdout, wiring.stderr),
		"ui":         NewUICommand(wiring.stderr, wiring.newClient, wiring.version),
	}
}
