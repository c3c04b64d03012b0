package main

import (
	"fmt"
	"os"
)

const usageText = `focusctl manages focus work sessions from the terminal.

Usage:
  focusctl <command> [flags]

Commands:
  status      show the current session and countdown
  start       start a session on a task
  checkout    end the current session with a decision
  pause       pause the current session
  resume      resume a paused session
  snooze      postpone the checkout reminder
  history     list past sessions
  schedule    show the day's planned slots
  reschedule  list or decide reschedule suggestions
  push        manage the out-of-band push subscription
  config      print configuration (effective or defaults)
  ui          run the interactive runner
  help        show help

Flags:
  -h, --help   show help

Examples:
  focusctl start --task task-42 --minutes 90
  focusctl checkout --decision complete --keep "stayed focused"
  focusctl reschedule accept rs-7
  focusctl history --limit 10
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}
