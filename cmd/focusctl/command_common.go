package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"text/tabwriter"
	"time"

	"focusctl/internal/types"
)

const version = "dev"

func printSessions(output io.Writer, sessions []*types.WorkSession) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTASK\tSTARTED\tENDED\tSNOOZES\tOUTCOME")
	for _, session := range sessions {
		ended := "-"
		if session.EndedAt != nil {
			ended = session.EndedAt.Local().Format("15:04")
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%s\n",
			session.ID, session.TaskID,
			session.StartedAt.Local().Format("2006-01-02 15:04"),
			ended, session.SnoozeCount, session.PlannedOutcome)
	}
	_ = writer.Flush()
}

func printSchedule(output io.Writer, entries []types.ScheduleEntry) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ORDER\tSTART\tEND\tTASK\tTITLE")
	for _, entry := range entries {
		start := entry.Start
		if start == "" {
			start = "-"
		}
		end := entry.End
		if end == "" {
			end = "-"
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n", entry.Order, start, end, entry.TaskID, entry.Title)
	}
	_ = writer.Flush()
}

func printSuggestion(output io.Writer, suggestion *types.RescheduleSuggestion) {
	fmt.Fprintf(output, "%s\t%s\t%s\n", suggestion.ID, suggestion.Status, suggestion.Summary)
	for _, change := range suggestion.Changes {
		fmt.Fprintf(output, "  %s: %s -> %s\n", change.TaskID, change.OldStart, change.NewStart)
	}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + formatDuration(-d)
	}
	d = d.Round(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}
