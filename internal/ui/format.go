package ui

import (
	"fmt"
	"strings"
	"time"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"focusctl/internal/countdown"
)

// formatRemaining renders a countdown as h:mm:ss, dropping the hour part for
// short durations. Overdue amounts get a leading minus.
func formatRemaining(status countdown.Status) string {
	remaining := status.Remaining
	sign := ""
	if remaining < 0 {
		sign = "-"
		remaining = -remaining
	}
	remaining = remaining.Round(time.Second)
	hours := int(remaining / time.Hour)
	minutes := int(remaining % time.Hour / time.Minute)
	seconds := int(remaining % time.Minute / time.Second)
	if hours > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, hours, minutes, seconds)
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes, seconds)
}

// progressBar renders elapsed share of the session as a fixed-width bar.
func progressBar(progress float64, width int) string {
	if width <= 2 {
		return ""
	}
	inner := width - 2
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := int(float64(inner)*progress/100 + 0.5)
	if filled > inner {
		filled = inner
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", inner-filled) + "]"
}

// truncateTitle shortens plain task titles by display width. Styled lines go
// through truncateToWidth instead.
func truncateTitle(text string, width int) string {
	if width <= 0 {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	if xansi.StringWidth(text) <= width {
		return text
	}
	if width == 1 {
		return "…"
	}
	return xansi.Cut(text, 0, width-1) + "…"
}

func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	current := xansi.StringWidth(text)
	if current >= width {
		return text
	}
	return text + strings.Repeat(" ", width-current)
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Local().Format("15:04")
}
