package tui

import (
	"fmt"
	"time"
)

// FormatDuration renders a tool run time: "850ms", "12.34s" or "3m05s".
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// FormatSeconds renders a duration stored as fractional seconds.
func FormatSeconds(secs float64) string {
	return FormatDuration(time.Duration(secs * float64(time.Second)))
}
