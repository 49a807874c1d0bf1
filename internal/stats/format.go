package stats

import (
	"fmt"
	"strings"
)

// FormatTotals renders lifetime usage for the --stats command.
func FormatTotals(t *Totals, scripts map[string]string) string {
	if t == nil || t.Total == 0 {
		return "📊 No usage statistics yet. Press Tab followed by a letter to run a shortcut!"
	}

	var b strings.Builder
	b.WriteString("📊 Total Statistics:\n")
	fmt.Fprintf(&b, "   Chords recognized: %d\n", t.Total)
	fmt.Fprintf(&b, "   Scripts launched: %d\n", t.Launched)
	fmt.Fprintf(&b, "   Active days: %d\n", t.Days)
	b.WriteString("   Most used:")
	for i, l := range t.TopLetters() {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "\n     Tab+%s  %4d", l, t.Letters[l])
		if script, ok := scripts[l]; ok {
			fmt.Fprintf(&b, "  %s", script)
		}
	}
	return b.String()
}

// FormatWeek renders the last seven days.
func FormatWeek(days []*Day) string {
	active, total := 0, 0
	for _, day := range days {
		if day.Total > 0 {
			active++
			total += day.Total
		}
	}
	if active == 0 {
		return "📅 No activity this week yet."
	}

	var b strings.Builder
	b.WriteString("📅 This Week:\n")
	fmt.Fprintf(&b, "   Active days: %d/%d\n", active, len(days))
	fmt.Fprintf(&b, "   Chords: %d", total)
	for _, day := range days {
		if day.Total > 0 {
			fmt.Fprintf(&b, "\n   %s  %d", day.Date, day.Total)
		}
	}
	return b.String()
}
