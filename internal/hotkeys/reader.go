package hotkeys

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/protab/protab/internal/chord"
)

// ReaderSource replays key transitions from a text stream, one per line:
//
//	down 48
//	up 17 cmd,shift
//	sleep 600ms
//
// Blank lines and lines starting with '#' are ignored. When Out is set, the
// verdict for every event is written to it.
type ReaderSource struct {
	In  io.Reader
	Out io.Writer
}

// Run feeds every event to handler until the input ends or ctx is done.
// Reads happen in a separate goroutine, so a blocked In (an idle stdin)
// does not delay cancellation; that goroutine exits with the next read.
func (s *ReaderSource) Run(ctx context.Context, handler Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	lineNo := 0
	for {
		var raw string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read events: %w", err)
					}
				default:
				}
				return nil
			}
			raw = l
		}
		lineNo++

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if fields[0] == "sleep" {
			if len(fields) != 2 {
				return fmt.Errorf("line %d: sleep needs a duration", lineNo)
			}
			d, err := time.ParseDuration(fields[1])
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d):
			}
			continue
		}

		ev, err := ParseEvent(fields)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		decision := handler(ev)
		if s.Out != nil {
			fmt.Fprintf(s.Out, "%s -> %s\n", line, decision)
		}
	}
}

// ParseEvent builds a KeyEvent from "down|up <code> [modifiers]" fields.
func ParseEvent(fields []string) (chord.KeyEvent, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return chord.KeyEvent{}, fmt.Errorf("want \"down|up <keycode> [modifiers]\", got %q", strings.Join(fields, " "))
	}

	ev := chord.KeyEvent{Timestamp: time.Now()}
	switch fields[0] {
	case "down":
		ev.Phase = chord.PhaseDown
	case "up":
		ev.Phase = chord.PhaseUp
	default:
		return chord.KeyEvent{}, fmt.Errorf("unknown phase %q", fields[0])
	}

	code, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return chord.KeyEvent{}, fmt.Errorf("invalid keycode %q", fields[1])
	}
	ev.Code = code

	if len(fields) == 3 {
		for _, name := range strings.Split(fields[2], ",") {
			switch strings.ToLower(name) {
			case "cmd", "command":
				ev.Modifiers |= chord.ModCommand
			case "ctrl", "control":
				ev.Modifiers |= chord.ModControl
			case "opt", "option", "alt":
				ev.Modifiers |= chord.ModOption
			case "shift":
				ev.Modifiers |= chord.ModShift
			default:
				return chord.KeyEvent{}, fmt.Errorf("unknown modifier %q (available: cmd, ctrl, opt, shift)", name)
			}
		}
	}
	return ev, nil
}
