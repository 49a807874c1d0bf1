// Package notify shows desktop notifications and plays the alert sound.
package notify

import (
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/gen2brain/beeep"
)

// Notifier delivers user-facing feedback. Failures are logged, never
// returned: feedback must not affect chord handling.
type Notifier struct {
	notify   func(title, message string) error
	beep     func() error
	fallback func(script string) error
}

// New returns a Notifier backed by beeep with an osascript fallback.
func New(appName string) *Notifier {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Notifier{
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration/2)
		},
		fallback: func(script string) error {
			return exec.Command("osascript", "-e", script).Run()
		},
	}
}

// Notify posts a desktop notification.
func (n *Notifier) Notify(title, message string) {
	if err := n.notify(title, message); err == nil {
		return
	}
	// Fallback to AppleScript notification
	script := fmt.Sprintf(`display notification %s with title %s`, quote(message), quote(title))
	if err := n.fallback(script); err != nil {
		log.Printf("[NOTIFY] Failed to show notification %q: %v", title, err)
	}
}

// Alert plays a short warning sound.
func (n *Notifier) Alert() {
	if err := n.beep(); err == nil {
		return
	}
	// Fallback to system beep command
	if err := n.fallback("beep 1"); err != nil {
		log.Printf("[NOTIFY] Failed to beep: %v", err)
	}
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
