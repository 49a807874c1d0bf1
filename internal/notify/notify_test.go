package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	notified []string
	beeps    int
	scripts  []string
}

func newTestNotifier(rec *recorder, primaryErr error) *Notifier {
	return &Notifier{
		notify: func(title, message string) error {
			rec.notified = append(rec.notified, title+": "+message)
			return primaryErr
		},
		beep: func() error {
			rec.beeps++
			return primaryErr
		},
		fallback: func(script string) error {
			rec.scripts = append(rec.scripts, script)
			return nil
		},
	}
}

func TestNotify_Primary(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, nil)

	n.Notify("ProTab", "Global shortcuts active")
	n.Alert()

	assert.Equal(t, []string{"ProTab: Global shortcuts active"}, rec.notified)
	assert.Equal(t, 1, rec.beeps)
	assert.Empty(t, rec.scripts)
}

func TestNotify_FallsBackToAppleScript(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, errors.New("no notifier"))

	n.Notify(`Pro"Tab`, `path C:\x`)
	n.Alert()

	assert.Equal(t, []string{
		`display notification "path C:\\x" with title "Pro\"Tab"`,
		"beep 1",
	}, rec.scripts)
}

func TestNotify_FallbackFailureIsSwallowed(t *testing.T) {
	n := &Notifier{
		notify:   func(string, string) error { return errors.New("a") },
		beep:     func() error { return errors.New("b") },
		fallback: func(string) error { return errors.New("c") },
	}
	assert.NotPanics(t, func() {
		n.Notify("t", "m")
		n.Alert()
	})
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, quote("plain"))
	assert.Equal(t, `"a\"b\\c"`, quote(`a"b\c`))
}
