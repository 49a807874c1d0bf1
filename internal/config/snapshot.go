package config

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultWaitTimeoutMs = 500
	DefaultAppName       = "ProTab"
)

// Binding maps a letter to a script inside the shortcuts directory.
type Binding struct {
	Letter rune
	Script string
}

// Snapshot is one immutable configuration. Reloading builds
// a new Snapshot; nothing mutates one after it is returned by the loader.
type Snapshot struct {
	// Source is the document the snapshot was read from, empty for the
	// built-in default.
	Source string

	WorkDirectory         string
	// ShortcutsDirectory may still hold ${HOME} and ${WORK_DIR}; they are
	// expanded when a letter is resolved.
	ShortcutsDirectory    string
	ClaudeConfigDirectory string
	WaitTimeoutMs         int
	Bindings              map[rune]Binding

	AppName                        string
	NotificationTitle              string
	DebugMode                      bool
	RequireAccessibilityPermission bool

	// Warnings lists fields that were present but unusable and fell back to
	// their defaults.
	Warnings []string
}

// WaitTimeout returns the chord window as a duration.
func (s *Snapshot) WaitTimeout() time.Duration {
	if s.WaitTimeoutMs <= 0 {
		return DefaultWaitTimeoutMs * time.Millisecond
	}
	return time.Duration(s.WaitTimeoutMs) * time.Millisecond
}

// Binding returns the binding for letter, case-folded.
func (s *Snapshot) Binding(letter rune) (Binding, bool) {
	b, ok := s.Bindings[unicode.ToLower(letter)]
	return b, ok
}

// Letters returns the bound letters in order.
func (s *Snapshot) Letters() []rune {
	letters := make([]rune, 0, len(s.Bindings))
	for l := range s.Bindings {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return letters
}

// defaultShortcuts are the stock ProTab scripts.
var defaultShortcuts = map[rune]string{
	'c': "start_api.sh",
	'a': "auth_api.sh",
	'm': "edit_claude_md.sh",
	'j': "edit_settings_json.sh",
	'l': "new_claude_code.sh",
	'u': "update_claude_code.sh",
	'i': "start_core_inject.sh",
	'f': "open_force_quit.sh",
	't': "new_terminal.sh",
	'p': "new_private_tab.sh",
	'b': "upload_to_r2.sh",
	'r': "clean_ram.sh",
	'q': "network_test.sh",
	's': "screenshot.sh",
	'v': "record.sh",
}

// DefaultSnapshot builds the built-in configuration for the given home and
// working directories.
func DefaultSnapshot(home, cwd string) *Snapshot {
	bindings := make(map[rune]Binding, len(defaultShortcuts))
	for l, script := range defaultShortcuts {
		bindings[l] = Binding{Letter: l, Script: script}
	}
	return &Snapshot{
		WorkDirectory:                  cwd,
		ShortcutsDirectory:             cwd + "/shortcuts",
		ClaudeConfigDirectory:          home + "/.claude",
		WaitTimeoutMs:                  DefaultWaitTimeoutMs,
		Bindings:                       bindings,
		AppName:                        DefaultAppName,
		NotificationTitle:              DefaultAppName,
		DebugMode:                      false,
		RequireAccessibilityPermission: true,
	}
}

// Expand replaces the ${HOME} and ${WORK_DIR} placeholders.
func Expand(s, home, workDir string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return strings.NewReplacer("${HOME}", home, "${WORK_DIR}", workDir).Replace(s)
}
