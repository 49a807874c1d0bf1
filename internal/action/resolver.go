// Package action turns a recognized letter into a script to run and runs it.
package action

import (
	"os"
	"path/filepath"
	"unicode"

	"github.com/protab/protab/internal/config"
)

// Descriptor is a resolved binding. It is recomputed on every resolution so
// scripts added or removed on disk are seen without a restart.
type Descriptor struct {
	Letter rune
	Script string
	Path   string
	Exists bool
}

// Resolver maps letters to scripts against a configuration snapshot.
type Resolver struct {
	home func() string
}

// NewResolver returns a Resolver that expands ${HOME} from the environment.
func NewResolver() *Resolver {
	return &Resolver{home: func() string { return os.Getenv("HOME") }}
}

// Resolve returns the descriptor for letter, or false when the letter is
// unbound. A missing script is reported through Exists, never as an error.
func (r *Resolver) Resolve(snapshot *config.Snapshot, letter rune) (Descriptor, bool) {
	if snapshot == nil {
		return Descriptor{}, false
	}
	letter = unicode.ToLower(letter)
	binding, ok := snapshot.Binding(letter)
	if !ok {
		return Descriptor{}, false
	}

	home := r.home()
	dir := config.Expand(snapshot.ShortcutsDirectory, home, snapshot.WorkDirectory)
	script := config.Expand(binding.Script, home, snapshot.WorkDirectory)

	path := dir + "/" + script
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	d := Descriptor{Letter: letter, Script: binding.Script, Path: path}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		d.Exists = true
	}
	return d, true
}
