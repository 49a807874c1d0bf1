// Package config loads ProTab's configuration document into a typed
// Snapshot. Loose, path-based lookups happen only here; everything
// downstream sees the Snapshot.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.json"
	configDirName  = ".protab"
	systemConfig   = "/usr/local/etc/protab/config.json"

	// EnvConfigPath names an explicit configuration document.
	EnvConfigPath = "PROTAB_CONFIG"
)

var (
	// ErrNoConfig is returned when no configuration document exists.
	ErrNoConfig = errors.New("no configuration file found")
	// ErrInvalidDocument is returned when a document is not a mapping.
	ErrInvalidDocument = errors.New("configuration document is not a mapping")
)

// Loader discovers and parses configuration documents. The function
// fields exist so tests can pin the environment.
type Loader struct {
	Getenv     func(string) string
	Getwd      func() (string, error)
	Executable func() (string, error)

	// Dotenv loads ./.env into the process environment before discovery.
	Dotenv bool
}

// NewLoader returns a Loader bound to the process environment.
func NewLoader() *Loader {
	return &Loader{
		Getenv:     os.Getenv,
		Getwd:      os.Getwd,
		Executable: os.Executable,
		Dotenv:     true,
	}
}

func (l *Loader) home() string {
	if home := l.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func (l *Loader) cwd() string {
	if l.Getwd == nil {
		return "."
	}
	dir, err := l.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// Default returns the built-in snapshot for the current environment.
func (l *Loader) Default() *Snapshot {
	return DefaultSnapshot(l.home(), l.cwd())
}

// Candidates lists the documents probed by Discover, highest priority first.
func (l *Loader) Candidates() []string {
	var paths []string

	// Priority 1: explicit environment variable
	if p := l.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}

	// Priority 2: user config directory
	if home := l.home(); home != "" {
		paths = append(paths, filepath.Join(home, configDirName, configFileName))
	}

	// Priority 3: working directory
	paths = append(paths, filepath.Join(l.cwd(), configFileName))

	// Priority 4: next to the executable
	if l.Executable != nil {
		if exe, err := l.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(exe), configFileName))
		}
	}

	// Priority 5: system-wide
	paths = append(paths, systemConfig)
	return paths
}

// Discover returns the first candidate that exists.
func (l *Loader) Discover() (string, error) {
	for _, p := range l.Candidates() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", ErrNoConfig
}

// Load reads the document at path, or the discovered one when path is
// empty. It always returns a usable snapshot: on any failure the built-in
// default is returned together with the reason.
func (l *Loader) Load(path string) (*Snapshot, error) {
	if l.Dotenv {
		// A missing .env is the common case.
		_ = godotenv.Load()
	}

	if path == "" {
		discovered, err := l.Discover()
		if err != nil {
			return l.Default(), err
		}
		path = discovered
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return l.Default(), fmt.Errorf("read config %s: %w", path, err)
	}

	snapshot, err := l.Parse(data, isYAML(path))
	if err != nil {
		return l.Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	snapshot.Source = path
	return snapshot, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Parse builds a snapshot from a JSON (or YAML) document. Missing or
// unusable fields take their defaults; only a document that is not a
// mapping is an error.
func (l *Loader) Parse(data []byte, yamlDoc bool) (*Snapshot, error) {
	if yamlDoc {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrInvalidDocument)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrInvalidDocument
	}

	home := l.home()
	cwd := l.cwd()
	p := &parser{doc: doc, home: home, workDir: cwd}

	snapshot := &Snapshot{}
	snapshot.WorkDirectory = p.str("paths.work_directory", cwd)
	p.workDir = snapshot.WorkDirectory

	// scripts_directory wins over shortcuts_dir; empty strings count as unset.
	// Placeholders stay in place: the resolver expands them.
	dir, ok := p.raw("paths.scripts_directory")
	if !ok {
		dir, ok = p.raw("paths.shortcuts_dir")
	}
	if !ok {
		dir = snapshot.WorkDirectory + "/shortcuts"
	}
	snapshot.ShortcutsDirectory = dir

	snapshot.ClaudeConfigDirectory = p.str("paths.claude_config_dir", home+"/.claude")
	snapshot.WaitTimeoutMs = p.positiveInt("keyboard.wait_timeout_ms", DefaultWaitTimeoutMs)
	snapshot.Bindings = p.bindings("keyboard.shortcuts")
	snapshot.NotificationTitle = p.str("ui.notification_title", DefaultAppName)
	snapshot.AppName = p.str("ui.app_name", DefaultAppName)
	snapshot.DebugMode = p.boolean("system.debug_mode", false)
	snapshot.RequireAccessibilityPermission = p.boolean("system.require_accessibility_permission", true)
	snapshot.Warnings = p.warnings

	return snapshot, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, ok := tree.(map[string]any); !ok {
		return nil, ErrInvalidDocument
	}
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return out, nil
}

type parser struct {
	doc      gjson.Result
	home     string
	workDir  string
	warnings []string
}

func (p *parser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *parser) str(path, def string) string {
	v, ok := p.raw(path)
	if !ok {
		return def
	}
	return Expand(v, p.home, p.workDir)
}

// raw returns a string field as written, placeholders included.
func (p *parser) raw(path string) (string, bool) {
	r := p.doc.Get(path)
	if !r.Exists() {
		return "", false
	}
	if r.Type != gjson.String {
		p.warnf("%s: expected a string, using default", path)
		return "", false
	}
	if r.Str == "" {
		return "", false
	}
	return r.Str, true
}

func (p *parser) positiveInt(path string, def int) int {
	r := p.doc.Get(path)
	if !r.Exists() {
		return def
	}
	if r.Type != gjson.Number || r.Num != float64(int64(r.Num)) || r.Int() <= 0 {
		p.warnf("%s: expected a positive integer, using %d", path, def)
		return def
	}
	return int(r.Int())
}

func (p *parser) boolean(path string, def bool) bool {
	r := p.doc.Get(path)
	if !r.Exists() {
		return def
	}
	if !r.IsBool() {
		p.warnf("%s: expected a boolean, using %v", path, def)
		return def
	}
	return r.Bool()
}

func (p *parser) bindings(path string) map[rune]Binding {
	out := make(map[rune]Binding)
	r := p.doc.Get(path)
	if !r.Exists() {
		return out
	}
	if !r.IsObject() {
		p.warnf("%s: expected a mapping, no shortcuts bound", path)
		return out
	}

	r.ForEach(func(key, value gjson.Result) bool {
		name := strings.ToLower(key.String())
		if len(name) != 1 || name[0] < 'a' || name[0] > 'z' {
			p.warnf("%s.%s: not a letter, skipped", path, key.String())
			return true
		}
		if value.Type != gjson.String || value.Str == "" {
			p.warnf("%s.%s: expected a script name, skipped", path, name)
			return true
		}
		letter := rune(name[0])
		out[letter] = Binding{Letter: letter, Script: value.Str}
		return true
	})
	return out
}
