package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/protab/protab/internal/action"
	"github.com/protab/protab/internal/chord"
	"github.com/protab/protab/internal/config"
	"github.com/protab/protab/internal/feed"
	"github.com/protab/protab/internal/hotkeys"
	"github.com/protab/protab/internal/notify"
	"github.com/protab/protab/internal/stats"
)

// Notifier is the user feedback the daemon needs.
type Notifier interface {
	Notify(title, message string)
	Alert()
}

// Options configures a Daemon. Zero values select the live defaults.
type Options struct {
	// ConfigPath overrides configuration discovery.
	ConfigPath string
	// Source overrides the global keyboard hook, e.g. for replaying traces.
	Source hotkeys.Source
	// FeedAddr, when set, serves the chord feed on this address.
	FeedAddr string
	// StatsDir, when set, records dispatches under this directory.
	StatsDir string

	Executor action.Executor
	Notifier Notifier
	// OpenSettings shows the permission pane when the hook is not trusted.
	OpenSettings func() error
}

type Daemon struct {
	opts Options

	store         *config.Store
	recognizer    *chord.Recognizer
	resolver      *action.Resolver
	executor      action.Executor
	notifier      Notifier
	statsManager  *stats.Manager
	hub           *feed.Hub
	hotkeyManager *hotkeys.Manager

	dispatches sync.WaitGroup
}

func NewDaemon(opts Options) *Daemon {
	return &Daemon{opts: opts}
}

func (d *Daemon) Initialize() error {
	d.store = config.NewStore(config.NewLoader(), d.opts.ConfigPath)
	if err := d.store.Load(); err != nil {
		log.Printf("[CONFIG] Using built-in defaults: %v", err)
	}
	snapshot := d.store.Current()
	logWarnings(snapshot)

	d.recognizer = chord.New(chord.ListenerFunc(d.OnChord), chord.Options{
		Window: snapshot.WaitTimeout(),
	})
	d.store.OnReload(d.applySnapshot)

	d.resolver = action.NewResolver()

	d.executor = d.opts.Executor
	if d.executor == nil {
		d.executor = action.NewShellExecutor()
	}

	d.notifier = d.opts.Notifier
	if d.notifier == nil {
		d.notifier = notify.New(snapshot.AppName)
	}

	if d.opts.OpenSettings == nil {
		d.opts.OpenSettings = hotkeys.OpenAccessibilitySettings
	}

	if d.opts.StatsDir != "" {
		var err error
		d.statsManager, err = stats.NewManager(d.opts.StatsDir)
		if err != nil {
			return fmt.Errorf("failed to initialize stats: %w", err)
		}
	}

	if d.opts.FeedAddr != "" {
		d.hub = feed.NewHub()
	}

	source := d.opts.Source
	if source == nil {
		source = hotkeys.NewTapSource(snapshot.RequireAccessibilityPermission)
	}
	d.hotkeyManager = hotkeys.NewManager(source, d.recognizer.HandleEvent)

	return nil
}

// Run blocks until SIGINT/SIGTERM or until the event source stops.
func (d *Daemon) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.RunContext(ctx)
}

// RunContext is Run with an explicit lifetime.
func (d *Daemon) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.hotkeyManager.Start(); err != nil {
		return fmt.Errorf("failed to start keyboard hook: %w", err)
	}

	go func() {
		if err := d.store.Watch(ctx); err != nil && !errors.Is(err, config.ErrNoConfig) {
			log.Printf("[CONFIG] Live reload disabled: %v", err)
		}
	}()

	if d.hub != nil {
		go func() {
			if err := feed.Serve(ctx, d.opts.FeedAddr, d.hub); err != nil {
				log.Printf("[FEED] Server stopped: %v", err)
			}
		}()
	}

	snapshot := d.store.Current()
	fmt.Printf("⌨️  %s - Keyboard Shortcut Daemon Started\n", snapshot.AppName)
	fmt.Printf("📋 Press %s within %v to run a shortcut\n", d.hotkeyManager.GetHotkeyDisplay(), snapshot.WaitTimeout())
	if path := d.store.Path(); path != "" {
		fmt.Printf("📁 Config: %s\n", path)
	} else {
		fmt.Println("📁 Config: built-in defaults")
	}
	if d.hub != nil {
		fmt.Printf("📡 Chord feed: ws://%s%s\n", d.opts.FeedAddr, feed.Path)
	}
	fmt.Println("🛑 Press Ctrl+C to exit")
	fmt.Println()
	d.notifier.Notify(snapshot.NotificationTitle, "Global shortcuts active")

	var err error
	select {
	case <-ctx.Done():
		fmt.Println("\n🛑 Shutting down...")
	case <-d.hotkeyManager.Done():
		err = d.hotkeyManager.Err()
	}
	d.Cleanup()

	if errors.Is(err, hotkeys.ErrNotTrusted) {
		d.notifier.Notify(snapshot.NotificationTitle, "Grant Accessibility access to enable shortcuts")
		fmt.Println("🔐 Accessibility permission is required.")
		fmt.Println("   System Settings → Privacy & Security → Accessibility, then restart.")
		if err := d.opts.OpenSettings(); err != nil {
			log.Printf("[HOOK] Failed to open Accessibility settings: %v", err)
		}
	}
	if err != nil {
		return fmt.Errorf("keyboard hook stopped: %w", err)
	}
	return nil
}

func (d *Daemon) Cleanup() {
	if d.hotkeyManager != nil {
		d.hotkeyManager.Stop()
	}
	if d.recognizer != nil {
		d.recognizer.Reset()
	}

	// Dispatches already started finish their bookkeeping; the scripts
	// themselves keep running.
	d.dispatches.Wait()

	if d.hub != nil {
		d.hub.Close()
	}
}

// OnChord is called by the recognizer for every completed chord. It runs
// on the event path, so the work happens in a goroutine.
func (d *Daemon) OnChord(letter rune) {
	snapshot := d.store.Current()
	at := time.Now()

	d.dispatches.Add(1)
	go func() {
		defer d.dispatches.Done()
		d.dispatch(snapshot, letter, at)
	}()
}

func (d *Daemon) dispatch(snapshot *config.Snapshot, letter rune, at time.Time) {
	desc, ok := d.resolver.Resolve(snapshot, letter)
	if !ok {
		if snapshot.DebugMode {
			log.Printf("[CHORD] Tab+%c is not bound", letter)
		}
		d.record(uuid.NewString(), desc, letter, false, at)
		return
	}

	req := action.NewRequest(desc, snapshot.WorkDirectory)
	if !desc.Exists {
		if snapshot.DebugMode {
			log.Printf("[CHORD] Tab+%c script not found: %s", letter, desc.Path)
		}
		fmt.Printf("❌ Tab+%c: %s not found\n", letter, desc.Script)
		d.notifier.Alert()
	} else {
		if snapshot.DebugMode {
			log.Printf("[CHORD] %s Tab+%c -> %s", req.ID, letter, desc.Path)
		}
		fmt.Printf("🚀 Tab+%c → %s\n", letter, desc.Script)
		d.executor.Execute(req)
	}
	d.record(req.ID, desc, letter, true, at)
}

func (d *Daemon) record(id string, desc action.Descriptor, letter rune, bound bool, at time.Time) {
	if d.statsManager != nil {
		if _, err := d.statsManager.RecordDispatch(id, letter, desc.Script, !desc.Exists); err != nil {
			log.Printf("[STATS] Failed to record Tab+%c: %v", letter, err)
		}
	}
	if d.hub != nil {
		d.hub.Broadcast(feed.Event{
			ID:     id,
			Letter: string(letter),
			Script: desc.Script,
			Path:   desc.Path,
			Bound:  bound,
			Exists: desc.Exists,
			At:     at,
		})
	}
}

func (d *Daemon) applySnapshot(snapshot *config.Snapshot) {
	logWarnings(snapshot)
	d.recognizer.SetWindow(snapshot.WaitTimeout())
	if snapshot.DebugMode {
		log.Printf("[CONFIG] %d shortcuts, timeout %v", len(snapshot.Bindings), snapshot.WaitTimeout())
	}
}

func logWarnings(snapshot *config.Snapshot) {
	for _, w := range snapshot.Warnings {
		log.Printf("[CONFIG] %s", w)
	}
}

// Snapshot returns the active configuration.
func (d *Daemon) Snapshot() *config.Snapshot {
	return d.store.Current()
}
