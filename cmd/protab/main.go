package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/protab/protab/internal/app"
	"github.com/protab/protab/internal/config"
	"github.com/protab/protab/internal/hotkeys"
	"github.com/protab/protab/internal/keycode"
	"github.com/protab/protab/internal/stats"
	"github.com/protab/protab/internal/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to the configuration file (overrides discovery)")
		showConfig  = flag.Bool("show-config", false, "Show the configuration file location and effective settings")
		showVersion = flag.Bool("version", false, "Show current version")
		showStats   = flag.Bool("stats", false, "Show shortcut usage statistics")
		resetStats  = flag.Bool("reset-stats", false, "Clear all usage statistics")
		replay      = flag.String("replay", "", "Replay a key trace file instead of hooking the keyboard ('-' for stdin)")
		feedAddr    = flag.String("feed-addr", "", "Serve the chord feed over WebSocket on this address (e.g. 127.0.0.1:7878)")
	)
	flag.Parse()

	if *showVersion {
		handleShowVersion()
		return
	}

	if *showConfig {
		handleShowConfig(*configPath)
		return
	}

	if *showStats {
		handleShowStats(*configPath)
		return
	}

	if *resetStats {
		handleResetStats()
		return
	}

	opts := app.Options{
		ConfigPath: *configPath,
		FeedAddr:   *feedAddr,
		StatsDir:   statsDir(),
	}

	if *replay != "" {
		in := os.Stdin
		if *replay != "-" {
			f, err := os.Open(*replay)
			if err != nil {
				log.Fatalf("Failed to open replay file: %v", err)
			}
			defer f.Close()
			in = f
		}
		opts.Source = &hotkeys.ReaderSource{In: in, Out: os.Stdout}
	}

	daemon := app.NewDaemon(opts)
	if err := daemon.Initialize(); err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}

	if err := daemon.Run(); err != nil {
		log.Fatalf("Daemon error: %v", err)
	}
}

func statsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".protab", "stats")
}

func handleShowVersion() {
	fmt.Printf("ProTab %s\n", version.VERSION)
}

func handleShowConfig(path string) {
	loader := config.NewLoader()
	snapshot, err := loader.Load(path)
	if err != nil {
		fmt.Printf("⚠️  %v\n", err)
		fmt.Println("📝 Using built-in defaults")
	} else {
		fmt.Printf("📁 Config file location: %s\n", snapshot.Source)
	}
	for _, w := range snapshot.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}

	fmt.Println()
	fmt.Println("📋 Effective configuration:")
	fmt.Printf("   Work directory:      %s\n", snapshot.WorkDirectory)
	fmt.Printf("   Shortcuts directory: %s\n", config.Expand(snapshot.ShortcutsDirectory, os.Getenv("HOME"), snapshot.WorkDirectory))
	fmt.Printf("   Claude config:       %s\n", snapshot.ClaudeConfigDirectory)
	fmt.Printf("   Wait timeout:        %v\n", snapshot.WaitTimeout())
	fmt.Printf("   App name:            %s\n", snapshot.AppName)
	fmt.Printf("   Debug mode:          %v\n", snapshot.DebugMode)
	fmt.Println()
	fmt.Println("⌨️  Shortcuts:")
	for _, line := range shortcutLines(snapshot) {
		fmt.Println(line)
	}
}

// shortcutLines lists each binding with the virtual keycode that triggers it.
func shortcutLines(snapshot *config.Snapshot) []string {
	var lines []string
	for _, l := range snapshot.Letters() {
		b, _ := snapshot.Binding(l)
		code, _ := keycode.Code(l)
		lines = append(lines, fmt.Sprintf("   Tab+%c  (key %2d)  %s", l, code, b.Script))
	}
	return lines
}

func handleShowStats(configPath string) {
	dir := statsDir()
	if dir == "" {
		fmt.Println("❌ Error getting stats directory: no home directory")
		os.Exit(1)
	}

	statsManager, err := stats.NewManager(dir)
	if err != nil {
		fmt.Printf("❌ Error initializing stats: %v\n", err)
		os.Exit(1)
	}

	totals, err := statsManager.Totals()
	if err != nil {
		fmt.Printf("❌ Error getting total stats: %v\n", err)
		os.Exit(1)
	}

	recentDays, err := statsManager.RecentDays(7)
	if err != nil {
		fmt.Printf("⚠️  Warning: Failed to get recent stats: %v\n", err)
	}

	// Label letters with their current scripts.
	snapshot, _ := config.NewLoader().Load(configPath)
	scripts := make(map[string]string, len(snapshot.Bindings))
	for l, b := range snapshot.Bindings {
		scripts[string(l)] = b.Script
	}

	fmt.Println(stats.FormatTotals(totals, scripts))
	fmt.Println()

	if len(recentDays) > 0 {
		fmt.Println(stats.FormatWeek(recentDays))
		fmt.Println()
	}
}

func handleResetStats() {
	dir := statsDir()
	if dir == "" {
		fmt.Println("❌ Error getting stats directory: no home directory")
		os.Exit(1)
	}

	statsManager, err := stats.NewManager(dir)
	if err != nil {
		fmt.Printf("❌ Error initializing stats: %v\n", err)
		os.Exit(1)
	}

	if err := statsManager.Clear(); err != nil {
		fmt.Printf("❌ Error clearing stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🗑️  All usage statistics have been cleared")
}
