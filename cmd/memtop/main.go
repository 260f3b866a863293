package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joshuapare/memkit/cmd/memtop/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Parse flags first (before positional args)
	args := os.Args[1:]
	debugMode := false

	// Extract --debug/-d flag
	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			debugMode = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	// Initialize logger (must be before any logging calls)
	if err := logger.Init(logger.Options{
		Enabled: debugMode,
		Level:   slog.LevelDebug,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) > 0 {
		switch filteredArgs[0] {
		case "--help", "-h":
			printHelp()
			os.Exit(0)
		case "--version", "-v":
			fmt.Printf("memtop %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built: %s\n", date)
			os.Exit(0)
		}
	}

	// Optional positional arg: refresh interval
	interval := 500 * time.Millisecond
	if len(filteredArgs) > 0 {
		d, err := time.ParseDuration(filteredArgs[0])
		if err != nil || d <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid refresh interval: %s\n", filteredArgs[0])
			printUsage()
			os.Exit(1)
		}
		interval = d
	}

	logger.Info("starting memtop", "interval", interval, "debug", debugMode)

	// Create the TUI model; this starts the registry and the workload
	m, err := NewModel(interval)
	if err != nil {
		logger.Error("startup failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create the Bubbletea program
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	// Run the program
	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		m.Close()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	// Clean up resources
	if model, ok := finalModel.(Model); ok {
		if err := model.Close(); err != nil {
			// Log error but don't fail - cleanup is best effort
			logger.Warn("error closing resources", "error", err)
		}
	}

	logger.Info("memtop exited normally")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: memtop [options] [interval]\n")
	fmt.Fprintf(os.Stderr, "Try 'memtop --help' for more information.\n")
}

func printHelp() {
	fmt.Println("memtop - Live monitor for the memkit allocator registry")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  memtop [options] [interval]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Starts an allocator registry with a synthetic workload and displays")
	fmt.Println("  live statistics in a terminal UI.")
	fmt.Println()
	fmt.Println("  The workload keeps a long-lived map on the persistent heap and runs")
	fmt.Println("  a build-and-rewind frame loop on an arena, so every built-in")
	fmt.Println("  allocator has something to show.")
	fmt.Println()
	fmt.Println("  Panels:")
	fmt.Println("    - Allocators: heap, scratch, and arena usage with gauges")
	fmt.Println("    - Workload: frame counter, retained map, arena chunk state")
	fmt.Println()
	fmt.Println("  Keys:")
	fmt.Println("    Tab         Switch panes")
	fmt.Println("    p           Pause/resume the workload")
	fmt.Println("    t           Trim arena chunks (double rewind)")
	fmt.Println("    r           Refresh immediately")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.memtop/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  memtop")
	fmt.Println("  memtop 250ms")
	fmt.Println("  memtop --debug 1s")
	fmt.Println()
	fmt.Println("For scripted operations, use the 'memctl' command instead.")
}
