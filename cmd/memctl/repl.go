package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/rewind"
	"github.com/joshuapare/memkit/table"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newReplCmd())
}

func newReplCmd() *cobra.Command {
	var onArena bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive shell over a live registry-backed map",
		Long: `The repl command starts a registry, builds a map of uint64 keys to int64
values on it, and drops into an interactive shell. With --arena the map
lives on a rewindable arena instead of the persistent heap, and the
rewind command reclaims it wholesale.

Example:
  memctl repl
  memctl repl --arena`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(onArena)
		},
	}

	cmd.Flags().BoolVar(&onArena, "arena", false, "Back the map with a rewindable arena")

	return cmd
}

func runRepl(onArena bool) error {
	cfg, _, err := loadedConfig(Config{})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyScratchSize(cfg)
	mem.Initialize()
	defer func() {
		if err := mem.Shutdown(); err != nil {
			printError("shutdown: %v\n", err)
		}
	}()

	r := &REPL{handle: mem.Persistent}

	if onArena {
		arena, err := rewind.New(cfg.ChunkBytes)
		if err != nil {
			return fmt.Errorf("failed to create arena: %w", err)
		}
		defer arena.Dispose()

		r.arena = arena
		r.handle = arena.Handle()
	}

	m, err := table.NewMap[uint64, int64](r.handle, 0)
	if err != nil {
		return fmt.Errorf("failed to create map: %w", err)
	}
	r.m = m

	return r.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	m      *table.Map[uint64, int64]
	arena  *rewind.Allocator
	handle mem.Handle
	liner  *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".memctl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	// Load history
	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("memctl - map shell on %s\n", r.handle)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("memctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "set", "put":
			r.cmdSet(args)

		case "get":
			r.cmdGet(args)

		case "del", "delete":
			r.cmdDelete(args)

		case "keys", "ls", "list":
			r.cmdKeys(args)

		case "count", "len":
			fmt.Printf("Entries: %d (capacity %d)\n", r.m.Count(), r.m.Capacity())

		case "trim":
			r.cmdTrim()

		case "clear":
			r.m.Clear()
			fmt.Println("OK: cleared")

		case "fill":
			r.cmdFill(args)

		case "stats", "info":
			r.cmdStats()

		case "rewind":
			r.cmdRewind()

		case "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

// saveHistory persists command history to disk.
func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands.
func (r *REPL) completer(line string) []string {
	commands := []string{
		"set", "put", "get", "del", "delete",
		"keys", "ls", "list", "count", "len",
		"trim", "clear", "fill", "stats", "info",
		"rewind", "cls", "help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  set <key> <value>   Insert or overwrite an entry")
	fmt.Println("  get <key>           Retrieve an entry by key")
	fmt.Println("  del <key>           Remove an entry")
	fmt.Println("  keys [limit]        List keys (default 20)")
	fmt.Println("  count               Count entries and show capacity")
	fmt.Println("  trim                Trim slack capacity")
	fmt.Println("  clear               Remove all entries, keep capacity")
	fmt.Println("  fill <count>        Insert N sequential entries")
	fmt.Println("  stats               Show registry and arena statistics")
	if r.arena != nil {
		fmt.Println("  rewind              Rewind the arena and start a fresh map")
	}
	fmt.Println("  help                Show this help")
	fmt.Println("  exit / quit / q     Exit")
	fmt.Println()
	fmt.Println("Keys and values are decimal integers.")
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func (r *REPL) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: set <key> <value>")

		return
	}

	key, err := parseUint(args[0])
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	value, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing value: %v\n", err)

		return
	}

	if err := r.m.Set(key, value); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: set %d = %d\n", key, value)
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")

		return
	}

	key, err := parseUint(args[0])
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	value, ok := r.m.Get(key)
	if !ok {
		fmt.Println("(not found)")

		return
	}

	fmt.Printf("%d = %d\n", key, value)
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")

		return
	}

	key, err := parseUint(args[0])
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	if r.m.Remove(key) {
		fmt.Printf("OK: deleted %d\n", key)
	} else {
		fmt.Printf("OK: %d did not exist\n", key)
	}
}

func (r *REPL) cmdKeys(args []string) {
	limit := 20

	if len(args) >= 1 {
		var err error

		limit, err = strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Error parsing limit: %v\n", err)

			return
		}
	}

	if r.m.Count() == 0 {
		fmt.Println("(empty)")

		return
	}

	shown := 0
	for key, value := range r.m.All() {
		if shown == limit {
			fmt.Printf("... (showing first %d, use 'keys <limit>' for more)\n", limit)

			break
		}

		fmt.Printf("%3d. %d = %d\n", shown+1, key, value)
		shown++
	}
}

func (r *REPL) cmdTrim() {
	before := r.m.Capacity()

	if err := r.m.TrimExcess(); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: capacity %d -> %d\n", before, r.m.Capacity())
}

func (r *REPL) cmdFill(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fill <count>")

		return
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		fmt.Println("Error: count must be a positive integer")

		return
	}

	start := uint64(r.m.Count())
	for i := 0; i < count; i++ {
		k := start + uint64(i)
		if err := r.m.Set(k, int64(k)); err != nil {
			fmt.Printf("Error at entry %d: %v\n", i+1, err)

			return
		}
	}

	fmt.Printf("OK: inserted %d entries (total %d)\n", count, r.m.Count())
}

func (r *REPL) cmdStats() {
	stats := mem.GetStats()

	fmt.Printf("Registry:\n")
	fmt.Printf("  Registered allocators: %d\n", stats.Registered)
	fmt.Printf("  Heap bytes pinned: %s\n", formatBytes(stats.HeapBytes))
	fmt.Printf("  Heap allocs/frees: %d/%d\n", stats.HeapAllocs, stats.HeapFrees)
	if stats.ScratchCap > 0 {
		fmt.Printf("  Scratch used: %s of %s\n", formatBytes(stats.ScratchUsed), formatBytes(stats.ScratchCap))
	}

	if r.arena != nil {
		as := r.arena.GetStats()
		fmt.Printf("Arena:\n")
		fmt.Printf("  Chunks: %d\n", as.Chunks)
		fmt.Printf("  Reserved: %s\n", formatBytes(as.Reserved))
		fmt.Printf("  Used: %s\n", formatBytes(as.Used))
		fmt.Printf("  Rewinds: %d\n", as.Rewinds)
	}

	fmt.Printf("Map:\n")
	fmt.Printf("  Handle: %s\n", r.m.Handle())
	fmt.Printf("  Entries: %d\n", r.m.Count())
	fmt.Printf("  Capacity: %d\n", r.m.Capacity())
}

// cmdRewind reclaims every arena allocation at once. The old map lived
// there, so a fresh one is built afterward.
func (r *REPL) cmdRewind() {
	if r.arena == nil {
		fmt.Println("Error: not running on an arena (start with --arena)")

		return
	}

	dropped := r.m.Count()
	r.arena.Rewind()

	m, err := table.NewMap[uint64, int64](r.handle, 0)
	if err != nil {
		fmt.Printf("Error rebuilding map: %v\n", err)

		return
	}
	r.m = m

	fmt.Printf("OK: arena rewound, %d entries dropped\n", dropped)
}
