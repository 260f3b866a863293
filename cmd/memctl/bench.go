package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/rewind"
	"github.com/joshuapare/memkit/table"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	rootCmd.AddCommand(newBenchCmd())
}

func newBenchCmd() *cobra.Command {
	var (
		keys   int
		passes int
		report bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time table operations against the built-in Go map",
		Long: `The bench command times insert and lookup passes over a registry-backed
table and over a plain Go map of the same size, plus a frame-style
build-and-rewind loop on an arena. Each benchmark runs several passes and
the best pass is reported.

Example:
  memctl bench
  memctl bench --keys 1000000 --passes 3
  memctl bench --report`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(keys, passes, report)
		},
	}

	cmd.Flags().IntVar(&keys, "keys", 100000, "Keys per benchmark pass")
	cmd.Flags().IntVar(&passes, "passes", 5, "Passes per benchmark; the best pass is reported")
	cmd.Flags().BoolVar(&report, "report", false, "Write a markdown report to the report directory")

	return cmd
}

type benchResult struct {
	Name    string        `json:"name"`
	Ops     int           `json:"ops"`
	Elapsed time.Duration `json:"elapsed_ns"`
	NsPerOp float64       `json:"ns_per_op"`
}

type benchRun struct {
	ID      string        `json:"id"`
	Date    string        `json:"date"`
	Go      string        `json:"go"`
	Keys    int           `json:"keys"`
	Passes  int           `json:"passes"`
	Results []benchResult `json:"results"`
}

func runBench(keys, passes int, report bool) error {
	if keys <= 0 || passes <= 0 {
		return fmt.Errorf("keys and passes must be positive")
	}

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

	run := benchRun{
		ID:     uuid.New().String(),
		Date:   time.Now().UTC().Format(time.RFC3339),
		Go:     runtime.Version(),
		Keys:   keys,
		Passes: passes,
	}

	printVerbose("Run %s: %d keys, %d passes\n", run.ID, keys, passes)

	benches := []struct {
		name string
		fn   func(keys int) error
	}{
		{"table/insert", benchTableInsert},
		{"stdmap/insert", benchStdMapInsert},
		{"table/lookup", benchTableLookup},
		{"stdmap/lookup", benchStdMapLookup},
	}

	for _, b := range benches {
		res, err := timePasses(b.name, keys, passes, b.fn)
		if err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		run.Results = append(run.Results, res)
	}

	frameRes, err := benchArenaFrames(cfg, keys, passes)
	if err != nil {
		return fmt.Errorf("table/arena-frame: %w", err)
	}
	run.Results = append(run.Results, frameRes)

	if jsonOut {
		if err := printJSON(run); err != nil {
			return err
		}
	} else {
		printResults(run)
	}

	if report {
		path, err := writeReport(cfg, run)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		printInfo("Report written to %s\n", path)
	}

	return nil
}

// timePasses runs fn the requested number of times and keeps the fastest
// pass. One op is one key.
func timePasses(name string, keys, passes int, fn func(keys int) error) (benchResult, error) {
	best := time.Duration(0)

	for p := 0; p < passes; p++ {
		start := time.Now()
		if err := fn(keys); err != nil {
			return benchResult{}, err
		}
		elapsed := time.Since(start)

		if best == 0 || elapsed < best {
			best = elapsed
		}
	}

	return benchResult{
		Name:    name,
		Ops:     keys,
		Elapsed: best,
		NsPerOp: float64(best.Nanoseconds()) / float64(keys),
	}, nil
}

func benchTableInsert(keys int) error {
	m, err := table.NewMap[uint64, uint64](mem.Persistent, keys)
	if err != nil {
		return err
	}
	defer m.Dispose()

	for i := 0; i < keys; i++ {
		k := uint64(i)
		if err := m.Set(k, k*3); err != nil {
			return err
		}
	}
	return nil
}

func benchStdMapInsert(keys int) error {
	m := make(map[uint64]uint64, keys)
	for i := 0; i < keys; i++ {
		k := uint64(i)
		m[k] = k * 3
	}
	if len(m) != keys {
		return fmt.Errorf("map lost entries: %d of %d", len(m), keys)
	}
	return nil
}

func benchTableLookup(keys int) error {
	m, err := table.NewMap[uint64, uint64](mem.Persistent, keys)
	if err != nil {
		return err
	}
	defer m.Dispose()

	for i := 0; i < keys; i++ {
		k := uint64(i)
		if err := m.Set(k, k*3); err != nil {
			return err
		}
	}

	// The sink keeps lookups from being optimized away.
	var sink uint64
	for i := 0; i < keys; i++ {
		v, ok := m.Get(uint64(i))
		if !ok {
			return fmt.Errorf("missing key %d", i)
		}
		sink ^= v
	}
	if sink == 1 {
		printVerbose("sink: %d\n", sink)
	}
	return nil
}

func benchStdMapLookup(keys int) error {
	m := make(map[uint64]uint64, keys)
	for i := 0; i < keys; i++ {
		k := uint64(i)
		m[k] = k * 3
	}

	var sink uint64
	for i := 0; i < keys; i++ {
		v, ok := m[uint64(i)]
		if !ok {
			return fmt.Errorf("missing key %d", i)
		}
		sink ^= v
	}
	if sink == 1 {
		printVerbose("sink: %d\n", sink)
	}
	return nil
}

// benchArenaFrames measures one build-and-rewind frame: construct a table
// on the arena, fill it, drop it without disposing, rewind. The arena
// reuses its chunks so steady-state frames allocate nothing new.
func benchArenaFrames(cfg Config, keys, passes int) (benchResult, error) {
	arena, err := rewind.New(cfg.ChunkBytes)
	if err != nil {
		return benchResult{}, err
	}
	defer arena.Dispose()

	frame := func(keys int) error {
		m, err := table.NewMap[uint64, uint64](arena.Handle(), keys)
		if err != nil {
			return err
		}
		for i := 0; i < keys; i++ {
			k := uint64(i)
			if err := m.Set(k, k); err != nil {
				return err
			}
		}
		arena.Rewind()
		return nil
	}

	// Warm up so chunk mapping stays out of the timed passes.
	if err := frame(keys); err != nil {
		return benchResult{}, err
	}

	return timePasses("table/arena-frame", keys, passes, frame)
}

func printResults(run benchRun) {
	p := message.NewPrinter(language.English)

	printInfo("\nBenchmark results (%s, best of %d passes):\n", run.Go, run.Passes)
	for _, r := range run.Results {
		printInfo("  %-20s %14s ops %12.1f ns/op %12s\n",
			r.Name, p.Sprintf("%d", r.Ops), r.NsPerOp, r.Elapsed.Round(time.Microsecond))
	}
}

func writeReport(cfg Config, run benchRun) (string, error) {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "# memctl bench %s\n\n", run.ID)
	fmt.Fprintf(&b, "- date: %s\n", run.Date)
	fmt.Fprintf(&b, "- go: %s\n", run.Go)
	fmt.Fprintf(&b, "- keys: %s\n", p.Sprintf("%d", run.Keys))
	fmt.Fprintf(&b, "- passes: %d\n\n", run.Passes)
	b.WriteString("| benchmark | ops | ns/op | elapsed |\n")
	b.WriteString("|-----------|----:|------:|--------:|\n")
	for _, r := range run.Results {
		fmt.Fprintf(&b, "| %s | %s | %.1f | %s |\n",
			r.Name, p.Sprintf("%d", r.Ops), r.NsPerOp, r.Elapsed.Round(time.Microsecond))
	}

	path := filepath.Join(cfg.ReportDir, fmt.Sprintf("bench-%s.md", run.ID))
	if err := atomic.WriteFile(path, strings.NewReader(b.String())); err != nil {
		return "", err
	}
	return path, nil
}
