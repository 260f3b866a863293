package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Size        string
	Impl        string // "memkit" or "stdlib"
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult represents a comparison between memkit and the
// standard library.
type ComparisonResult struct {
	Operation    string
	Size         string
	MemkitNs     float64
	StdlibNs     float64
	Speedup      float64
	MemkitMem    int64
	StdlibMem    int64
	MemkitAllocs int64
	StdlibAllocs int64
	MemkitOnly   bool
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	// Read benchmark output
	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	// Parse benchmarks
	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	// Generate comparisons
	comparisons := generateComparisons(results)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated %d comparisons\n", len(comparisons))
	}

	// Generate markdown report
	report := generateMarkdownReport(comparisons)

	// Write output
	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	// Close input file if opened
	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkInsert/memkit/small-8    10000    12450 ns/op    4096 B/op    8 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+(?:B|MB)/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		// Parse benchmark line
		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64

		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		// Parse name to extract operation, impl, and size
		// Format: Benchmark<Operation>/<impl>/<size>-<procs>
		parts := strings.Split(name, "/")
		if len(parts) < 2 {
			// Benchmarks without an implementation split have no stdlib
			// counterpart, e.g. BenchmarkRewindConverge-8
			operation, size := parseUnsplitBenchmark(name)
			if operation != "" {
				results = append(results, BenchmarkResult{
					Name:        name,
					Operation:   operation,
					Size:        size,
					Impl:        "memkit",
					Iterations:  iterations,
					NsPerOp:     nsPerOp,
					BytesPerOp:  bytesPerOp,
					AllocsPerOp: allocsPerOp,
				})
			}
			continue
		}

		// Extract operation from first part
		operation := strings.TrimPrefix(parts[0], "Benchmark")

		// Extract implementation (memkit or stdlib)
		impl := parts[1]

		// Extract size from last part (remove -N suffix)
		size := ""
		if len(parts) >= 3 {
			lastPart := parts[len(parts)-1]
			dashIdx := strings.LastIndex(lastPart, "-")
			if dashIdx > 0 {
				size = lastPart[:dashIdx]
			} else {
				size = lastPart
			}
		}

		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			Size:        size,
			Impl:        impl,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

func parseUnsplitBenchmark(name string) (string, string) {
	// Handle benchmarks like: BenchmarkRewindConverge-8

	base := strings.TrimPrefix(name, "Benchmark")
	dashIdx := strings.LastIndex(base, "-")
	if dashIdx > 0 {
		base = base[:dashIdx]
	}
	if base == "" {
		return "", ""
	}

	// Split a trailing variant off the operation name if present
	if idx := strings.Index(base, "_"); idx > 0 {
		return base[:idx], base[idx+1:]
	}
	return base, ""
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	// Group results by operation and size
	type key struct {
		operation string
		size      string
	}

	grouped := make(map[key]map[string]BenchmarkResult)

	for _, result := range results {
		k := key{result.Operation, result.Size}
		if grouped[k] == nil {
			grouped[k] = make(map[string]BenchmarkResult)
		}
		grouped[k][result.Impl] = result
	}

	// Generate comparisons
	var comparisons []ComparisonResult

	for k, impls := range grouped {
		memkit, hasMemkit := impls["memkit"]
		stdlib, hasStdlib := impls["stdlib"]

		if hasMemkit && hasStdlib {
			// Both implementations exist - compare them
			speedup := stdlib.NsPerOp / memkit.NsPerOp

			comparisons = append(comparisons, ComparisonResult{
				Operation:    k.operation,
				Size:         k.size,
				MemkitNs:     memkit.NsPerOp,
				StdlibNs:     stdlib.NsPerOp,
				Speedup:      speedup,
				MemkitMem:    memkit.BytesPerOp,
				StdlibMem:    stdlib.BytesPerOp,
				MemkitAllocs: memkit.AllocsPerOp,
				StdlibAllocs: stdlib.AllocsPerOp,
				MemkitOnly:   false,
			})
		} else if hasMemkit {
			// Only a memkit implementation
			comparisons = append(comparisons, ComparisonResult{
				Operation:    k.operation,
				Size:         k.size,
				MemkitNs:     memkit.NsPerOp,
				MemkitMem:    memkit.BytesPerOp,
				MemkitAllocs: memkit.AllocsPerOp,
				MemkitOnly:   true,
			})
		}
	}

	// Sort by operation then size
	sort.Slice(comparisons, func(i, j int) bool {
		if comparisons[i].Operation != comparisons[j].Operation {
			return comparisons[i].Operation < comparisons[j].Operation
		}
		return comparisons[i].Size < comparisons[j].Size
	})

	return comparisons
}

func generateMarkdownReport(comparisons []ComparisonResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// Summary statistics
	memkitFaster := 0
	stdlibFaster := 0
	memkitOnly := 0
	totalSpeedup := 0.0

	for _, comp := range comparisons {
		if comp.MemkitOnly {
			memkitOnly++
		} else {
			if comp.Speedup > 1.0 {
				memkitFaster++
			} else if comp.Speedup < 1.0 {
				stdlibFaster++
			}
			totalSpeedup += comp.Speedup
		}
	}

	comparableCount := len(comparisons) - memkitOnly
	avgSpeedup := 0.0
	if comparableCount > 0 {
		avgSpeedup = totalSpeedup / float64(comparableCount)
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total benchmarks**: %d\n", len(comparisons)))
	sb.WriteString(fmt.Sprintf("- **Comparable** (both implementations): %d\n", comparableCount))
	if comparableCount > 0 {
		sb.WriteString(
			fmt.Sprintf(
				"  - memkit faster: %d (%.1f%%)\n",
				memkitFaster,
				float64(memkitFaster)/float64(comparableCount)*100,
			),
		)
		sb.WriteString(
			fmt.Sprintf(
				"  - stdlib faster: %d (%.1f%%)\n",
				stdlibFaster,
				float64(stdlibFaster)/float64(comparableCount)*100,
			),
		)
		sb.WriteString(fmt.Sprintf("  - Average speedup: **%.2fx**\n", avgSpeedup))
	}
	sb.WriteString(fmt.Sprintf("- **memkit-only benchmarks**: %d\n", memkitOnly))
	sb.WriteString("\n")

	// Detailed results table
	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString(
		"| Operation | Size | memkit (ns/op) | stdlib (ns/op) | Speedup | Memory (B/op) | Allocs |\n",
	)
	sb.WriteString(
		"|-----------|------|----------------|----------------|---------|---------------|--------|\n",
	)

	for _, comp := range comparisons {
		if comp.MemkitOnly {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | *N/A* | *memkit only* | %s | %s |\n",
				comp.Operation,
				comp.Size,
				formatNumber(comp.MemkitNs),
				formatBytes(comp.MemkitMem),
				formatNumber(float64(comp.MemkitAllocs)),
			))
		} else {
			// Comparison benchmark
			indicator := "✓"
			speedupStyle := "**"
			if comp.Speedup < 1.0 {
				indicator = "✗"
				speedupStyle = ""
			}

			memIndicator := ""
			if comp.MemkitMem < comp.StdlibMem {
				memIndicator = " ✓"
			} else if comp.MemkitMem > comp.StdlibMem {
				memIndicator = " ✗"
			}

			allocIndicator := ""
			if comp.MemkitAllocs < comp.StdlibAllocs {
				allocIndicator = " ✓"
			} else if comp.MemkitAllocs > comp.StdlibAllocs {
				allocIndicator = " ✗"
			}

			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s%.2fx%s %s | %s vs %s%s | %s vs %s%s |\n",
				comp.Operation,
				comp.Size,
				formatNumber(comp.MemkitNs),
				formatNumber(comp.StdlibNs),
				speedupStyle,
				comp.Speedup,
				speedupStyle,
				indicator,
				formatBytes(comp.MemkitMem),
				formatBytes(comp.StdlibMem),
				memIndicator,
				formatNumber(float64(comp.MemkitAllocs)),
				formatNumber(float64(comp.StdlibAllocs)),
				allocIndicator,
			))
		}
	}

	sb.WriteString("\n")

	// Category summaries
	sb.WriteString("## Performance by Category\n\n")

	categories := categorizeOperations(comparisons)
	for _, category := range categoryOrder {
		comps := categories[category]
		if len(comps) == 0 {
			continue
		}

		avgSpeed := 0.0
		count := 0
		for _, comp := range comps {
			if !comp.MemkitOnly {
				avgSpeed += comp.Speedup
				count++
			}
		}

		if count > 0 {
			avgSpeed /= float64(count)
			status := "✓"
			if avgSpeed < 1.0 {
				status = "✗"
			}
			sb.WriteString(fmt.Sprintf("- %s **%s**: %.2fx average speedup %s\n",
				status, category, avgSpeed, status))
		} else {
			sb.WriteString(fmt.Sprintf("- **%s**: memkit-only benchmarks\n", category))
		}
	}

	sb.WriteString("\n")

	// Notes
	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Speedup > 1.0**: memkit is faster ✓\n")
	sb.WriteString("- **Speedup < 1.0**: stdlib is faster ✗\n")
	sb.WriteString("- **Memory comparison**: Lower is better\n")
	sb.WriteString("- **Allocations**: Fewer is better\n")
	sb.WriteString("- **memkit-only**: No standard-library counterpart\n")

	return sb.String()
}

var categoryOrder = []string{
	"Build",
	"Lookup",
	"Removal",
	"Iteration",
	"Concurrency",
	"Arena",
	"memkit Features",
}

func categorizeOperations(comparisons []ComparisonResult) map[string][]ComparisonResult {
	categories := make(map[string][]ComparisonResult, len(categoryOrder))
	for _, category := range categoryOrder {
		categories[category] = []ComparisonResult{}
	}

	for _, comp := range comparisons {
		op := strings.ToLower(comp.Operation)

		switch {
		case comp.MemkitOnly:
			categories["memkit Features"] = append(categories["memkit Features"], comp)
		case strings.Contains(op, "parallel"):
			categories["Concurrency"] = append(categories["Concurrency"], comp)
		case strings.Contains(op, "frame") || strings.Contains(op, "rewind") ||
			strings.Contains(op, "arena"):
			categories["Arena"] = append(categories["Arena"], comp)
		case strings.Contains(op, "insert") || strings.Contains(op, "add") ||
			strings.Contains(op, "set"):
			categories["Build"] = append(categories["Build"], comp)
		case strings.Contains(op, "remove") || strings.Contains(op, "delete") ||
			strings.Contains(op, "clear"):
			categories["Removal"] = append(categories["Removal"], comp)
		case strings.Contains(op, "iterate") || strings.Contains(op, "walk") ||
			strings.Contains(op, "range"):
			categories["Iteration"] = append(categories["Iteration"], comp)
		default:
			categories["Lookup"] = append(categories["Lookup"], comp)
		}
	}

	return categories
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
