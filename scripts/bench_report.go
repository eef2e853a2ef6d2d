// Command bench_report turns `go test -bench` output from the slab package
// into a markdown report, pairing the pool benchmarks with their runtime-heap
// baselines where both were run.
//
// Usage:
//
//	go test -bench . -benchmem ./slab | go run scripts/bench_report.go
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
	Group       string // "AllocFree", "GoHeap", "Churn", "Classify"
	Case        string // "Small", "Large", "Oversized", "Mixed"
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult pairs a pool benchmark with its runtime-heap baseline.
type ComparisonResult struct {
	Case     string
	SlabNs   float64
	HeapNs   float64
	Relative float64 // heap ns / slab ns
	SlabMem  int64
	HeapMem  int64
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

	// Pair pool runs with their heap baselines
	comparisons := generateComparisons(results)

	// Generate markdown report
	report := generateMarkdownReport(results, comparisons)

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
	// Benchmark_AllocFree_Small-8    10000    123.4 ns/op    64 B/op    1 allocs/op
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

		group, benchCase := parseBenchmarkName(name)

		results = append(results, BenchmarkResult{
			Name:        name,
			Group:       group,
			Case:        benchCase,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// parseBenchmarkName splits Benchmark_<Group>_<Case>-<procs> into its parts.
// The case segment and the -procs suffix are both optional.
func parseBenchmarkName(name string) (string, string) {
	trimmed := strings.TrimPrefix(name, "Benchmark_")
	trimmed = strings.TrimPrefix(trimmed, "Benchmark")

	// Remove the GOMAXPROCS suffix
	if dashIdx := strings.LastIndex(trimmed, "-"); dashIdx > 0 {
		trimmed = trimmed[:dashIdx]
	}

	parts := strings.SplitN(trimmed, "_", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	// Group results by case
	slabRuns := make(map[string]BenchmarkResult)
	heapRuns := make(map[string]BenchmarkResult)

	for _, result := range results {
		switch result.Group {
		case "AllocFree":
			slabRuns[result.Case] = result
		case "GoHeap":
			heapRuns[result.Case] = result
		}
	}

	var comparisons []ComparisonResult
	for benchCase, slab := range slabRuns {
		heap, ok := heapRuns[benchCase]
		if !ok {
			continue
		}
		comparisons = append(comparisons, ComparisonResult{
			Case:     benchCase,
			SlabNs:   slab.NsPerOp,
			HeapNs:   heap.NsPerOp,
			Relative: heap.NsPerOp / slab.NsPerOp,
			SlabMem:  slab.BytesPerOp,
			HeapMem:  heap.BytesPerOp,
		})
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Case < comparisons[j].Case
	})

	return comparisons
}

func generateMarkdownReport(results []BenchmarkResult, comparisons []ComparisonResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Slab Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// All results
	sb.WriteString("## Results\n\n")
	sb.WriteString("| Benchmark | ns/op | ops/s | B/op | allocs/op |\n")
	sb.WriteString("|-----------|-------|-------|------|-----------|\n")

	for _, result := range results {
		opsPerSec := 0.0
		if result.NsPerOp > 0 {
			opsPerSec = 1e9 / result.NsPerOp
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d |\n",
			result.Name,
			formatNumber(result.NsPerOp),
			formatNumber(opsPerSec),
			formatBytes(result.BytesPerOp),
			result.AllocsPerOp,
		))
	}
	sb.WriteString("\n")

	// Pool path against the runtime heap
	if len(comparisons) > 0 {
		sb.WriteString("## Pool vs Runtime Heap\n\n")
		sb.WriteString("| Case | pool alloc+free (ns) | heap alloc (ns) | heap/pool | pool B/op | heap B/op |\n")
		sb.WriteString("|------|----------------------|-----------------|-----------|-----------|----------|\n")

		for _, comp := range comparisons {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2fx | %s | %s |\n",
				comp.Case,
				formatNumber(comp.SlabNs),
				formatNumber(comp.HeapNs),
				comp.Relative,
				formatBytes(comp.SlabMem),
				formatBytes(comp.HeapMem),
			))
		}
		sb.WriteString("\n")
	}

	// Notes
	sb.WriteString("## Notes\n\n")
	sb.WriteString("- Pool rows time a full allocate+free pair; heap rows time the\n")
	sb.WriteString("  allocation alone and leave the free to the garbage collector\n")
	sb.WriteString("- **B/op** for pool rows counts Go-heap bytes, not slab bytes, so a\n")
	sb.WriteString("  steady-state pool run should report 0\n")

	return sb.String()
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
