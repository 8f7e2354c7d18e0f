// Package main provides a performance benchmarking tool for the iqstat CLI.
// It generates synthetic IQ-TREE runs of increasing size, times the analyze and
// topology commands with and without history tracking, treating the first
// successful run as cold and averaging the rest as warm, and writes a CSV summary.
//
// Prerequisites:
// - iqstat binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where synthetic runs are generated
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset       string
	Command       string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// Dataset describes one synthetic workload.
type Dataset struct {
	Name  string
	Runs  int // Number of independent runs
	Trees int // Trees per RF distance matrix
	Lines int // Filler lines per log
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	Workers       int
	NoHistoryRuns int
	HistoryRuns   int
	Datasets      []Dataset
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       5 * time.Minute,
		Workers:       8,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Runs: 4, Trees: 10, Lines: 1_000},
			{Name: "medium", Runs: 16, Trees: 100, Lines: 20_000},
			{Name: "large", Runs: 64, Trees: 400, Lines: 200_000},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the iqstat binary exists and the work dir is writable.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("iqstat"); err != nil {
		return fmt.Errorf("iqstat binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// runBenchmarks generates every dataset and benchmarks each command on it.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-history: %d runs, history: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoHistoryRuns, config.HistoryRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Generating %s dataset (%d runs, %d trees)\n", ds.Name, ds.Runs, ds.Trees)
		prefixes, err := generateDataset(config.WorkDir, ds)
		if err != nil {
			fmt.Printf("Warning: failed to generate %s: %v\n", ds.Name, err)
			continue
		}

		result := runBenchmarkSuite(config, ds.Name, "analyze", append([]string{"analyze"}, prefixes...))
		results = append(results, result)

		result = runBenchmarkSuite(config, ds.Name, "topology", []string{"topology", prefixes[0] + ".rfdist"})
		results = append(results, result)
	}

	return results
}

// generateDataset writes the log, report and matrix of every run and returns the run prefixes.
func generateDataset(workDir string, ds Dataset) ([]string, error) {
	dir := filepath.Join(workDir, ds.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(uint64(ds.Runs), uint64(ds.Trees)))

	prefixes := make([]string, ds.Runs)
	for i := range ds.Runs {
		prefix := filepath.Join(dir, fmt.Sprintf("run%03d", i+1))
		prefixes[i] = prefix
		llh := -20000 - rng.Float64()*1000

		var log strings.Builder
		log.WriteString("Alignment has 17 sequences with 1998 columns, 1152 distinct patterns\n")
		log.WriteString("400 parsimony-informative, 599 singleton sites, 999 constant sites\n")
		log.WriteString("****  TOTAL  3.42%  0 sequences failed composition chi2 test\n")
		for j := range ds.Lines {
			fmt.Fprintf(&log, "Iteration %d / LogL: %.3f / Time: 0h:0m:%ds\n", j+1, llh-rng.Float64()*50, j%60)
		}
		fmt.Fprintf(&log, "Initial log-likelihood: %.3f\n", llh-150)
		fmt.Fprintf(&log, "Optimal log-likelihood: %.3f\n", llh-10)
		fmt.Fprintf(&log, "Optimal log-likelihood: %.3f\n", llh)
		fmt.Fprintf(&log, "Total wall-clock time used: %.3f sec\n", rng.Float64()*100)
		if err := os.WriteFile(prefix+".log", []byte(log.String()), 0o644); err != nil {
			return nil, err
		}

		report := fmt.Sprintf("MAXIMUM LIKELIHOOD TREE\nLog-likelihood of the tree: %.3f\n", llh)
		if err := os.WriteFile(prefix+".iqtree", []byte(report), 0o644); err != nil {
			return nil, err
		}

		if err := os.WriteFile(prefix+".rfdist", []byte(randomMatrix(rng, ds.Trees)), 0o644); err != nil {
			return nil, err
		}
	}
	return prefixes, nil
}

// randomMatrix renders a symmetric distance matrix in the .rfdist layout.
func randomMatrix(rng *rand.Rand, n int) string {
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			v := float64(rng.IntN(11)) / 10
			d[i][j], d[j][i] = v, v
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", n)
	for i := range n {
		fmt.Fprintf(&b, "T%d", i+1)
		for j := range n {
			fmt.Fprintf(&b, " %.1f", d[i][j])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// runBenchmarkSuite runs both no-history and history benchmarks for a command.
func runBenchmarkSuite(config BenchmarkConfig, dataset, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	runPhase := func(backend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, args, backend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No history
	_, noHistoryAvg := runPhase("none", config.NoHistoryRuns, "No-history")

	// Phase 2: SQLite history
	coldTime, warmAvg := runPhase("sqlite", config.HistoryRuns, "History")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", noHistoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:       dataset,
		Command:       command,
		NoHistoryTime: noHistoryAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes an iqstat command multiple times with the given history backend
// and returns the cold time and the warm times.
func runBenchmark(config BenchmarkConfig, args []string, backend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args = slices.Concat(args, []string{"--analysis-backend", backend, "--workers", fmt.Sprint(config.Workers), "--output", "csv", "--output-file", os.DevNull})

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("iqstat", args...)

		done := make(chan bool)
		var cmdErr error

		go func() {
			_, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/iqstat_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoHistoryTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "analyze", "Analyze:")
	printCommandSummary(results, "topology", "Topology:")
}

// printCommandSummary displays results for a specific command type.
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-history: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoHistoryTime, result.ColdTime, result.WarmTime)
		}
	}
}
