package kv

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/bKV/cmd/util"
	"github.com/ValentinKolb/bKV/lib/common"
	"github.com/ValentinKolb/bKV/lib/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for bKV stores",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyTag           = "perftest"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,scan)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for bKV stores")

	// Print configuration
	config := util.GetStoreConfig()
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	keys := perfKeys()
	results := make(map[string]testing.BenchmarkResult)

	// one write session per value
	results["set"] = runBenchmark("set", keys, func(i int) error {
		return writeOne(keys[i%len(keys)], []byte("test"))
	})

	// one write session per value, with a large value
	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	results["set-large"] = runBenchmark("set-large", keys, func(i int) error {
		return writeOne(keys[i%len(keys)], largeValue)
	})

	// one write session for all keys
	results["set-batch"] = runBenchmark("set-batch", keys, func(int) error {
		entries := make(map[storage.Key][]byte, len(keys))
		for _, k := range keys {
			entries[k] = []byte("test")
		}
		return writeAll(entries)
	})

	// a full scan over all keys
	results["scan"] = runBenchmark("scan", keys, func(int) error {
		reader, err := store.BeginRead()
		if err != nil {
			return err
		}
		defer reader.Close()
		for entry, err := range reader.Entries() {
			if err != nil {
				return err
			}
			entry.Release()
		}
		return nil
	})

	// one delete session per key
	results["delete"] = runBenchmark("delete", keys, func(i int) error {
		deleter, err := store.BeginDelete()
		if err != nil {
			return err
		}
		if err := deleter.Remove(keys[i%len(keys)]); err != nil {
			_ = deleter.Close()
			return err
		}
		return deleter.Close()
	})

	// set, scan and delete in turns
	results["mixed"] = runBenchmark("mixed", keys, func(i int) error {
		key := keys[i%len(keys)]
		switch i % 3 {
		case 0:
			return writeOne(key, []byte("test"))
		case 1:
			reader, err := store.BeginRead()
			if err != nil {
				return err
			}
			defer reader.Close()
			_, err = reader.TryReadNext(make([]byte, 64))
			return err
		default:
			deleter, err := store.BeginDelete()
			if err != nil {
				return err
			}
			if err := deleter.Remove(key); err != nil {
				_ = deleter.Close()
				return err
			}
			return deleter.Close()
		}
	})

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runBenchmark runs op in parallel and prints the result. The keys are filled
// before the benchmark and removed after it.
func runBenchmark(test string, keys []storage.Key, op func(i int) error) testing.BenchmarkResult {
	result := testing.Benchmark(func(b *testing.B) {
		if shouldSkip(test) {
			return
		}

		entries := make(map[storage.Key][]byte, len(keys))
		for _, k := range keys {
			entries[k] = []byte("test")
		}
		if err := writeAll(entries); err != nil {
			Logger.Errorf("(%s) - error preparing keys: %v", test, err)
			return
		}

		// cleanup
		b.Cleanup(func() {
			if err := deleteAll(keys); err != nil {
				Logger.Errorf("(%s) - error deleting keys: %v", test, err)
			}
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if err := op(counter); err != nil {
					Logger.Errorf("(%s) - error performing operation: %v", test, err)
				}
				counter++
			}
		})
	})

	printResult(test, result)
	return result
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// perfKeys creates the test keys
func perfKeys() []storage.Key {
	keys := make([]storage.Key, perfKeySpread)
	for i := range keys {
		keys[i] = storage.MustKey(perfKeyTag, uint64(i))
	}
	return keys
}

// writeOne writes a single value in its own session
func writeOne(key storage.Key, value []byte) error {
	return writeAll(map[storage.Key][]byte{key: value})
}

// deleteAll removes all keys in one session
func deleteAll(keys []storage.Key) error {
	deleter, err := store.BeginDelete()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := deleter.Remove(key); err != nil {
			_ = deleter.Close()
			return err
		}
	}
	return deleter.Close()
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config common.StoreConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Engine", "Path", "ReadBufferSize",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Engine,
			config.Path,
			strconv.Itoa(config.ReadBufferSize),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
