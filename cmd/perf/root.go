package perf

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/vKV/cmd/util"
	"github.com/ValentinKolb/vKV/lib/common"
	"github.com/ValentinKolb/vKV/lib/store"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var (
	perfCmdConfig = &common.ShellConfig{}
	PerfCmd       = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for the vKV store and its rules",
		Long:    "Measures ADD and GET through the store and the configured rule engine for every key family (cpf, date, pass-through) and for rejected values.",
		Args:    cobra.NoArgs,
		PreRunE: processPerfConfig,
		RunE:    run,
	}
	perfNumThreads = 10
	perfKeySpread  = 100
	perfSkip       = make([]string, 0)
)

// percentiles reported for every benchmark
var percentiles = []float64{0.5, 0.95, 0.99}

func init() {
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add-cpf,get-date)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "keys"
	PerfCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	conf, err := util.GetShellConfig()
	if err != nil {
		return err
	}
	*perfCmdConfig = *conf

	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread < 1 {
		return fmt.Errorf("keys must be at least 1")
	}
	if perfNumThreads < 1 {
		return fmt.Errorf("threads must be at least 1")
	}

	return common.InitLoggers(perfCmdConfig.LogLevel)
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// benchmark is a single perf test
type benchmark struct {
	name   string
	family keyFamily
	get    bool // GET instead of ADD
}

var benchmarks = []benchmark{
	{name: "add-cpf", family: familyCPF},
	{name: "add-date", family: familyDate},
	{name: "add-plain", family: familyPlain},
	{name: "add-invalid", family: familyInvalid},
	{name: "get-cpf", family: familyCPF, get: true},
	{name: "get-date", family: familyDate, get: true},
	{name: "get-plain", family: familyPlain, get: true},
}

// result is the outcome of one benchmark
type result struct {
	bench       testing.BenchmarkResult
	percentiles []float64 // latencies in ns, same order as percentiles
	errors      int64
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for the vKV store")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(perfCmdConfig.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Keys:    %d\n", perfKeySpread)
	fmt.Println()

	d, err := util.NewDispatcher(perfCmdConfig)
	if err != nil {
		return err
	}
	defer util.CloseDispatcher(d)

	fmt.Println("starting tests...")

	registry := gometrics.NewRegistry()
	results := make(map[string]result)

	for _, bm := range benchmarks {
		if shouldSkip(bm.name) {
			printResult(bm.name, result{})
			continue
		}

		// every benchmark gets a fresh store so the runs do not influence each other
		kvStore := util.NewStore(perfCmdConfig, d)
		res := runBenchmark(bm, kvStore, registry)

		results[bm.name] = res
		printResult(bm.name, res)
	}

	// Export to CSV if requested
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to %s...\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runBenchmark runs bm against kvStore and records the latency of every operation in a timer
// named after bm in registry. Only the last round of testing.Benchmark is kept in the timer.
func runBenchmark(bm benchmark, kvStore store.IStore, registry gometrics.Registry) result {
	var errCount atomic.Int64
	var timer gometrics.Timer
	getKey, getValue, iter := getKeys(bm.family)

	if bm.get {
		iter(func(k, v string) {
			if err := kvStore.Add(k, v); err != nil {
				util.Logger.Errorf("(%s) - error adding key: %v", bm.name, err)
			}
		})
	}

	bench := testing.Benchmark(func(b *testing.B) {
		b.SetParallelism(perfNumThreads)

		// testing.Benchmark calls this function with growing b.N until the run is long enough
		registry.Unregister(bm.name)
		timer = gometrics.GetOrRegisterTimer(bm.name, registry)
		errCount.Store(0)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				var err error
				if bm.get {
					_, err = kvStore.Get(getKey(counter))
				} else {
					err = kvStore.Add(getKey(counter), getValue(counter))
				}
				timer.UpdateSince(start)

				if bm.family == familyInvalid {
					// these values must be rejected
					if !store.IsInvalid(err) {
						errCount.Add(1)
					}
				} else if err != nil {
					errCount.Add(1)
				}
				counter++
			}
		})
	})

	return result{
		bench:       bench,
		percentiles: timer.Percentiles(percentiles),
		errors:      errCount.Load(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// keyFamily selects the rule a benchmark exercises
type keyFamily int

const (
	familyCPF keyFamily = iota
	familyDate
	familyPlain
	familyInvalid
)

// getKeys creates perfKeySpread test keys with matching values for family and functions to work with them
func getKeys(family keyFamily) (func(int) string, func(int) string, func(func(k, v string))) {
	keys := make([]string, perfKeySpread)
	values := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		switch family {
		case familyCPF:
			keys[i] = fmt.Sprintf("cpf_perf_%d", i)
			values[i] = validCPF(i)
		case familyDate:
			keys[i] = fmt.Sprintf("data_perf_%d", i)
			values[i] = fmt.Sprintf("%04d-%02d-%02d", 1970+i%50, 1+i%12, 1+i%28)
		case familyPlain:
			keys[i] = fmt.Sprintf("name_perf_%d", i)
			values[i] = fmt.Sprintf("value-%d", i)
		case familyInvalid:
			keys[i] = fmt.Sprintf("data_invalid_%d", i)
			values[i] = fmt.Sprintf("%04d-02-30", 1970+i%50)
		}
	}

	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}
	getValue := func(i int) string {
		return values[i%perfKeySpread]
	}
	iterateKeys := func(fn func(k, v string)) {
		for i := range keys {
			fn(keys[i], values[i])
		}
	}

	return getKey, getValue, iterateKeys
}

// validCPF returns the n-th CPF with correct check digits
func validCPF(n int) string {
	digits := []byte(fmt.Sprintf("%09d", 100000000+n%900000000))
	for _, length := range []int{9, 10} {
		sum := 0
		for i := 0; i < length; i++ {
			sum += int(digits[i]-'0') * (length + 1 - i)
		}
		check := 0
		if rest := sum % 11; rest >= 2 {
			check = 11 - rest
		}
		digits = append(digits, byte('0'+check))
	}
	return string(digits)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, res result) {
	if res.bench.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(res.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p95=%s p99=%s",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(res.percentiles[0]), time.Duration(res.percentiles[1]), time.Duration(res.percentiles[2]))
	if res.errors > 0 {
		fmt.Printf("\t%d errors", res.errors)
	}
	fmt.Println()
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec",
		"P50Ns", "P95Ns", "P99Ns", "Errors",
		"RulesEngine", "RulesFile", "Threads", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, bm := range benchmarks {
		res, ok := results[bm.name]
		if !ok {
			continue
		}

		nsPerOp := math.Max(float64(res.bench.NsPerOp()), 1)
		opsPerSec := 1.0 / (nsPerOp / 1e9)

		row := []string{
			bm.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", res.percentiles[0]),
			fmt.Sprintf("%.0f", res.percentiles[1]),
			fmt.Sprintf("%.0f", res.percentiles[2]),
			strconv.FormatInt(res.errors, 10),
			string(perfCmdConfig.RulesEngine),
			perfCmdConfig.RulesFile,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", bm.name, err)
		}
	}

	return writer.Error()
}
