package perf

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/vKV/cmd/util"
	"github.com/ValentinKolb/vKV/lib/common"
	"github.com/ValentinKolb/vKV/lib/rules/native"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCPF(t *testing.T) {
	rule, ok := native.Lookup("cpf")
	require.True(t, ok)

	for _, n := range []int{0, 1, 42, 12345, 500000000} {
		cpf := validCPF(n)
		assert.Len(t, cpf, 11)
		assert.NoError(t, rule.Validate(cpf), cpf)
	}
}

func TestGetKeys(t *testing.T) {
	perfKeySpread = 3
	t.Cleanup(func() { perfKeySpread = 100 })

	date, ok := native.Lookup("date")
	require.True(t, ok)

	getKey, getValue, iter := getKeys(familyDate)
	assert.Equal(t, "data_perf_0", getKey(0))
	assert.Equal(t, getKey(1), getKey(4))
	assert.NoError(t, date.Validate(getValue(2)))

	count := 0
	iter(func(k, v string) { count++ })
	assert.Equal(t, 3, count)

	_, getInvalid, _ := getKeys(familyInvalid)
	assert.Error(t, date.Validate(getInvalid(0)))
}

func TestShouldSkip(t *testing.T) {
	perfSkip = []string{"add-cpf", " get-date"}
	t.Cleanup(func() { perfSkip = nil })

	assert.True(t, shouldSkip("add-cpf"))
	assert.True(t, shouldSkip("get-date"))
	assert.False(t, shouldSkip("add-date"))
}

func TestWriteResultsToCSV(t *testing.T) {
	*perfCmdConfig = common.ShellConfig{RulesEngine: common.RulesEngineNative, LogLevel: "warn"}
	path := filepath.Join(t.TempDir(), "results.csv")

	results := map[string]result{
		"add-cpf": {percentiles: []float64{100, 200, 300}},
	}
	require.NoError(t, writeResultsToCSV(path, results))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Test", rows[0][0])
	assert.Equal(t, "add-cpf", rows[1][0])
	assert.Equal(t, "300", rows[1][6])
	assert.Equal(t, "native", rows[1][8])
}

func TestRunBenchmarkKeepsLastRound(t *testing.T) {
	perfKeySpread = 5
	perfNumThreads = 1
	t.Cleanup(func() { perfKeySpread, perfNumThreads = 100, 10 })

	d, err := native.New("")
	require.NoError(t, err)
	conf := &common.ShellConfig{RulesEngine: common.RulesEngineNative}
	registry := gometrics.NewRegistry()

	bm := benchmark{name: "add-plain", family: familyPlain}
	res := runBenchmark(bm, util.NewStore(conf, d), registry)

	timer, ok := registry.Get(bm.name).(gometrics.Timer)
	require.True(t, ok)
	require.Greater(t, res.bench.N, 1)
	// every round registers a fresh timer, so it only counts the final b.N operations
	assert.Equal(t, int64(res.bench.N), timer.Count())
	assert.Zero(t, res.errors)
	assert.Len(t, res.percentiles, len(percentiles))
}

func TestRunBenchmarkRejectedValuesAreNoErrors(t *testing.T) {
	perfKeySpread = 5
	perfNumThreads = 1
	t.Cleanup(func() { perfKeySpread, perfNumThreads = 100, 10 })

	d, err := native.New("")
	require.NoError(t, err)
	conf := &common.ShellConfig{RulesEngine: common.RulesEngineNative}

	res := runBenchmark(benchmark{name: "add-invalid", family: familyInvalid}, util.NewStore(conf, d), gometrics.NewRegistry())
	assert.Zero(t, res.errors)
}
