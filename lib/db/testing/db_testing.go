package testing

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/vKV/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("StaleWrite", func(t *testing.T) {
			testStaleWrite(t, factory())
		})

		t.Run("WriteIdx", func(t *testing.T) {
			testWriteIdx(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("CollisionHandling", func(t *testing.T) {
			testCollisionHandling(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Set(testKey, testValue1, 1)

	result, exists := database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2, 2)

	result, exists = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists = database.Get("nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _ := database.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	input := []byte("input-value")
	database.Set("copy-key", input, 3)
	input[0] = 'X'

	stored, _ := database.Get("copy-key")
	if !bytes.Equal(stored, []byte("input-value")) {
		t.Errorf("Set should store a copy of the value, got %s", stored)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureHas)

	testKey := "has-key"

	if database.Has(testKey) {
		t.Errorf("Key %s should not exist before Set", testKey)
	}

	database.Set(testKey, []byte("value"), 1)

	if !database.Has(testKey) {
		t.Errorf("Key %s should exist after Set", testKey)
	}

	if database.Has("other-key") {
		t.Errorf("Key other-key should not exist")
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureKeys)

	if keys := database.Keys(); len(keys) != 0 {
		t.Errorf("Expected no keys in an empty database, got %v", keys)
	}

	expected := []string{"a", "b", "c"}
	for i, k := range expected {
		database.Set(k, []byte("v"), uint64(i+1))
	}
	// setting a key twice must not duplicate it
	database.Set("b", []byte("v2"), 10)

	keys := database.Keys()
	sort.Strings(keys)

	if len(keys) != len(expected) {
		t.Fatalf("Expected %d keys, got %d (%v)", len(expected), len(keys), keys)
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("Expected key %s at position %d, got %s", expected[i], i, keys[i])
		}
	}
}

func testStaleWrite(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	database.Set("stale-key", []byte("new"), 10)
	database.Set("stale-key", []byte("old"), 5)

	result, _ := database.Get("stale-key")
	if !bytes.Equal(result, []byte("new")) {
		t.Errorf("Write with lower index should be ignored, got %s", result)
	}

	database.Set("stale-key", []byte("same"), 10)

	result, _ = database.Get("stale-key")
	if !bytes.Equal(result, []byte("same")) {
		t.Errorf("Write with equal index should be applied, got %s", result)
	}
}

func testWriteIdx(t *testing.T, database db.KVDB) {
	defer database.Close()

	if database.WriteIdx() != 0 {
		t.Errorf("Expected write index 0 for a new database, got %d", database.WriteIdx())
	}

	database.SetWriteIdx(5)
	if database.WriteIdx() != 5 {
		t.Errorf("Expected write index 5, got %d", database.WriteIdx())
	}

	database.SetWriteIdx(3)
	if database.WriteIdx() != 5 {
		t.Errorf("Write index must not decrease, got %d", database.WriteIdx())
	}

	if database.SupportsFeature(db.FeatureSet) {
		database.Set("idx-key", []byte("v"), 42)
		if database.WriteIdx() != 42 {
			t.Errorf("Set should advance the write index to 42, got %d", database.WriteIdx())
		}
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)

	database.Set("info-key", []byte("info-value"), 1)

	info := database.GetInfo()
	if info.DbType == "" {
		t.Errorf("Expected a database type in GetInfo")
	}
	if info.SizeBytes <= 0 {
		t.Errorf("Expected a positive size after Set, got %d", info.SizeBytes)
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Feature %s reported in GetInfo but not supported", f)
		}
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	emptyValueKey := "empty-value-key"
	var emptyValue []byte

	database.Set(emptyValueKey, emptyValue, 0)

	result, exists := database.Get(emptyValueKey)
	if !exists {
		t.Errorf("Key for empty value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Empty value resulted in non-empty value: %v", result)
	}

	unicodeKey := "data_joão"
	unicodeValue := []byte("23/01/2000 ✓")

	database.Set(unicodeKey, unicodeValue, 0)

	result, exists = database.Get(unicodeKey)
	if !exists {
		t.Errorf("Unicode key not found after Set")
	} else if !bytes.Equal(result, unicodeValue) {
		t.Errorf("Value mismatch for unicode key")
	}

	if !t.Failed() {

		largeKey := string(make([]byte, 1000))
		largeKeyValue := []byte("value for large key")

		database.Set(largeKey, largeKeyValue, 0)

		result, exists = database.Get(largeKey)
		if !exists {
			t.Errorf("Large key not found after Set")
		} else if !bytes.Equal(result, largeKeyValue) {
			t.Errorf("Value mismatch for large key")
		}

		largeValueKey := "large-value-key"
		largeValue := make([]byte, 1024*1024)

		for i := range largeValue {
			largeValue[i] = byte(i % 256)
		}

		database.Set(largeValueKey, largeValue, 0)

		result, exists = database.Get(largeValueKey)
		if !exists {
			t.Errorf("Key for large value not found after Set")
		} else if !bytes.Equal(result, largeValue) {
			t.Errorf("Large value mismatch: size %d, expected %d", len(result), len(largeValue))
		}
	}
}

func testCollisionHandling(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	prefix := "collision-test-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		value := []byte(fmt.Sprintf("value-%d", i))

		database.Set(key, value, uint64(i))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, exists := database.Get(key)
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}

		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s",
				key, expectedValue, actualValue)
		}
	}

	if database.SupportsFeature(db.FeatureKeys) {
		if n := len(database.Keys()); n != numKeys {
			t.Errorf("Expected %d keys, got %d", numKeys, n)
		}
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	type operation struct {
		op    string
		key   string
		value []byte
	}

	numOperations := 10_000
	operations := make([]operation, numOperations)

	for i := 0; i < numOperations; i++ {
		op := "set"
		if i%10 >= 7 {
			op = "get"
		}

		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", i)
		}

		var value []byte
		if op == "set" {
			value = []byte(fmt.Sprintf("value-%d", i))
		}

		operations[i] = operation{op, key, value}
	}

	numWorkers := 8
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	opsPerWorker := numOperations / numWorkers

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()

			start := workerId * opsPerWorker
			end := start + opsPerWorker

			for i := start; i < end; i++ {
				op := operations[i]

				switch op.op {
				case "set":
					database.Set(op.key, op.value, 0)
				case "get":
					database.Get(op.key)
				}
			}
		}(w)
	}

	wg.Wait()

	// every key written by a set must be readable afterwards
	for _, op := range operations {
		if op.op != "set" {
			continue
		}
		if _, exists := database.Get(op.key); !exists {
			t.Errorf("Key %s was set but is missing", op.key)
		}
	}
}
