package maple

import (
	"github.com/ValentinKolb/vKV/lib/db"
	"github.com/puzpuzpuz/xsync/v3"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

const supportedFeatures = db.FeatureSet | db.FeatureGet | db.FeatureHas | db.FeatureKeys

// entry is a stored value together with the write index it was written at
type entry struct {
	value []byte
	index uint64
}

// mapleImpl is an in-memory database backed by a concurrent map
type mapleImpl struct {
	data      *xsync.MapOf[string, entry]
	currIndex atomic.Uint64 // highest write index seen so far
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	InitialCapacity int // Expected number of entries (0 = default)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}

	var data *xsync.MapOf[string, entry]
	if opts.InitialCapacity > 0 {
		data = xsync.NewMapOf[string, entry](xsync.WithPresize(opts.InitialCapacity))
	} else {
		data = xsync.NewMapOf[string, entry]()
	}

	return &mapleImpl{data: data}
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key, value, and writeIndex.
// Writes with a lower index than the stored entry are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Set(key string, value []byte, writeIndex uint64) {
	maple.SetWriteIdx(writeIndex)

	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	maple.data.Compute(key, func(old entry, loaded bool) (entry, bool) {
		if loaded && old.index > writeIndex {
			return old, false
		}
		return entry{value: valueCopy, index: writeIndex}, false
	})
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns a copy of the value stored for key.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Get(key string) ([]byte, bool) {
	e, ok := maple.data.Load(key)
	if !ok {
		return nil, false
	}
	valueCopy := make([]byte, len(e.value))
	copy(valueCopy, e.value)
	return valueCopy, true
}

// Has reports whether key is stored.
func (maple *mapleImpl) Has(key string) bool {
	_, ok := maple.data.Load(key)
	return ok
}

// Keys returns a snapshot of all keys, in no particular order.
func (maple *mapleImpl) Keys() []string {
	keys := make([]string, 0, maple.data.Size())
	maple.data.Range(func(key string, _ entry) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// --------------------------------------------------------------------------
// Feature Support and Info
// --------------------------------------------------------------------------

func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	return feature&supportedFeatures == feature
}

// GetInfo returns the exact payload size (keys and values) and the number of entries.
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	size := 0
	entries := 0
	maple.data.Range(func(key string, e entry) bool {
		size += len(key) + len(e.value)
		entries++
		return true
	})

	return db.DatabaseInfo{
		SizeBytes:         size,
		DbType:            db.ImplMaple,
		SupportedFeatures: []db.Feature{db.FeatureSet, db.FeatureGet, db.FeatureHas, db.FeatureKeys},
		Metadata: map[string]uint64{
			"entries":     uint64(entries),
			"write_index": maple.WriteIdx(),
		},
	}
}

// --------------------------------------------------------------------------
// Write Index Operations
// --------------------------------------------------------------------------

// SetWriteIdx raises the current index to index. Lower values are ignored.
//
// Thread-safety: This method uses a CompareAndSwap loop.
func (maple *mapleImpl) SetWriteIdx(index uint64) {
	for {
		curr := maple.currIndex.Load()
		if index <= curr {
			return
		}
		if maple.currIndex.CompareAndSwap(curr, index) {
			return
		}
	}
}

func (maple *mapleImpl) WriteIdx() uint64 {
	return maple.currIndex.Load()
}

// Close drops all entries.
func (maple *mapleImpl) Close() error {
	maple.data.Clear()
	return nil
}
