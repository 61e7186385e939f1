package maple

import (
	"github.com/ValentinKolb/vKV/lib/db"
	dbtesting "github.com/ValentinKolb/vKV/lib/db/testing"
	"testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}

func TestPresized(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB(presized)", func() db.KVDB {
		return NewMapleDB(&DBOptions{InitialCapacity: 1024})
	})
}

func Benchmark(t *testing.B) {
	dbtesting.RunKVDBBenchmarks(t, "MapleDB", func() db.KVDB {
		return NewMapleDB(nil)
	})
}
