package lstore

import (
	"github.com/ValentinKolb/vKV/lib/db"
	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/ValentinKolb/vKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"sync/atomic"
)

var Logger = logger.GetLogger("store")

type storeImpl struct {
	db    db.KVDB
	rules rules.Dispatcher
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// Every Add and Get is routed through dispatcher before the db created by factory
// is mutated or read. The store owns the db, the dispatcher only ever sees the
// single key and value of the current operation.
func NewLocalStore(factory store.DBFactory, dispatcher rules.Dispatcher) store.IStore {
	return &storeImpl{
		db:    factory(),
		rules: dispatcher,
		index: atomic.Uint64{},
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// dispatch calls the rules and converts a structural failure of the rule engine
// into a store error
func (s *storeImpl) dispatch(action rules.Action, key, value string) (rules.Outcome, error) {
	outcome, err := s.rules.Dispatch(action, key, value)
	if err != nil {
		Logger.Warningf("rule engine failed for %s %s: %v", action, key, err)
		return rules.Outcome{}, store.NewError(store.RetCRuleEngineFailure, err.Error())
	}
	return outcome, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Add(key, value string) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return store.NewError(store.RetCUnsupportedOperation, "Set operation is not supported")
	}

	outcome, err := s.dispatch(rules.ActionAdd, key, value)
	if err != nil {
		return err
	}
	if !outcome.OK() {
		Logger.Debugf("rejected %s: %s", key, outcome.Err())
		return store.NewError(store.RetCInvalidInput, outcome.Err())
	}

	// the raw value is stored, formatting is applied on Get
	s.db.Set(key, []byte(value), s.incAndGetIndex())
	return nil
}

func (s *storeImpl) Get(key string) (string, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return "", store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}

	raw, ok := s.db.Get(key)
	if !ok {
		return "", store.NewError(store.RetCNotFound, "")
	}

	outcome, err := s.dispatch(rules.ActionGet, key, string(raw))
	if err != nil {
		return "", err
	}
	if !outcome.OK() {
		return "", store.NewError(store.RetCInvalidInput, outcome.Err())
	}
	return outcome.ResultOr(string(raw)), nil
}

func (s *storeImpl) ListKeys() []string {
	if !s.db.SupportsFeature(db.FeatureKeys) {
		return nil
	}
	return s.db.Keys()
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}
