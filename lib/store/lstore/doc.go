// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. It combines any db.KVDB implementation with a rules.Dispatcher
// and gates every write and every read through the dispatcher. Data is stored entirely
// in memory and is not persisted between process restarts.
//
// Key Features:
//   - Validation of every Add, the raw value is stored only if the rules accept it
//   - Formatting of every Get, the stored value is never modified by formatting
//   - Automatic write index progression using atomic operations
//   - Feature detection to handle unsupported operations gracefully
//
// Implementation Details:
//
//   - Add: The value is dispatched with rules.ActionAdd. A rejected value is returned as
//     RetCInvalidInput carrying the reason of the rules, a failure of the rule engine itself
//     as RetCRuleEngineFailure. In both cases the db is not touched. An accepted value is
//     written with the next write index, overwriting any previous value of the key.
//
//   - Get: An absent key returns RetCNotFound without consulting the rules. A present key is
//     dispatched with rules.ActionGet and the stored value. The formatted result is returned
//     if the rules produced one, otherwise the raw value.
//
//   - Composition Architecture: The store.DBFactory injects the underlying db.KVDB and the
//     caller injects the dispatcher. The dispatcher only ever sees the key and value of the
//     current operation, never the contents of the db.
//
// Usage Example:
//
//	dispatcher, err := native.New("")
//	if err != nil {
//		return err
//	}
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s := lstore.NewLocalStore(factory, dispatcher)
//
//	err = s.Add("cpf_zezinho", "12345678909")
//	value, err := s.Get("cpf_zezinho") // "123.456.789-09"
package lstore
