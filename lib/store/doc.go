// Package store provides a high-level interface for a validated key-value store
// with unified error handling. It serves as an abstraction layer over the lower-level
// db.KVDB implementations, adding validation of every write, formatting of every read
// and standardized error reporting.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Pluggable storage backend architecture through DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     the store. Values are strings, every Add is validated and every Get is formatted
//     by a rules.Dispatcher injected into the implementation. The raw value is what is
//     stored, formatting only affects what Get returns.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     and descriptive messages. The helpers IsNotFound, IsInvalid and CodeOf let callers
//     decide on the rendering of an error without string matching. RetCNotFound is
//     returned by Get on an absent key, RetCInvalidInput when the rules rejected the
//     value (Msg carries their reason) and RetCRuleEngineFailure when the rules could
//     not be evaluated at all.
//
//   - DBFactory: A function type that abstracts the creation of underlying db.KVDB
//     instances, providing dependency injection and flexible configuration of
//     storage backends.
//
// Implementations:
//
//	- Local Store (lstore): A single-process implementation that directly
//	  utilizes a db.KVDB instance and a rules.Dispatcher.
//	  Available in the "github.com/ValentinKolb/vKV/lib/store/lstore" package.
package store
