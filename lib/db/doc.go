// Package db provides a standardized interface for the storage engine underneath the store.
//
// The package focuses on:
//   - A small KVDB interface for the operations the store needs (Set, Get, Has, Keys)
//   - Feature discovery through capability flags
//   - Metadata reporting through DatabaseInfo
//
// Key Components:
//
//   - KVDB Interface: The interface all engines satisfy. Engines only store bytes, they know
//     nothing about validation. Validation happens one layer up in the store.
//
//   - Feature Flags: The Feature type defines capability flags that engines advertise through
//     the SupportsFeature method. The store checks them before every operation.
//
//   - Write Index: Every write carries a logical timestamp. Engines keep the highest index
//     they have seen (WriteIdx) and ignore writes that are older than the stored entry.
//     The index only ever increases.
//
// Related Packages:
//
// The engines/maple package (github.com/ValentinKolb/vKV/lib/db/engines/maple) provides an
// in-memory implementation based on a concurrent xsync map.
//
// The testing package (github.com/ValentinKolb/vKV/lib/db/testing) provides a conformance
// suite for KVDB implementations (RunKVDBTests).
package db
