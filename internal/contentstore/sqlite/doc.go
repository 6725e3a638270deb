// Package sqlite provides a content.Store backed by a SQLite database through
// the pure-Go modernc.org/sqlite driver.
//
// Each rule object is one row. Its mutators are kept as a JSON document in
// which every mutator's arguments are encoded together with their cty type,
// so a fetched object compiles exactly like the one that was imported.
// The schema is created by embedded migrations when the store is opened.
package sqlite
