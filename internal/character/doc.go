// Package character holds the Character Aggregate: the persistent data a user
// edits, the derived data a recompute rebuilds from it, and the transient
// scheduler and object cache that only live while a recompute runs.
//
// # Rule Sources and Mutators
//
// A RuleSource is anything that contributes mutators during the insertion
// phase: the built-in default block, each class, the background, equipped
// items and conditions. Sources never write derived data themselves. They
// register Mutator entries with AddMutator and object references with
// Objects.Insert.
//
// A Mutator is compiled from an authored content.MutatorSpec by a Builder.
// OnInsert runs as soon as the entry is registered and may only register
// further references. Apply runs once, in scheduler order, and writes derived
// data.
//
// # Ownership
//
// An Aggregate is not safe for concurrent use. The coordinator hands a clone
// to exactly one recompute at a time and publishes it only once the recompute
// has finished.
package character
