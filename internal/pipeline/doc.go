// Package pipeline implements the recompute of a single character.
//
// # Phases
//
// Recompute moves an aggregate through a fixed sequence of phases:
//
//  1. init: derived data, the scheduler and the object cache are cleared.
//  2. insertion: the default block and then the persistent tree contribute
//     mutator entries and object references, in that order.
//  3. resolution: pending references are fetched and applied, and anything
//     they reference in turn is fetched in the next round. The first round is
//     followed by at most MaxExtraRounds more; references still pending after
//     that are marked unresolved and logged.
//  4. application: the scheduler is drained in dependency order.
//  5. indirection: spells granted by id are materialized, either from the
//     aggregate's background lookups or from the provider.
//
// # Failure Semantics
//
// The only error Recompute returns for authored content is a circular
// mutator dependency, which leaves the aggregate half built and must not be
// published. Fetch failures, the round cap and unresolved indirect
// references degrade to markers on the derived data. A cancelled context is
// also returned, since the aggregate is then incomplete.
//
// Refresh is the cheap non-structural pass used after edits and background
// merges that do not change which rules apply.
package pipeline
