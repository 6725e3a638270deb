// Package registry maps mutator kinds, as written in content packs
// (`mutator "ability_bonus" { ... }`), to the Go code that implements them.
//
// Modules under modules/ call Register from their Register method during
// application startup. At recompute time the registry acts as the
// character.Builder: it decodes a spec's cty arguments into the kind's
// argument struct and returns the compiled mutator.
//
// Registering the same kind twice is a programming error and panics.
package registry
