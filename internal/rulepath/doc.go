// Package rulepath models the structural path under which a rule object or
// mutator was discovered while building a character, e.g.
// `classes[0].wizard.arcane_tradition`.
//
// Paths are the attribution key for everything derived during a recompute:
// bonuses, proficiencies and features all remember the path of the rule
// source that contributed them, and user selections are keyed by the path of
// the choice that asked for them.
//
// A Path is an immutable value. Child and Parent always return fresh copies,
// so a Path captured by a mutator closure can never be changed by a sibling.
package rulepath
