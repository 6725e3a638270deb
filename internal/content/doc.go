// Package content defines authored rule objects (classes, backgrounds,
// conditions, bundles, items, spells, feats) and the Provider interface
// through which a recompute fetches them.
//
// A Provider is an external collaborator. Stores live in
// internal/contentstore; this package only fixes the shapes and the two error
// classes a provider may report.
package content
