// Package components implements the chemical/biological species
// registry consumed by the stoichiometry compiler: an ordered,
// unique-ID collection of components with per-quantity conversion
// factors (mass, C, N, P, COD, charge).
//
// A Components collection is growable until Compile is called; the
// returned CompiledComponents is an immutable, index-addressable view
// with dense factor vectors aligned to component order.
package components
