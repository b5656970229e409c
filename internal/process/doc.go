// Package process is the stoichiometry/kinetics compiler core.
//
// A Process is a single reaction parsed from text into a dense
// stoichiometric coefficient vector subject to conservation
// constraints, paired with a symbolic rate equation. Processes is the
// growable, uniquely-keyed collection; Compile freezes it into a
// CompiledProcesses: an immutable, matrix-backed view with a merged
// component registry, parallel rate-expression vector and derived
// per-component production rates.
//
// Compiled instances are content-addressed: compiling a structurally
// identical, same-order set of processes returns the cached instance,
// so downstream consumers may compare by identity.
package process
