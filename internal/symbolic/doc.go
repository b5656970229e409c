// Package symbolic provides the narrow algebra layer used by the
// stoichiometry compiler: a sealed expression tree, a small parser for
// rate equations and coefficient expressions, and a linear solver for
// conservation systems.
//
// The rest of the codebase is written against this abstraction
// (construct, substitute, evaluate-to-float, negate, scale) rather than
// a full computer-algebra engine. Expressions are immutable once built;
// constant subtrees are folded eagerly so a fully numeric expression is
// always represented as a single Num node.
package symbolic
