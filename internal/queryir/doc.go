// Package queryir defines an abstract filter representation for
// archive queries.
//
// The IR sits between query builders (CLI flags, library callers) and
// the SQL backend:
//
//	[list flags] → [query IR] → [SQL backend]
//
// A Query names a target table of the archive (systems or runs), an
// optional filter tree and a result limit. Filter is a sealed
// interface using the marker method pattern: only types in this
// package implement it, so backend compilers can type-switch
// exhaustively.
//
// Not every filter applies to every target: name, process and
// component filters only make sense for systems, the system-hash
// filter only for runs. Validate reports every such mismatch with a
// coded error before a backend ever sees the query.
package queryir
