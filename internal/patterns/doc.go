// Package patterns registers the demonstration command groups: one group
// per design pattern, each with a few commands exercising it.
//
//	command   undoable text document
//	observer  generic subject with named subscribers
//	strategy  interchangeable sort algorithms
//	template  report skeleton with per-format steps
//	facade    order placement over inventory, payment and shipping
//	variance  covariant and contravariant adapters over generics
//	data      CRUD over the data service (only with a configured store)
package patterns
