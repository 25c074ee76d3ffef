// Package mango translates single-comparison predicates into CouchDB Mango
// selectors.
//
// Predicates are built explicitly rather than by inspecting Go closures:
//
//	p := mango.Where[Post](mango.Field("Views").Gt(10))
//	sel, err := mango.Translate(p)
//	// sel == mango.Selector{"Views": {"$gt": 10}}
//
// The field may be written on either side of the comparison, and the other
// side may be a literal, a captured variable (mango.Var(&v)), a deferred
// computation (mango.Eval) or a member of a plain Go value. Those operands are
// evaluated when the predicate is translated. Only strings, booleans, integers
// and null are accepted as operands.
//
// Predicates can also be parsed from text with ParsePredicate or ParseWhere:
//
//	p, err := mango.ParseWhere[Post](`Views > 10`)
//
// Conjunctions, disjunctions, method calls and arithmetic at the top level
// are rejected with the sentinel errors in this package; a Selector can also
// be assembled by hand and passed to the client directly.
package mango
