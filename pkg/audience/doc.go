// Package audience selects recipients from user profiles with a small
// condition language.
//
// A Filter joins conditions with AND or OR. Each condition names a dotted
// profile field, an operator (eq, ne, in, nin, gt, gte, lt, lte, exists,
// regex) and a value:
//
//	f := audience.Filter{
//		Logic: audience.LogicAnd,
//		Conditions: []audience.Condition{
//			{Field: "studentProfile.graduationYear", Op: audience.OpGte, Value: 2026},
//			{Field: "studentProfile.major", Op: audience.OpRegex, Value: "^comp"},
//		},
//	}
//	res, err := resolver.Resolve(ctx, f, audience.Options{Preview: true})
//
// Filter.Query compiles to a MongoDB query and Filter.Match evaluates the
// same semantics in memory. Regex patterns follow MongoDB's PCRE dialect
// (lookarounds, backreferences) and always match case-insensitively.
// MongoResolver and MemoryResolver implement Resolver; Batches streams ids
// for large sends.
package audience
