// Package sexp implements a minimal s-expression reader and writer for the
// EPC wire dialect: symbols, signed integers, floats, double-quoted
// strings with backslash escapes, proper lists, and nil (the empty list).
//
// The dialect is deliberately small: there is no vector, character,
// keyword, or quote syntax, because the wire protocol never carries any of
// those. Value is a tagged union rather than `any`, so callers pattern-match
// on Kind instead of relying on dynamic type assertions that could silently
// accept the wrong shape.
package sexp
