package emigo

import "github.com/MatthewZMD/emigo/sexp"

// Task is a registered EPC method's body. args is the call's positional
// argument list decoded straight off the wire; the return value is
// resolved onto the call's Deferred the same way any Deferred callback's
// return value would be (including the nested-Deferred flattening rule),
// so a Task can itself be asynchronous by returning a *deferred.Deferred.
type Task func(args []sexp.Value) any

// Method is one entry in a Manager's method table.
type Method struct {
	Name string
	Task Task

	// ArgSpecs is echoed verbatim in a methods-introspection reply; emigo
	// does not interpret it. Most callers pass a string atom, e.g.
	// sexp.Str("(X)"), matching how other EPC implementations describe a
	// method's argument list.
	ArgSpecs sexp.Value

	Docstring string
}

// methodTable is a linear-scan-by-name registry. It is deliberately not a
// map: last-definition-wins via a prepend, which a linear scan from the
// front gives for free, and method tables are small enough (a handful to a
// few dozen entries per process) that a map buys nothing.
type methodTable struct {
	methods []*Method
}

// define prepends m, so a later DefineMethod call for the same name shadows
// an earlier one without disturbing its slot (the old entry just becomes
// unreachable dead weight at the tail).
func (t *methodTable) define(m *Method) {
	t.methods = append([]*Method{m}, t.methods...)
}

// lookup returns the first (most-recently defined) method named name.
func (t *methodTable) lookup(name string) (*Method, bool) {
	for _, m := range t.methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// list returns methods in definition order (oldest first), which is the
// order the "methods" introspection call reports them in.
func (t *methodTable) list() []*Method {
	out := make([]*Method, len(t.methods))
	for i, m := range t.methods {
		out[len(t.methods)-1-i] = m
	}
	return out
}
