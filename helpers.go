package emigo

import (
	"fmt"

	"github.com/MatthewZMD/emigo/sexp"
)

// malformedMessageError reports an inbound message whose argument count
// doesn't match its event symbol's expected shape.
func malformedMessageError(kind string, args []sexp.Value) error {
	return fmt.Errorf("emigo: malformed %s message (%d args): %s", kind, len(args), sexp.List(args...).String())
}

// orphanReplyError reports a return/return-error/epc-error whose uid has no
// matching entry in sessions. It is logged and discarded; no error is
// surfaced to any caller, since there is no pending call left to fail.
func orphanReplyError(uid uint64) error {
	return fmt.Errorf("emigo: reply for uid %d with no pending session", uid)
}

// toDisplayString renders an arbitrary failure value for inclusion in a
// return-error message's text.
func toDisplayString(v any) string {
	return fmt.Sprintf("%v", v)
}

// toWireValue coerces a task's returned value into a sexp.Value suitable
// for a return message's VALUE slot. A task is expected to already return
// sexp.Value (or nil), matching the codec's own vocabulary; anything else
// is rendered as a string so it can still cross the wire rather than
// panicking the reply path.
func toWireValue(v any) sexp.Value {
	switch x := v.(type) {
	case sexp.Value:
		return x
	case nil:
		return sexp.Nil()
	case string:
		return sexp.Str(x)
	case int:
		return sexp.Int(int64(x))
	case int64:
		return sexp.Int(x)
	case float64:
		return sexp.Float(x)
	case error:
		return sexp.Str(x.Error())
	default:
		return sexp.Str(fmt.Sprintf("%v", x))
	}
}
