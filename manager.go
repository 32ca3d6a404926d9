package emigo

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"

	"github.com/MatthewZMD/emigo/deferred"
	"github.com/MatthewZMD/emigo/sexp"
)

// Manager is the per-connection EPC session: it owns a Connection's wire
// traffic, a registry of locally-defined methods, and the table of
// outstanding outbound calls awaiting their reply.
type Manager struct {
	// Title is a free-form diagnostic label (e.g. the peer's advertised
	// process name); it plays no protocol role.
	Title string

	conn   *Connection
	logger *logiface.Logger[logiface.Event]

	methodsMu sync.Mutex
	methods   methodTable

	sessionsMu sync.Mutex
	sessions   map[uint64]*deferred.Deferred
}

// NewManager wires up the five EPC message-kind handlers on conn's channel
// and returns a ready-to-use Manager.
func NewManager(conn *Connection, opts ...ManagerOption) *Manager {
	m := &Manager{
		conn:     conn,
		sessions: make(map[uint64]*deferred.Deferred),
	}
	for _, opt := range opts {
		opt(m)
	}

	conn.Channel.Connect("call", m.onCall)
	conn.Channel.Connect("return", m.onReturn)
	conn.Channel.Connect("return-error", m.onReturnError)
	conn.Channel.Connect("epc-error", m.onEPCError)
	conn.Channel.Connect("methods", m.onMethods)

	return m
}

// Live reports whether the underlying connection is still open. Manager
// satisfies deferred.LivenessChecker through this method, so CallSync can
// give up waiting once the peer disappears.
func (m *Manager) Live() bool {
	return m.conn.Live()
}

// stopFlushWait is how long Stop gives outstanding outbound calls to settle
// before closing the socket.
const stopFlushWait = 150 * time.Millisecond

// Stop tears down the connection. It first waits briefly (up to
// stopFlushWait) for any outbound calls still awaiting a reply, so a Stop
// racing a reply that's already on the wire doesn't needlessly fail it. It
// is safe to call more than once; only the first call has any effect
// (Connection.Disconnect is itself idempotent).
func (m *Manager) Stop() {
	deadline := time.Now().Add(stopFlushWait)
	for m.pendingSessionCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.conn.Disconnect()
}

func (m *Manager) pendingSessionCount() int {
	m.sessionsMu.Lock()
	defer m.sessionsMu.Unlock()
	return len(m.sessions)
}

// DefineMethod registers meth, shadowing any prior method of the same name.
func (m *Manager) DefineMethod(meth *Method) {
	m.methodsMu.Lock()
	m.methods.define(meth)
	m.methodsMu.Unlock()
}

// Methods returns a snapshot of the locally registered method table, in
// definition order. It exists for diagnostics and tests; the wire-level
// equivalent for a remote peer's table is ListMethodsDeferred/ListMethodsSync.
func (m *Manager) Methods() []*Method {
	m.methodsMu.Lock()
	defer m.methodsMu.Unlock()
	return m.methods.list()
}

// CallDeferred issues an outbound call for method with the given
// positional args and returns the Deferred that will receive the reply.
func (m *Manager) CallDeferred(method string, args ...sexp.Value) *deferred.Deferred {
	uid, d := m.newSession()
	msg := sexp.List(sexp.Sym("call"), sexp.Int(int64(uid)), sexp.Sym(method), sexp.List(args...))
	m.sendOrFail(uid, d, msg)
	return d
}

// newSession allocates a fresh uid and a Deferred awaiting its reply,
// installing the pair into sessions.
func (m *Manager) newSession() (uint64, *deferred.Deferred) {
	uid := m.nextCallUID()
	d := deferred.New(nil)
	m.sessionsMu.Lock()
	m.sessions[uid] = d
	m.sessionsMu.Unlock()
	return uid, d
}

// sendOrFail writes msg to the wire, and if that fails, retracts the
// session and fails d with the send error instead of leaving it pending
// forever.
func (m *Manager) sendOrFail(uid uint64, d *deferred.Deferred, msg sexp.Value) {
	if err := m.conn.Send(msg); err != nil {
		m.removeSession(uid)
		deferred.Post(d, deferred.StatusNG, err)
	}
}

// CallSync issues an outbound call and blocks until its reply arrives, or
// until the connection dies.
func (m *Manager) CallSync(method string, args ...sexp.Value) (any, error) {
	d := m.CallDeferred(method, args...)
	return deferred.Sync(m, d)
}

// ListMethodsDeferred issues the "methods" introspection query (a distinct
// wire message kind from a regular call) and returns the Deferred that
// resolves with the peer's method table.
func (m *Manager) ListMethodsDeferred() *deferred.Deferred {
	uid, d := m.newSession()
	m.sendOrFail(uid, d, sexp.List(sexp.Sym("methods"), sexp.Int(int64(uid))))
	return d
}

// ListMethodsSync is ListMethodsDeferred's blocking counterpart.
func (m *Manager) ListMethodsSync() (any, error) {
	return deferred.Sync(m, m.ListMethodsDeferred())
}

// callUIDs is the process-wide call uid counter shared by every Manager, so
// uids increase monotonically across the whole process.
var callUIDs atomic.Uint64

func (m *Manager) nextCallUID() uint64 {
	return callUIDs.Add(1)
}

func (m *Manager) removeSession(uid uint64) (*deferred.Deferred, bool) {
	m.sessionsMu.Lock()
	defer m.sessionsMu.Unlock()
	d, ok := m.sessions[uid]
	if ok {
		delete(m.sessions, uid)
	}
	return d, ok
}

func (m *Manager) warn(msg string, err error) {
	if m.logger != nil {
		m.logger.Info().Err(err).Log(msg)
		return
	}
	deferred.LogWarn(msg, err)
}

// onCall handles an inbound (call UID NAME ARGLIST) message.
func (m *Manager) onCall(arg any) any {
	ev := arg.(Event)
	if len(ev.Args) != 3 {
		m.warn("emigo: malformed call message", malformedMessageError("call", ev.Args))
		return nil
	}
	uid := uint64(ev.Args[0].Int)
	name := string(ev.Args[1].Sym)
	callArgs := ev.Args[2].List

	meth, ok := m.lookupMethod(name)
	if !ok {
		_ = m.conn.Send(sexp.List(sexp.Sym("epc-error"), sexp.Int(int64(uid)), sexp.Str(newUnknownMethodError(name).Message)))
		return nil
	}

	result := m.invokeTask(meth, name, callArgs)
	m.replyToCall(uid, name, callArgs, result)
	return nil
}

func (m *Manager) lookupMethod(name string) (*Method, bool) {
	m.methodsMu.Lock()
	defer m.methodsMu.Unlock()
	return m.methods.lookup(name)
}

// invokeTask runs meth.Task under a fault boundary: a panicking task is
// turned into an error result, exactly like a Deferred callback's
// invokeSafely.
func (m *Manager) invokeTask(meth *Method, name string, callArgs []sexp.Value) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = newTaskFailureError(name, sexp.List(callArgs...).String(), &deferred.PanicError{Value: r})
		}
	}()
	return meth.Task(callArgs)
}

// replyToCall sends the outbound reply for one inbound call, handling all
// three shapes a task's result can take: a concrete value, an error, or a
// Deferred (an asynchronous task). For a Deferred, both paths are wired: a
// success sends return, and a failure sends return-error, so an async
// task's failure reaches the caller too.
func (m *Manager) replyToCall(uid uint64, name string, callArgs []sexp.Value, result any) {
	switch v := result.(type) {
	case *deferred.Deferred:
		deferred.NextBoth(v,
			func(val any) any {
				_ = m.conn.Send(sexp.List(sexp.Sym("return"), sexp.Int(int64(uid)), toWireValue(val)))
				return nil
			},
			func(errVal any) any {
				_ = m.conn.Send(sexp.List(sexp.Sym("return-error"), sexp.Int(int64(uid)), sexp.Str(formatTaskError(name, callArgs, errVal))))
				return nil
			},
		)
	case error:
		_ = m.conn.Send(sexp.List(sexp.Sym("return-error"), sexp.Int(int64(uid)), sexp.Str(formatTaskError(name, callArgs, v))))
	default:
		_ = m.conn.Send(sexp.List(sexp.Sym("return"), sexp.Int(int64(uid)), toWireValue(v)))
	}
}

// formatTaskError renders a task's failure value as return-error message
// text. errVal usually already is an error (the common case: a task
// returned one); anything else is wrapped in a deferred.TaskError first, so
// every cause passed to newTaskFailureError satisfies the error interface
// uniformly regardless of what a task handed back.
func formatTaskError(name string, callArgs []sexp.Value, errVal any) string {
	cause, ok := errVal.(error)
	if !ok {
		cause = &deferred.TaskError{Message: toDisplayString(errVal)}
	}
	return newTaskFailureError(name, sexp.List(callArgs...).String(), cause).Message
}

// onReturn handles an inbound (return UID VALUE) message.
func (m *Manager) onReturn(arg any) any {
	ev := arg.(Event)
	if len(ev.Args) != 2 {
		m.warn("emigo: malformed return message", malformedMessageError("return", ev.Args))
		return nil
	}
	uid := uint64(ev.Args[0].Int)
	d, ok := m.removeSession(uid)
	if !ok {
		m.warn("emigo: reply for unknown session", orphanReplyError(uid))
		return nil
	}
	_ = d.Callback(ev.Args[1])
	return nil
}

// onReturnError handles an inbound (return-error UID STRING) message: an
// application-level failure, propagated as a *ReturnError.
func (m *Manager) onReturnError(arg any) any {
	ev := arg.(Event)
	if len(ev.Args) != 2 {
		m.warn("emigo: malformed return-error message", malformedMessageError("return-error", ev.Args))
		return nil
	}
	uid := uint64(ev.Args[0].Int)
	d, ok := m.removeSession(uid)
	if !ok {
		m.warn("emigo: reply for unknown session", orphanReplyError(uid))
		return nil
	}
	_ = d.Errorback(&ReturnError{Message: ev.Args[1].Str})
	return nil
}

// onEPCError handles an inbound (epc-error UID STRING) message: a
// protocol-level failure, propagated as a tagged *EPCError so callers can
// discriminate it from a ReturnError.
func (m *Manager) onEPCError(arg any) any {
	ev := arg.(Event)
	if len(ev.Args) != 2 {
		m.warn("emigo: malformed epc-error message", malformedMessageError("epc-error", ev.Args))
		return nil
	}
	uid := uint64(ev.Args[0].Int)
	d, ok := m.removeSession(uid)
	if !ok {
		m.warn("emigo: reply for unknown session", orphanReplyError(uid))
		return nil
	}
	_ = d.Errorback(&EPCError{Message: ev.Args[1].Str})
	return nil
}

// onMethods handles an inbound (methods UID) introspection query, replying
// with (return UID ((NAME ARG-SPECS DOCSTRING) …)).
func (m *Manager) onMethods(arg any) any {
	ev := arg.(Event)
	if len(ev.Args) != 1 {
		m.warn("emigo: malformed methods message", malformedMessageError("methods", ev.Args))
		return nil
	}
	uid := uint64(ev.Args[0].Int)

	m.methodsMu.Lock()
	methods := m.methods.list()
	m.methodsMu.Unlock()

	entries := make([]sexp.Value, len(methods))
	for i, meth := range methods {
		entries[i] = sexp.List(sexp.Sym(meth.Name), meth.ArgSpecs, sexp.Str(meth.Docstring))
	}

	_ = m.conn.Send(sexp.List(sexp.Sym("return"), sexp.Int(int64(uid)), sexp.List(entries...)))
	return nil
}
