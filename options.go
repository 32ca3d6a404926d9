package emigo

import (
	"time"

	"github.com/joeycumines/logiface"

	"github.com/MatthewZMD/emigo/deferred"
)

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithLogger installs the structured logger used both for this Manager's
// own diagnostics and, process-wide, for the deferred engine's unhandled-
// failure reporting (the engine has no per-instance concept of a logger).
func WithLogger(logger *logiface.Logger[logiface.Event]) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
		deferred.SetLogger(logger)
	}
}

// WithTickInterval overrides the deferred engine's post-queue tick
// interval. Like the engine itself this setting is process-wide, not
// per-Manager; the option exists on Manager purely so callers configure it
// at the same call site as everything else.
func WithTickInterval(d time.Duration) ManagerOption {
	return func(*Manager) {
		deferred.SetTickInterval(d)
	}
}

// WithTitle sets the Manager's diagnostic Title.
func WithTitle(title string) ManagerOption {
	return func(m *Manager) {
		m.Title = title
	}
}

// WithMethods registers methods on the Manager at construction time,
// equivalent to calling DefineMethod for each in order.
func WithMethods(methods ...*Method) ManagerOption {
	return func(m *Manager) {
		for _, meth := range methods {
			m.DefineMethod(meth)
		}
	}
}

// ServerOption configures a Server at construction time.
type ServerOption func(*Server)

// WithManagerOptions applies opts to every Manager the Server creates for
// an accepted connection.
func WithManagerOptions(opts ...ManagerOption) ServerOption {
	return func(s *Server) {
		s.managerOpts = append(s.managerOpts, opts...)
	}
}

// WithServerLogger installs the logger used for the Server's own
// accept-loop diagnostics (distinct from per-connection Manager logging,
// though typically set to the same logger via WithManagerOptions(WithLogger(...))).
func WithServerLogger(logger *logiface.Logger[logiface.Event]) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}
