package emigo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MatthewZMD/emigo/deferred"
	"github.com/MatthewZMD/emigo/sexp"
)

func TestServer_AcceptsAndServesEcho(t *testing.T) {
	deferred.SetTickInterval(time.Millisecond)

	srv := NewServer(func(m *Manager) {
		m.DefineMethod(&Method{
			Name: "echo",
			Task: func(args []sexp.Value) any { return args[0] },
		})
	})
	addr, err := srv.Start(0)
	require.NoError(t, err)
	defer srv.Stop()

	client, err := Dial(addr.String(), nil)
	require.NoError(t, err)
	defer client.Stop()

	val, callErr := callSyncPolled(t, func() (any, error) {
		return client.CallSync("echo", sexp.Str("hi"))
	})
	require.NoError(t, callErr)
	assert.True(t, val.(sexp.Value).Equal(sexp.Str("hi")))
}

func TestServer_StopClosesListenerAndManagers(t *testing.T) {
	srv := NewServer(nil)
	addr, err := srv.Start(0)
	require.NoError(t, err)

	client, err := Dial(addr.String(), nil)
	require.NoError(t, err)

	srv.Stop()

	deadline := time.After(2 * time.Second)
	for client.Live() {
		select {
		case <-deadline:
			t.Fatal("client connection was never closed after server stop")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestServer_ConnectFnRunsBeforeFirstCall(t *testing.T) {
	deferred.SetTickInterval(time.Millisecond)
	registered := make(chan struct{}, 1)

	srv := NewServer(func(m *Manager) {
		m.DefineMethod(&Method{Name: "ping", Task: func([]sexp.Value) any { return sexp.Sym("pong") }})
		registered <- struct{}{}
	})
	addr, err := srv.Start(0)
	require.NoError(t, err)
	defer srv.Stop()

	client, err := Dial(addr.String(), nil)
	require.NoError(t, err)
	defer client.Stop()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("connectFn never ran")
	}

	val, callErr := callSyncPolled(t, func() (any, error) {
		return client.CallSync("ping")
	})
	require.NoError(t, callErr)
	assert.True(t, val.(sexp.Value).Equal(sexp.Sym("pong")))
}
