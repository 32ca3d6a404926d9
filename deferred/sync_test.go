package deferred

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLiveness struct {
	live bool
}

func (f *fakeLiveness) Live() bool { return f.live }

func TestSync_ResolvesOnSuccess(t *testing.T) {
	SetTickInterval(time.Millisecond)
	d := New(nil)

	go func() {
		time.Sleep(2 * time.Millisecond)
		Post(d, StatusOK, "value")
	}()

	val, err := Sync(nil, d)
	require.NoError(t, err)
	assert.Equal(t, "value", val)
}

func TestSync_ReRaisesFailure(t *testing.T) {
	SetTickInterval(time.Millisecond)
	d := New(nil)
	boom := errors.New("boom")

	go func() {
		time.Sleep(2 * time.Millisecond)
		Post(d, StatusNG, boom)
	}()

	val, err := Sync(nil, d)
	assert.Nil(t, val)
	assert.ErrorIs(t, err, boom)
}

func TestSync_GivesUpWhenNotLive(t *testing.T) {
	live := &fakeLiveness{live: false}
	d := New(nil) // never resolves

	start := time.Now()
	_, err := Sync(live, d)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrNotLive)
	assert.Less(t, elapsed, 2*pollInterval)
}
