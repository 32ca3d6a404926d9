package deferred

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallback_PassThroughDefault(t *testing.T) {
	d := New(nil)
	err := d.Callback("hello")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, d.Status())
	assert.Equal(t, "hello", d.Value())
}

func TestCallback_TransformsValue(t *testing.T) {
	d := New(func(arg any) any { return arg.(int) + 1 })
	err := d.Callback(41)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, d.Status())
	assert.Equal(t, 42, d.Value())
}

func TestCallback_ReturningErrorSwitchesToNG(t *testing.T) {
	boom := errors.New("boom")
	d := New(func(any) any { return boom })
	err := d.Callback(nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusNG, d.Status())
}

func TestErrorback_DefaultReRaises(t *testing.T) {
	boom := errors.New("boom")
	d := New(nil)
	err := d.Errorback(boom)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatusNG, d.Status())
}

func TestErrorback_StringValueBecomesGenericError(t *testing.T) {
	d := New(nil)
	err := d.Errorback("went wrong")
	require.Error(t, err)
	assert.Equal(t, "went wrong", err.Error())
}

func TestNextCallback_ChainsInOrder(t *testing.T) {
	var seen []int
	d := New(func(arg any) any {
		seen = append(seen, 1)
		return arg
	})
	NextCallback(d, func(arg any) any {
		seen = append(seen, 2)
		return arg
	})
	require.NoError(t, d.Callback(0))
	DrainForTest()
	assert.Equal(t, []int{1, 2}, seen)
}

func TestNextErrorback_SkippedOnSuccessPath(t *testing.T) {
	var errorbackRan bool
	d := New(func(arg any) any { return arg })
	NextErrorback(d, func(arg any) any {
		errorbackRan = true
		return arg
	})
	require.NoError(t, d.Callback("ok"))
	assert.False(t, errorbackRan)
}

func TestNextCallback_ReplaysAlreadyResolvedTail(t *testing.T) {
	d := New(nil)
	require.NoError(t, d.Callback("first"))

	var got any
	NextCallback(d, func(arg any) any {
		got = arg
		return arg
	})

	assert.Equal(t, "first", got)
}

func TestCallback_PanicBecomesPanicError(t *testing.T) {
	d := New(func(any) any { panic("kaboom") })
	err := d.Callback(nil)
	require.Error(t, err)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
}

func TestNestedDeferred_Flattens(t *testing.T) {
	inner := New(nil)
	outer := New(func(any) any { return inner })

	var got any
	NextCallback(outer, func(arg any) any {
		got = arg
		return arg
	})

	require.NoError(t, outer.Callback("kick off"))
	require.NoError(t, inner.Callback("resolved value"))

	assert.Equal(t, "resolved value", got)
}

func TestCancel_DropsForwardPropagation(t *testing.T) {
	var ran bool
	d := New(func(any) any { return "unused" })
	next := NextCallback(d, func(arg any) any {
		ran = true
		return arg
	})
	_ = next
	Cancel(d)
	require.NoError(t, d.Callback("value"))
	assert.False(t, ran)
}

func TestNextBoth_AttachesBothPathsAtomically(t *testing.T) {
	d := New(nil)
	var okArg, ngArg any
	NextBoth(d,
		func(arg any) any { okArg = arg; return nil },
		func(arg any) any { ngArg = arg; return nil },
	)
	require.NoError(t, d.Callback("success"))
	assert.Equal(t, "success", okArg)
	assert.Nil(t, ngArg)
}

func TestNextBoth_ErrorPathRunsErrorback(t *testing.T) {
	d := New(nil)
	var okArg, ngArg any
	NextBoth(d,
		func(arg any) any { okArg = arg; return nil },
		func(arg any) any { ngArg = arg; return nil },
	)
	require.NoError(t, d.Errorback(errors.New("fail")))
	assert.Nil(t, okArg)
	require.Error(t, ngArg.(error))
}
