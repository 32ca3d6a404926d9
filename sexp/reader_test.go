package sexp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Atoms(t *testing.T) {
	cases := []struct {
		src  string
		want Value
	}{
		{"nil", Nil()},
		{"42", Int(42)},
		{"-7", Int(-7)},
		{"3.5", Float(3.5)},
		{"echo", Sym("echo")},
		{`"hi"`, Str("hi")},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			v, err := Decode(tc.src)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(v), "got %s", v.String())
		})
	}
}

func TestDecode_Lists(t *testing.T) {
	v, err := Decode("(call 1 echo (\"hi\"))")
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	assert.True(t, v.Elem(0).IsSymbol("call"))
	assert.True(t, v.Elem(1).Equal(Int(1)))
	assert.True(t, v.Elem(2).IsSymbol("echo"))
	assert.True(t, v.Elem(3).Equal(List(Str("hi"))))
}

func TestDecode_EmptyList(t *testing.T) {
	v, err := Decode("()")
	require.NoError(t, err)
	assert.True(t, v.IsNil())
}

func TestDecode_StringEscapes(t *testing.T) {
	v, err := Decode(`"line\nbreak \"quoted\" back\\slash"`)
	require.NoError(t, err)
	assert.Equal(t, "line\nbreak \"quoted\" back\\slash", v.Str)
}

func TestDecode_TrailingWhitespaceTolerated(t *testing.T) {
	v, err := Decode("(echo 1)   \n")
	require.NoError(t, err)
	assert.True(t, v.Elem(0).IsSymbol("echo"))
}

func TestDecode_RejectsTrailingData(t *testing.T) {
	_, err := Decode("1 2")
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
}

func TestDecode_RejectsEmptyInput(t *testing.T) {
	_, err := Decode("")
	require.Error(t, err)
}

func TestDecode_RejectsUnterminatedList(t *testing.T) {
	_, err := Decode("(1 2")
	require.Error(t, err)
}

func TestDecode_RejectsUnterminatedString(t *testing.T) {
	_, err := Decode(`"abc`)
	require.Error(t, err)
}

func TestDecode_RejectsUnexpectedCloseParen(t *testing.T) {
	_, err := Decode(")")
	require.Error(t, err)
}
