package emigo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MatthewZMD/emigo/sexp"
)

func TestMethodTable_DefineAndLookup(t *testing.T) {
	var table methodTable
	echo := &Method{Name: "echo", Task: func(args []sexp.Value) any { return args[0] }}
	table.define(echo)

	got, ok := table.lookup("echo")
	assert.True(t, ok)
	assert.Same(t, echo, got)

	_, ok = table.lookup("nonesuch")
	assert.False(t, ok)
}

func TestMethodTable_RedefineShadowsOlderEntry(t *testing.T) {
	var table methodTable
	oldEcho := &Method{Name: "echo", Docstring: "old"}
	newEcho := &Method{Name: "echo", Docstring: "new"}
	table.define(oldEcho)
	table.define(newEcho)

	got, ok := table.lookup("echo")
	assert.True(t, ok)
	assert.Equal(t, "new", got.Docstring)
}

func TestMethodTable_ListIsDefinitionOrder(t *testing.T) {
	var table methodTable
	a := &Method{Name: "a"}
	b := &Method{Name: "b"}
	table.define(a)
	table.define(b)

	list := table.list()
	assert.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
}
