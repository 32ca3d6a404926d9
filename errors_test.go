package emigo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUnknownMethodError_Message(t *testing.T) {
	err := newUnknownMethodError("nonesuch")
	assert.Equal(t, "EPC-ERROR: No such method : nonesuch", err.Error())
}

func TestNewTaskFailureError_Message(t *testing.T) {
	err := newTaskFailureError("boom", "(1 2)", errors.New("bad"))
	assert.Equal(t, `FAILED in boom: (1 2) with ERROR: "bad"`, err.Error())
}

func TestEPCError_AndReturnError_AreDistinctTypes(t *testing.T) {
	var epc error = &EPCError{Message: "x"}
	var ret error = &ReturnError{Message: "x"}

	_, epcIsReturn := epc.(*ReturnError)
	_, retIsEPC := ret.(*EPCError)
	assert.False(t, epcIsReturn)
	assert.False(t, retIsEPC)
}
