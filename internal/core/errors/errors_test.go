package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	assert.Equal(t, "[NOT_FOUND] node not found", New(CodeNotFound, "node not found").Error())
	assert.Equal(t, "[IO_ERROR] read source: permission denied",
		Wrap(errors.New("permission denied"), CodeIO, "read source").Error())

	err := AddContext(AddContext(New(CodeParse, "syntax error"), CtxPath, "pkg/a.py"), CtxNode, "pkg/a.py::f")
	assert.Equal(t, "[PARSE_ERROR] syntax error (node=pkg/a.py::f, path=pkg/a.py)", err.Error())
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "noop"))
	assert.NoError(t, AddContext(nil, CtxPath, "x"))
}

func TestIsCodeAndCodeOf(t *testing.T) {
	err := Newf(CodeInvariantViolation, "node %s missing reverse edge", "a.py::f")
	assert.True(t, IsCode(err, CodeInvariantViolation))
	assert.False(t, IsCode(err, CodeNotFound))

	wrapped := fmt.Errorf("analyze: %w", err)
	assert.Equal(t, CodeInvariantViolation, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}

func TestAddContext_ForeignError(t *testing.T) {
	err := AddContext(errors.New("boom"), CtxPath, "out/report.txt")

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, "out/report.txt", de.Context[CtxPath])
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "read error: EOF", Message(Wrap(errors.New("EOF"), CodeIO, "read error")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Empty(t, Message(nil))
}
