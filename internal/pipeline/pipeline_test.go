package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCaptured() (*Pipeline, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithConfig(Config{Out: &buf}), &buf
}

func TestInterpretOK(t *testing.T) {
	p, buf := newCaptured()
	defer p.Close()

	assert.Equal(t, OK, p.Interpret("print 1 + 2;"))
	assert.Equal(t, "3\n", buf.String())
}

func TestInterpretCompileError(t *testing.T) {
	p, buf := newCaptured()
	defer p.Close()

	assert.Equal(t, COMPILE_ERROR, p.Interpret("{ let a = a; }"))
	assert.Contains(t, buf.String(), "Cannot read local variable in its own initializer.")
}

func TestInterpretRuntimeError(t *testing.T) {
	p, buf := newCaptured()
	defer p.Close()

	assert.Equal(t, RUNTIME_ERROR, p.Interpret("print foo;"))
	assert.Contains(t, buf.String(), "Undefined variable 'foo'.")
	assert.Contains(t, buf.String(), "[line 1] in script")
}

func TestCompileNeverReturnsChunkOnError(t *testing.T) {
	p, _ := newCaptured()
	defer p.Close()

	result, ch := p.Compile("let 1 = 2;")
	assert.Equal(t, COMPILE_ERROR, result)
	assert.Nil(t, ch)
}

func TestGlobalsPersistAcrossLines(t *testing.T) {
	p, buf := newCaptured()
	defer p.Close()

	// The REPL relies on one pipeline carrying globals between inputs.
	require.Equal(t, OK, p.Interpret("let a = 1;"))
	require.Equal(t, OK, p.Interpret("a = a + 1;"))
	require.Equal(t, OK, p.Interpret("print a;"))
	assert.Equal(t, "2\n", buf.String())
}

func TestResultStrings(t *testing.T) {
	assert.Equal(t, "OK", OK.String())
	assert.Equal(t, "COMPILE_ERROR", COMPILE_ERROR.String())
	assert.Equal(t, "RUNTIME_ERROR", RUNTIME_ERROR.String())

	assert.Equal(t, 0, OK.ExitCode())
	assert.Equal(t, 65, COMPILE_ERROR.ExitCode())
	assert.Equal(t, 70, RUNTIME_ERROR.ExitCode())
}

func TestRunCompiled(t *testing.T) {
	p, buf := newCaptured()
	defer p.Close()

	result, ch := p.Compile(`print "compiled";`)
	require.Equal(t, OK, result)

	assert.Equal(t, OK, p.Run(ch))
	assert.Equal(t, "compiled\n", buf.String())
}
