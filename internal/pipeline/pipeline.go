// Package pipeline is the host-facing surface of the core: it brackets the
// object pool around compile+run cycles and maps both error kinds onto
// interpretation results.
package pipeline

import (
	"io"
	"os"

	"pythowon/internal/chunk"
	"pythowon/internal/compiler"
	"pythowon/internal/value"
	"pythowon/internal/vm"
)

type Result uint8

const (
	OK Result = iota
	COMPILE_ERROR
	RUNTIME_ERROR
)

func (r Result) String() string {
	switch r {
	case OK:
		return "OK"
	case COMPILE_ERROR:
		return "COMPILE_ERROR"
	case RUNTIME_ERROR:
		return "RUNTIME_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ExitCode maps a result onto the process exit codes of the CLI.
func (r Result) ExitCode() int {
	switch r {
	case COMPILE_ERROR:
		return 65
	case RUNTIME_ERROR:
		return 70
	default:
		return 0
	}
}

// Pipeline owns one VM and one pool. It is not reentrant: one compilation
// and one chunk at a time.
type Pipeline struct {
	pool *value.Pool
	vm   *vm.VM
	out  io.Writer
}

func New() *Pipeline {
	return NewWithConfig(Config{})
}

type Config struct {
	Out   io.Writer
	Trace bool
}

func NewWithConfig(cfg Config) *Pipeline {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	pool := value.NewPool()
	return &Pipeline{
		pool: pool,
		vm:   vm.NewWithConfig(pool, vm.Config{Out: out, Trace: cfg.Trace}),
		out:  out,
	}
}

// Pool exposes the interning pool, e.g. for loading compiled artifacts.
func (p *Pipeline) Pool() *value.Pool {
	return p.pool
}

// Compile turns source text into a finalized chunk. A chunk is only
// returned when the result is OK.
func (p *Pipeline) Compile(source string) (Result, *chunk.Chunk) {
	c := compiler.New(source, p.pool, p.out)
	ch, err := c.Compile()
	if err != nil {
		return COMPILE_ERROR, nil
	}
	return OK, ch
}

// Run executes an already compiled chunk.
func (p *Pipeline) Run(ch *chunk.Chunk) Result {
	if err := p.vm.Run(ch); err != nil {
		return RUNTIME_ERROR
	}
	return OK
}

// Interpret compiles and runs source in one cycle.
func (p *Pipeline) Interpret(source string) Result {
	result, ch := p.Compile(source)
	if result != OK {
		return result
	}
	return p.Run(ch)
}

// Close drains the pool. The pipeline must not be used afterwards within
// the same cycle; a fresh Pipeline starts the next one.
func (p *Pipeline) Close() {
	p.pool.Free()
}
