// Package engine evaluates geometry scripts. It wraps zygomys in a
// sandboxed environment and exposes the shape algebra as Lisp builtins, so
// a script can declare a grid, compose a shape tree and mark the solid to
// rasterize.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/lbkit/lbprep/pkg/lattice"
	"github.com/lbkit/lbprep/pkg/shapes"
)

// Result is the outcome of evaluating a geometry script.
type Result struct {
	Grid      *lattice.Grid // nil when the script never calls grid
	Shape     shapes.Shape  // nil when the script never calls solid
	Threshold *float64      // nil when the script never calls threshold
}

// EvalError is a parse or runtime error in user script code, with the line
// number when the interpreter reports one.
type EvalError struct {
	Line    int
	Message string
}

func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// DefaultTimeout is the wall-clock limit for a single evaluation.
const DefaultTimeout = 5 * time.Second

// Engine evaluates geometry scripts. It is safe for concurrent use; each
// call to Evaluate runs in a fresh sandboxed interpreter.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// Option adjusts engine behavior.
type Option func(*Engine)

// WithTimeout replaces the default evaluation timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine creates an engine with the default timeout.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs a script and returns what it declared. Script errors come
// back as *EvalError; timeouts and interpreter panics as plain errors. An
// evaluation superseded by a newer call on the same engine is discarded.
func (e *Engine) Evaluate(source string) (*Result, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, err := evaluate(source)
		ch <- evalResult{res: res, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
}

// evaluate runs one script in a fresh sandbox. Sandbox mode keeps user code
// away from the filesystem and syscalls.
func evaluate(source string) (*Result, error) {
	if strings.TrimSpace(source) == "" {
		return &Result{}, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	var st evalState
	registerBuiltins(env, &st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseScriptError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseScriptError(err)
	}

	return &Result{Grid: st.grid, Shape: st.shape, Threshold: st.threshold}, nil
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches the simpler "line N: ..." form.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseScriptError converts an interpreter error into an EvalError,
// extracting the line number when the message carries one.
func parseScriptError(err error) *EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &EvalError{Line: line, Message: strings.TrimSpace(m[2])}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &EvalError{Line: line, Message: strings.TrimSpace(m[2])}
	}
	return &EvalError{Message: strings.TrimSpace(msg)}
}
