// Package engine runs brush scripts. Each run happens in a fresh sandboxed
// zygomys interpreter whose builtins build a DesignGraph.
package engine

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/chazu/brushwork/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a problem in the script itself: a syntax error, a failing
// builtin or a validation error. Line is 0 when the position is unknown.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// EvalWarning is an advisory finding about an evaluated script.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

// EvalResult is the graph of a checked script with its findings. Graph is
// nil when the script did not evaluate.
type EvalResult struct {
	Graph    *graph.DesignGraph
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine evaluates brush scripts. It is safe for concurrent use. Only the
// newest evaluation delivers a result; older ones still running end with
// ErrSuperseded.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	defaults   graph.GlobalDefaults
	textures   map[string]graph.TextureSpec
}

// NewEngine returns an engine with the default graph settings and
// EvalTimeout.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout, defaults: graph.New().Defaults}
}

// SetDefaults sets the defaults and predeclared textures of the graphs
// produced by later evaluations.
func (e *Engine) SetDefaults(d graph.GlobalDefaults, textures map[string]graph.TextureSpec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaults = d
	e.textures = maps.Clone(textures)
}

func (e *Engine) newGraph() *graph.DesignGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := graph.New()
	g.Defaults = e.defaults
	maps.Copy(g.Textures, e.textures)
	return g
}

// Evaluate runs source and returns the graph it builds. Problems in the
// script come back as EvalErrors with a nil graph. The error result is
// reserved for failures of the run itself: a timeout, a panic or a newer
// evaluation taking over. Blank source yields an empty graph.
func (e *Engine) Evaluate(source string) (*graph.DesignGraph, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate with a context that can abandon the
// evaluation early.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*graph.DesignGraph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o = outcome{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
			ch <- o
		}()
		o.graph, o.errors = e.run(source)
	}()
	return e.await(ctx, ch, gen)
}

// run evaluates source in a fresh sandbox, which has no filesystem or
// system call access.
func (e *Engine) run(source string) (*graph.DesignGraph, []EvalError) {
	g := e.newGraph()
	if strings.TrimSpace(source) == "" {
		return g, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	ev := newEvaluation(g)
	registerBuiltins(env, ev)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	ev.finish()
	locateSources(g, source)
	return g, nil
}

// Check evaluates source and validates the resulting graph. Validation
// findings are reported at the position of the node they concern.
func (e *Engine) Check(source string) (EvalResult, error) {
	return e.CheckContext(context.Background(), source)
}

// CheckContext is Check with a context that can abandon the evaluation.
func (e *Engine) CheckContext(ctx context.Context, source string) (EvalResult, error) {
	g, evalErrs, err := e.EvaluateContext(ctx, source)
	switch {
	case err != nil:
		return EvalResult{}, err
	case len(evalErrs) > 0:
		return EvalResult{Errors: evalErrs}, nil
	}

	res := EvalResult{Graph: g}
	vr := graph.ValidateAll(g)
	for _, ve := range vr.Errors {
		pos := g.SourceOf(ve.NodeID)
		res.Errors = append(res.Errors, EvalError{Line: pos.Line, Col: pos.Col, Message: ve.Message})
	}
	for _, vw := range vr.Warnings {
		pos := g.SourceOf(vw.NodeID)
		res.Warnings = append(res.Warnings, EvalWarning{Line: pos.Line, Col: pos.Col, Message: vw.Message, NodeID: vw.NodeID})
	}
	return res, nil
}
