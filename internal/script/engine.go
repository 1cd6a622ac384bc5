package script

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/chordpack/internal/logging"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = time.Second

// Scope resolves the global names an expression reads. Lookup returns
// nil, bool, any integer or float type, string, []byte, []any or a nested
// Scope; anything else is converted with fmt.Sprint.
type Scope interface {
	Lookup(name string) (any, bool)
}

// MapScope is a Scope over a plain map.
type MapScope map[string]any

// Lookup implements Scope.
func (m MapScope) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Engine is a sandboxed Lua state for expression evaluation.
type Engine struct {
	l *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	log     *logging.Logger
	closed  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-evaluation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the logger used for compile and evaluation tracing.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates a sandboxed engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibraries(L)
	removeLoaders(L)
	e.l = L
	return e, nil
}

// openSafeLibraries opens only the libraries expressions may use.
// io, os, debug and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// removeLoaders drops the base functions that compile or run other code.
func removeLoaders(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Define sets a global visible to every expression.
func (e *Engine) Define(name string, v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrStateClosed
	}
	e.l.SetGlobal(name, toLua(e.l, v))
	return nil
}

// Compile parses src as a single Lua expression.
func (e *Engine) Compile(src string) (*Expr, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrStateClosed
	}
	fn, err := e.l.LoadString("return " + src)
	if err != nil {
		return nil, &ExprError{Expr: src, Err: err}
	}
	e.log.Debug("compiled expression %q", src)
	return &Expr{src: src, fn: fn, engine: e}, nil
}

// Close releases the Lua state. Later calls fail with ErrStateClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.l.Close()
	e.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (e *Engine) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Expr is a compiled expression bound to its engine.
type Expr struct {
	src    string
	fn     *lua.LFunction
	engine *Engine
}

// String returns the expression source.
func (x *Expr) String() string { return x.src }

func (x *Expr) eval(scope Scope) (lua.LValue, error) {
	e := x.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return lua.LNil, ErrStateClosed
	}

	L := e.l
	x.fn.Env = scopeTable(L, scope, L.Get(lua.GlobalsIndex))

	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	top := L.GetTop()
	err := callWithRecovery(func() error {
		L.Push(x.fn)
		return L.PCall(0, 1, nil)
	})
	if err != nil {
		L.SetTop(top)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}
		return lua.LNil, &ExprError{Expr: x.src, Err: err}
	}
	ret := L.Get(-1)
	L.SetTop(top)
	return ret, nil
}

func callWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Value evaluates the expression and converts the result to Go: nil,
// bool, float64, string or []any for a sequence table.
func (x *Expr) Value(scope Scope) (any, error) {
	v, err := x.eval(scope)
	if err != nil {
		return nil, err
	}
	out, ok := fromLua(v)
	if !ok {
		return nil, &ExprError{Expr: x.src, Err: fmt.Errorf("%w: %s", ErrType, v.Type())}
	}
	return out, nil
}

// Int evaluates a numeric expression, truncating toward zero.
func (x *Expr) Int(scope Scope) (int64, error) {
	f, err := x.Float(scope)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ExprError{Expr: x.src, Err: fmt.Errorf("%w: %v is not an integer", ErrType, f)}
	}
	return int64(f), nil
}

// Float evaluates a numeric expression.
func (x *Expr) Float(scope Scope) (float64, error) {
	v, err := x.eval(scope)
	if err != nil {
		return 0, err
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, &ExprError{Expr: x.src, Err: fmt.Errorf("%w: want number, got %s", ErrType, v.Type())}
	}
	return float64(n), nil
}

// Bool evaluates the expression with Lua truthiness: only nil and false
// are false.
func (x *Expr) Bool(scope Scope) (bool, error) {
	v, err := x.eval(scope)
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(v), nil
}

// scopeTable returns a table whose missing keys are resolved through
// scope and then through fallback.
func scopeTable(L *lua.LState, scope Scope, fallback lua.LValue) *lua.LTable {
	t := L.NewTable()
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		key, ok := L.Get(2).(lua.LString)
		if ok && scope != nil {
			if v, found := scope.Lookup(string(key)); found {
				L.Push(toLua(L, v))
				return 1
			}
		}
		if ok && fallback != lua.LNil {
			L.Push(L.GetField(fallback, string(key)))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))
	L.SetMetatable(t, mt)
	return t
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return v
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []byte:
		return lua.LString(string(v))
	case []any:
		t := L.CreateTable(len(v), 0)
		for i, e := range v {
			t.RawSetInt(i+1, toLua(L, e))
		}
		return t
	case Scope:
		return scopeTable(L, v, lua.LNil)
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

func fromLua(v lua.LValue) (any, bool) {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil, true
	case lua.LBool:
		return bool(v), true
	case lua.LNumber:
		return float64(v), true
	case lua.LString:
		return string(v), true
	case *lua.LTable:
		n := v.Len()
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			e, ok := fromLua(v.RawGetInt(i))
			if !ok {
				return nil, false
			}
			out = append(out, e)
		}
		return out, true
	default:
		return nil, false
	}
}
