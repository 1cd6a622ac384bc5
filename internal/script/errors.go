package script

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed is returned when evaluating on a closed engine.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrTimeout is returned when an evaluation exceeds the engine timeout.
	ErrTimeout = errors.New("lua evaluation timeout")

	// ErrType is returned when a result has the wrong Lua type.
	ErrType = errors.New("unexpected result type")
)

// ExprError reports a failure compiling or evaluating an expression.
type ExprError struct {
	Expr string
	Err  error
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expr, e.Err)
}

func (e *ExprError) Unwrap() error {
	return e.Err
}
