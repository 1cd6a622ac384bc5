// Package script evaluates small Lua expressions for declarative schemas.
//
// An Engine wraps a sandboxed gopher-lua state. Only the base, table,
// string and math libraries are opened, and the functions that load code
// from files or strings are removed. Expressions are compiled once with
// Compile and evaluated many times against a Scope:
//
//	eng, err := script.New()
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	expr, err := eng.Compile("count * 2")
//	if err != nil {
//	    return err
//	}
//	n, err := expr.Int(scope)
//
// Global names the expression reads are resolved through the Scope first
// and then through the engine's globals. Numbers cross into Lua as
// float64, so integers above 2^53 lose precision.
//
// An Engine serializes evaluations with a mutex; a single Engine may be
// shared by every expression of a schema.
package script
