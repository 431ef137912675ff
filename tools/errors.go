package tools

import "fmt"

// UnknownToolError is returned when a directive names a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool '%s'", e.Name)
}

// ToolExecutionError wraps a failure raised by a tool's Execute.
type ToolExecutionError struct {
	ToolName string
	Cause    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool '%s' failed: %v", e.ToolName, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// EvaluationError is returned by the calculator for an expression it cannot evaluate.
type EvaluationError struct {
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %v", e.Expression, e.Cause)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }
