package tools

import (
	"context"
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	testCases := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"10 / 4", "2.5"},
		{"7 % 3", "1"},
		{"-3 + 1", "-2"},
		{"sqrt(16)", "4"},
		{"abs(-2.5)", "2.5"},
		{"round(2.5)", "3"},
		{"max(1, 7, 3)", "7"},
		{"min(4, 2)", "2"},
		{"pow(2, 10)", "1024"},
		{"floor(PI)", "3"},
		{" 1.5 * 2 ", "3"},
		{"1e3 + 2.5E1", "1025"},
		{"abs(-1e2)", "100"},
		{"2 ^ 3", "8"},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Evaluate(context.Background(), tc.expr)
			if err != nil {
				t.Fatalf("Evaluate(%q) failed: %v", tc.expr, err)
			}
			if got != tc.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	for _, expr := range []string{
		"not-an-expression",
		"",
		"2 +",
		"sqrt",
		`"quoted"`,
		"x = 5",
		"[1, 2]",
		"1 / 0",
		"Function(String(1))()",
		"(1).constructor.constructor(1)",
		"this",
		"sqrt.call(1, 4)",
		"0x1F",
		"while(1)",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(context.Background(), expr)
			var ee *EvaluationError
			if !errors.As(err, &ee) {
				t.Fatalf("expected EvaluationError for %q, got %v", expr, err)
			}
			if ee.Expression != expr {
				t.Errorf("expected expression %q, got %q", expr, ee.Expression)
			}
		})
	}
}

func TestCalculatorErrorPropagatesThroughRegistry(t *testing.T) {
	r := NewToolRegistry()
	if err := r.Register(&CalculatorTool{}); err != nil {
		t.Fatal(err)
	}

	_, err := r.Invoke(context.Background(), "calculator", "not-an-expression")
	var tee *ToolExecutionError
	if !errors.As(err, &tee) {
		t.Fatalf("expected ToolExecutionError, got %v", err)
	}
	var ee *EvaluationError
	if !errors.As(err, &ee) {
		t.Fatalf("expected wrapped EvaluationError, got %v", err)
	}
}
