package tools

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/dop251/goja"
	"github.com/m4xw311/sleuth/errors"
)

// arithmeticExpr limits input to numbers, identifiers for the math helpers,
// operators and parentheses.
var arithmeticExpr = regexp.MustCompile(`^[0-9A-Za-z_.,+\-*/%^()\s]+$`)

var (
	identifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	exponent   = regexp.MustCompile(`^[eE][0-9]*$`)
)

// calculatorNames are the only identifiers an expression may reference,
// besides the keys of unaryMath.
var calculatorNames = map[string]bool{"pow": true, "min": true, "max": true, "PI": true, "E": true}

var unaryMath = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
	"ceil":  math.Ceil,
	"floor": math.Floor,
	"round": func(x float64) float64 { return math.Floor(x + 0.5) },
	"trunc": math.Trunc,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"exp":   math.Exp,
	"log":   math.Log,
	"ln":    math.Log,
	"log10": math.Log10,
	"log2":  math.Log2,
}

// CalculatorTool evaluates arithmetic expressions. Unlike search it does not
// mask failures: a bad expression surfaces as *EvaluationError.
type CalculatorTool struct{}

func (t *CalculatorTool) Name() string { return "calculator" }
func (t *CalculatorTool) Description() string {
	return "useful for getting the result of a math expression. The input to this tool should be a valid mathematical expression that could be executed by a simple calculator."
}

func (t *CalculatorTool) Execute(ctx context.Context, input string) (string, error) {
	return Evaluate(ctx, input)
}

// Evaluate computes an arithmetic expression with standard operator
// precedence and returns its decimal representation. "^" is exponentiation.
func Evaluate(ctx context.Context, expression string) (string, error) {
	expr := strings.TrimSpace(expression)
	if !arithmeticExpr.MatchString(expr) {
		return "", &EvaluationError{Expression: expression, Cause: errors.New("not an arithmetic expression")}
	}
	if err := checkIdentifiers(expr); err != nil {
		return "", &EvaluationError{Expression: expression, Cause: err}
	}
	expr = strings.ReplaceAll(expr, "^", "**")

	vm := goja.New()
	for name, fn := range unaryMath {
		vm.Set(name, fn)
	}
	vm.Set("pow", math.Pow)
	vm.Set("min", func(xs ...float64) float64 {
		m := math.Inf(1)
		for _, x := range xs {
			m = math.Min(m, x)
		}
		return m
	})
	vm.Set("max", func(xs ...float64) float64 {
		m := math.Inf(-1)
		for _, x := range xs {
			m = math.Max(m, x)
		}
		return m
	})
	vm.Set("PI", math.Pi)
	vm.Set("E", math.E)

	stop := context.AfterFunc(ctx, func() { vm.Interrupt("calculation cancelled") })
	defer stop()

	v, err := vm.RunString("(" + expr + ")")
	if err != nil {
		return "", &EvaluationError{Expression: expression, Cause: err}
	}
	switch n := v.Export().(type) {
	case int64:
		return v.String(), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", &EvaluationError{Expression: expression, Cause: errors.New("result %s is not finite", v.String())}
		}
		return v.String(), nil
	default:
		return "", &EvaluationError{Expression: expression, Cause: errors.New("result %s is not a number", v.String())}
	}
}

// checkIdentifiers rejects any name that is not a calculator function or
// constant, and any property access. A name directly after a digit is only
// accepted as the exponent of a number literal such as 1e5.
func checkIdentifiers(expr string) error {
	for _, loc := range identifier.FindAllStringIndex(expr, -1) {
		name := expr[loc[0]:loc[1]]
		if loc[0] > 0 {
			prev := expr[loc[0]-1]
			if prev == '.' {
				return errors.New("property access '.%s' is not allowed", name)
			}
			if prev >= '0' && prev <= '9' {
				if exponent.MatchString(name) {
					continue
				}
				return errors.New("malformed number near '%s'", name)
			}
		}
		if _, ok := unaryMath[name]; ok || calculatorNames[name] {
			continue
		}
		return errors.New("unknown name '%s'", name)
	}
	return nil
}
