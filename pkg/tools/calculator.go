package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Calculator returns the arithmetic tool definition. It covers the four
// basic operators; the model is instructed to call it for any precise
// computation rather than computing inline.
func Calculator() Definition {
	return Definition{
		Name:        "calculate",
		Description: "performs basic arithmetic: add, subtract, multiply, divide",
		Params: []Param{
			{Name: "a", Type: "number", Description: "left operand"},
			{Name: "operator", Type: "string", Description: "one of + - * /"},
			{Name: "b", Type: "number", Description: "right operand"},
		},
		Exec: calculate,
	}
}

func calculate(_ context.Context, args string) (string, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 3 {
		return fmt.Sprintf("error: expected calculate(a, operator, b), got %q", args), nil
	}

	a, errA := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	op := strings.TrimSpace(parts[1])
	b, errB := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if errA != nil || errB != nil {
		return fmt.Sprintf("error: operands must be numbers, got %q", args), nil
	}

	var result float64
	switch op {
	case "+":
		result = a + b
	case "-":
		result = a - b
	case "*":
		result = a * b
	case "/":
		if b == 0 {
			return "error: division by zero", nil
		}
		// Divisions are rounded to 4 decimal places, half up.
		result = roundHalfUp(a/b, 4)
	default:
		return fmt.Sprintf("error: unsupported operator %q", op), nil
	}

	return fmt.Sprintf("%s %s %s = %s", formatNumber(a), op, formatNumber(b), formatNumber(result)), nil
}

// roundHalfUp rounds to the given number of decimal places, halves away
// from zero.
func roundHalfUp(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	if v < 0 {
		return -math.Floor(-v*shift+0.5) / shift
	}
	return math.Floor(v*shift+0.5) / shift
}

// formatNumber renders a number at full precision. Only division results are
// rounded, and that happens before formatting.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
