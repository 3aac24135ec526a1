package tools

import (
	"context"
	"testing"
)

func TestCalculate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		args string
		want string
	}{
		{"addition", "2, +, 3", "2 + 3 = 5"},
		{"subtraction", "10, -, 4.5", "10 - 4.5 = 5.5"},
		{"multiplication", "2.5, *, 4", "2.5 * 4 = 10"},
		{"multiplication keeps full precision", "1.0625, *, 1.0625", "1.0625 * 1.0625 = 1.12890625"},
		{"addition keeps full precision", "1, +, 0.015625", "1 + 0.015625 = 1.015625"},
		{"division exact", "10, /, 4", "10 / 4 = 2.5"},
		{"division rounds half up to 4 places", "10, /, 3", "10 / 3 = 3.3333"},
		{"division rounds up at the boundary", "2, /, 3", "2 / 3 = 0.6667"},
		{"trailing zeros stripped", "1, /, 2", "1 / 2 = 0.5"},
		{"division by zero", "5, /, 0", "error: division by zero"},
		{"unsupported operator", "2, %, 3", `error: unsupported operator "%"`},
		{"malformed arguments", "2, +", `error: expected calculate(a, operator, b), got "2, +"`},
		{"non-numeric operand", "two, +, 3", `error: operands must be numbers, got "two, +, 3"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calculate(ctx, tt.args)
			if err != nil {
				t.Fatalf("calculate(%q) error = %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("calculate(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestCalculateNeverRaisesOnZeroDivisor(t *testing.T) {
	ctx := context.Background()

	for _, args := range []string{"0, /, 0", "-3, /, 0", "1e10, /, 0"} {
		got, err := calculate(ctx, args)
		if err != nil {
			t.Fatalf("calculate(%q) returned error %v, want error string", args, err)
		}
		if got != "error: division by zero" {
			t.Errorf("calculate(%q) = %q", args, got)
		}
	}
}
