package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	echo := func(_ context.Context, args string) (string, error) { return args, nil }

	_, err := NewRegistry(
		Definition{Name: "echo", Exec: echo},
		Definition{Name: "echo", Exec: echo},
	)
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestDispatchMatchesPrefix(t *testing.T) {
	reg, err := NewRegistry(Definition{
		Name: "echo",
		Exec: func(_ context.Context, args string) (string, error) { return "got: " + args, nil },
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	obs := reg.Dispatch(context.Background(), "echo(hello, world)")
	if obs != "got: hello, world" {
		t.Errorf("Dispatch = %q", obs)
	}
}

func TestDispatchDisambiguatesSharedNamePrefix(t *testing.T) {
	reg, err := NewRegistry(
		Definition{
			Name: "calc",
			Exec: func(_ context.Context, args string) (string, error) { return "short: " + args, nil },
		},
		Definition{
			Name: "calcDate",
			Exec: func(_ context.Context, args string) (string, error) { return "long: " + args, nil },
		},
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	// The longer name registered second must still win its own calls.
	if obs := reg.Dispatch(context.Background(), "calcDate(5)"); obs != "long: 5" {
		t.Errorf("Dispatch(calcDate) = %q", obs)
	}
	if obs := reg.Dispatch(context.Background(), "calc(1, +, 2)"); obs != "short: 1, +, 2" {
		t.Errorf("Dispatch(calc) = %q", obs)
	}
}

func TestDispatchDateToolNotCapturedByCalculator(t *testing.T) {
	// Production registration order: the calculator first, then the clock
	// tools, including calculateDate.
	defs := []Definition{Calculator()}
	defs = append(defs, ClockTools(fixedNow)...)
	reg, err := NewRegistry(defs...)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	obs := reg.Dispatch(context.Background(), "calculateDate(5)")
	if strings.Contains(obs, "expected calculate(") {
		t.Fatalf("calculator captured the date tool call: %q", obs)
	}
	if !strings.Contains(obs, "2024-02-19") {
		t.Errorf("Dispatch(calculateDate) = %q, want the offset date", obs)
	}

	if obs := reg.Dispatch(context.Background(), "calculate(2, +, 3)"); obs != "2 + 3 = 5" {
		t.Errorf("Dispatch(calculate) = %q", obs)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	reg, _ := NewRegistry(Definition{
		Name: "echo",
		Exec: func(_ context.Context, args string) (string, error) { return args, nil },
	})

	obs := reg.Dispatch(context.Background(), "launchRockets(now)")
	if !strings.HasPrefix(obs, "tool not found") {
		t.Errorf("Dispatch = %q, want tool-not-found observation", obs)
	}
}

func TestDispatchConvertsErrors(t *testing.T) {
	reg, _ := NewRegistry(Definition{
		Name: "broken",
		Exec: func(_ context.Context, _ string) (string, error) { return "", errors.New("boom") },
	})

	obs := reg.Dispatch(context.Background(), "broken()")
	if !strings.Contains(obs, "tool execution failed") || !strings.Contains(obs, "boom") {
		t.Errorf("Dispatch = %q", obs)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	reg, _ := NewRegistry(Definition{
		Name: "panicky",
		Exec: func(_ context.Context, _ string) (string, error) { panic("kaboom") },
	})

	obs := reg.Dispatch(context.Background(), "panicky()")
	if !strings.Contains(obs, "tool execution failed") {
		t.Errorf("Dispatch = %q, want recovered observation", obs)
	}
}

func TestRosterListsEveryTool(t *testing.T) {
	reg, _ := NewRegistry(
		Calculator(),
		Definition{Name: "custom", Description: "does a thing", Exec: func(_ context.Context, _ string) (string, error) { return "", nil }},
	)

	roster := reg.Roster()
	if !strings.Contains(roster, "calculate(a, operator, b)") {
		t.Errorf("roster missing calculator: %q", roster)
	}
	if !strings.Contains(roster, "custom()") {
		t.Errorf("roster missing custom tool: %q", roster)
	}
}
