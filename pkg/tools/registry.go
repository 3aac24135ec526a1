// Package tools provides the tool registry and dispatcher used by the
// reasoning loop, plus the builtin calculator, clock, and weather tools.
//
// Dispatch never fails past its boundary: every tool error, panic, or
// unparseable action expression is converted to a human-readable observation
// string so the loop always has something to append.
package tools

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Param describes one declared tool parameter.
type Param struct {
	Name        string
	Type        string
	Description string
}

// Executor runs a tool against the raw parenthesized argument text of an
// action expression. Each tool parses its own arguments; the registry does
// not enforce a shared argument grammar.
type Executor func(ctx context.Context, args string) (string, error)

// Definition declares a dispatchable tool.
type Definition struct {
	// Name is the unique tool name matched as a literal prefix of action
	// expressions, ending at a call boundary.
	Name string
	// Description is shown to the model in the system prompt.
	Description string
	// Params are the declared parameters, in call order.
	Params []Param
	// Exec runs the tool.
	Exec Executor
}

// Registry is an immutable name-to-tool mapping built once at process start
// and passed by reference into the loop controller.
type Registry struct {
	byName map[string]Definition
	order  []string
}

// NewRegistry builds a registry from the given definitions. Names must be
// unique and executors non-nil.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{byName: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("tools: definition with empty name")
		}
		if def.Exec == nil {
			return nil, fmt.Errorf("tools: %s has no executor", def.Name)
		}
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("tools: duplicate tool name %q", def.Name)
		}
		r.byName[def.Name] = def
		r.order = append(r.order, def.Name)
	}
	return r, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Roster renders one line per tool for the system prompt, e.g.
// "- calculate(a, operator, b): performs basic arithmetic".
func (r *Registry) Roster() string {
	var b strings.Builder
	for _, name := range r.order {
		def := r.byName[name]
		params := make([]string, len(def.Params))
		for i, p := range def.Params {
			params[i] = p.Name
		}
		fmt.Fprintf(&b, "- %s(%s): %s\n", name, strings.Join(params, ", "), def.Description)
	}
	return b.String()
}

// Dispatch executes the action expression against the matching tool and
// returns the observation text. It never panics or returns an error: any
// failure becomes the observation.
func (r *Registry) Dispatch(ctx context.Context, actionExpr string) (observation string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("tool panic recovered: %v", rec)
			observation = fmt.Sprintf("tool execution failed: %v", rec)
		}
	}()

	expr := strings.TrimSpace(actionExpr)
	if expr == "" {
		return "tool not found: empty action"
	}

	for _, name := range r.order {
		if !matchesName(expr, name) {
			continue
		}
		result, err := r.byName[name].Exec(ctx, extractArgs(expr, name))
		if err != nil {
			return fmt.Sprintf("tool execution failed: %v", err)
		}
		return result
	}

	return fmt.Sprintf("tool not found: %s", expr)
}

// matchesName reports whether the action expression invokes the named tool.
// The name must be a literal prefix ending at a call boundary, so a shorter
// name never captures a longer one that shares its prefix.
func matchesName(expr, name string) bool {
	if !strings.HasPrefix(expr, name) {
		return false
	}
	if len(expr) == len(name) {
		return true
	}
	switch expr[len(name)] {
	case '(', ' ', '\t':
		return true
	}
	return false
}

// extractArgs returns the text between the outer parentheses of the action
// expression, or the remainder after the tool name when no parentheses are
// present.
func extractArgs(expr, name string) string {
	rest := expr[len(name):]
	open := strings.Index(rest, "(")
	if open < 0 {
		return strings.TrimSpace(rest)
	}
	close := strings.LastIndex(rest, ")")
	if close <= open {
		return strings.TrimSpace(rest[open+1:])
	}
	return strings.TrimSpace(rest[open+1 : close])
}
