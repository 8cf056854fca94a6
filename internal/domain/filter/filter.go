// Package filter compiles optional boolean expressions that narrow the
// candidate freelancers of a query.
//
// Expressions use CEL syntax over a single variable, freelancer, with fields
// id, rate, skills, projects, experience and availability. Examples:
//
//	freelancer.rate <= 40.0
//	"Python" in freelancer.skills && freelancer.availability.contains("week")
package filter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/okian/gigmatch/internal/domain/model"
)

var (
	env     *cel.Env
	envErr  error
	envOnce sync.Once
)

func getEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("freelancer", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return env, envErr
}

// Expr is a compiled expression. A nil *Expr matches everything. Programs are
// safe for concurrent evaluation.
type Expr struct {
	source string
	prg    cel.Program
}

// Compile parses and type-checks src. An empty or blank src yields a nil Expr.
func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}

	e, err := getEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrInvalidExpression, err)
	}
	ast, issues := e.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: expression must be boolean, got %s", ErrInvalidExpression, ast.OutputType())
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}
	return &Expr{source: src, prg: prg}, nil
}

// String returns the source text.
func (x *Expr) String() string {
	if x == nil {
		return ""
	}
	return x.source
}

// Match evaluates the expression for f.
func (x *Expr) Match(f *model.Freelancer) (bool, error) {
	if x == nil {
		return true, nil
	}
	out, _, err := x.prg.Eval(map[string]any{"freelancer": activation(f)})
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrEvaluation, f.ID, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s: non-boolean result %T", ErrEvaluation, f.ID, out.Value())
	}
	return b, nil
}

func activation(f *model.Freelancer) map[string]any {
	return map[string]any{
		"id":           f.ID,
		"rate":         f.HourlyRate,
		"skills":       f.Skills,
		"projects":     f.CompletedProjects,
		"experience":   f.Experience,
		"availability": f.Availability,
	}
}
