package lifecycle

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/security"
)

// GuardRule is an extra condition on entering a state, written in CEL.
// Variables: record.{kind,status,owner_id,total_value,priority} and actor.{id,role}.
type GuardRule struct {
	Name   string `yaml:"name" json:"name"`
	Kind   string `yaml:"kind" json:"kind"` // empty matches every kind
	Target string `yaml:"target" json:"target"`
	Expr   string `yaml:"expr" json:"expr"`
}

type compiledGuard struct {
	rule GuardRule
	prg  cel.Program
}

// GuardSet holds compiled rules. The zero value has no rules.
type GuardSet struct {
	guards []compiledGuard
}

// CompileGuards type-checks every rule. A rule that does not produce a bool is rejected.
func CompileGuards(rules []GuardRule) (*GuardSet, error) {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("actor", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	set := &GuardSet{}
	for _, r := range rules {
		if !entity.Status(r.Target).Valid() {
			return nil, fmt.Errorf("guard %q: unknown target state %q", r.Name, r.Target)
		}
		ast, iss := env.Compile(r.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("guard %q: %w", r.Name, iss.Err())
		}
		if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("guard %q: expression must be bool, got %s", r.Name, t)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("guard %q: %w", r.Name, err)
		}
		set.guards = append(set.guards, compiledGuard{rule: r, prg: prg})
	}
	return set, nil
}

// Len returns the number of compiled rules.
func (g *GuardSet) Len() int {
	if g == nil {
		return 0
	}
	return len(g.guards)
}

// Check evaluates the rules matching (kind, target). It returns the name of
// the first rule that rejects the move, or "" when all pass.
func (g *GuardSet) Check(kind Kind, target entity.Status, rec Record, actor security.Actor) (string, error) {
	if g == nil {
		return "", nil
	}
	var vars map[string]any
	for _, cg := range g.guards {
		if cg.rule.Target != string(target) || (cg.rule.Kind != "" && cg.rule.Kind != string(kind)) {
			continue
		}
		if vars == nil {
			vars = guardVars(kind, rec, actor)
		}
		out, _, err := cg.prg.Eval(vars)
		if err != nil {
			return cg.rule.Name, fmt.Errorf("evaluate guard %q: %w", cg.rule.Name, err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return cg.rule.Name, fmt.Errorf("guard %q returned %T", cg.rule.Name, out.Value())
		}
		if !ok {
			return cg.rule.Name, nil
		}
	}
	return "", nil
}

func guardVars(kind Kind, rec Record, actor security.Actor) map[string]any {
	h := rec.Header()
	total, _ := rec.TotalValue().Float64()
	return map[string]any{
		"record": map[string]any{
			"kind":        string(kind),
			"status":      string(h.Status),
			"owner_id":    h.CreatedBy.String(),
			"total_value": total,
			"priority":    string(entity.PriorityFor(rec.TotalValue())),
		},
		"actor": map[string]any{
			"id":   actor.ID.String(),
			"role": string(actor.Role),
		},
	}
}
