package transpiler

import (
	"log/slog"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/target"
)

// Env is what a pass may read besides its input circuit. Target and
// Registry are shared read-only; Props belongs to the current run.
type Env struct {
	Target   *target.Target
	Registry *gates.Registry
	Props    *PropertySet
	Logger   *slog.Logger
}

// Pass is one step of a transpilation pipeline.
//
// Run must not modify c; it returns the circuit handed to the next pass,
// which may be c itself when nothing changes. Running a pass on its own
// output changes nothing.
type Pass interface {
	Name() string
	Run(c *ir.Circuit, env *Env) (*ir.Circuit, error)
}

// AnalysisFunc adapts a function that only writes properties into a Pass.
type AnalysisFunc struct {
	Label string
	Fn    func(c *ir.Circuit, env *Env) error
}

// Name implements Pass.
func (a AnalysisFunc) Name() string { return a.Label }

// Run implements Pass.
func (a AnalysisFunc) Run(c *ir.Circuit, env *Env) (*ir.Circuit, error) {
	if err := a.Fn(c, env); err != nil {
		return nil, err
	}
	return c, nil
}

// CountOpsPass records size, depth and per-operation counts.
func CountOpsPass() Pass {
	return AnalysisFunc{Label: "CountOps", Fn: func(c *ir.Circuit, env *Env) error {
		env.Props.Set(KeySize, c.Len())
		env.Props.Set(KeyDepth, c.Depth())
		env.Props.Set(KeyCountOps, c.CountOps())
		return nil
	}}
}

// isDirective reports whether name is a directive in the registry.
func isDirective(reg *gates.Registry, name string) bool {
	def, err := reg.Lookup(name)
	return err == nil && def.Directive
}
