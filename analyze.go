package pointsto

import (
	"github.com/kalmera/pointsto/ir"
)

type AnalysisConfig struct {
	Module *ir.Module
}

// Analyze extracts the rule codes from the module, runs the inclusion
// fixpoint and returns the finalised points-to relation. The analysis is
// flow- and context-insensitive; one invocation is self-contained and the
// result is read-only.
func Analyze(config AnalysisConfig) Result {
	p := NewProgramStructure(config.Module)
	p.DumpRules()

	sets := ComputePointsToSets(p, PointsToSets{})

	return Result{
		Sets:    sets,
		Program: p,
	}
}
