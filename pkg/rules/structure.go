package rules

import (
	"fmt"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// UnknownInstruction reports keywords the parser did not recognize. These
// are usually typos; Docker itself would reject the file.
type UnknownInstruction struct{}

func (UnknownInstruction) ID() string { return "UnknownInstruction" }

func (UnknownInstruction) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	eachInstruction(g, func(_ int, in dockerfile.Instruction) {
		if in.Kind != dockerfile.KindUnknown {
			return
		}
		findings = append(findings, dockerfile.Finding{
			RuleID:   "UnknownInstruction",
			Severity: dockerfile.SeverityError,
			Line:     in.Line,
			Message:  fmt.Sprintf("unknown instruction %q", in.Keyword),
		})
	})
	return findings
}

// UnusedStage flags named stages that nothing builds on or copies from.
// The final stage is the build product and always counts as used.
type UnusedStage struct{}

func (UnusedStage) ID() string { return "UnusedStage" }

func (UnusedStage) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	if len(g.Stages) == 0 {
		return nil
	}

	used := make(map[int]bool, len(g.Stages))
	used[len(g.Stages)-1] = true
	for si, stage := range g.Stages {
		if stage.BaseStage != dockerfile.NoBaseStage {
			used[stage.BaseStage] = true
		}
		for _, in := range stage.Instructions {
			if in.Transfer == nil || in.Transfer.From == "" {
				continue
			}
			if idx, ok := g.ResolveStageRef(in.Transfer.From, si); ok {
				used[idx] = true
			}
		}
	}

	var findings []dockerfile.Finding
	for _, stage := range g.Stages {
		if stage.Name == "" || used[stage.Index] {
			continue
		}
		findings = append(findings, dockerfile.Finding{
			RuleID:     "UnusedStage",
			Severity:   dockerfile.SeverityWarning,
			Line:       stage.From.Line,
			Message:    fmt.Sprintf("stage %q is never used", stage.Name),
			Suggestion: "remove the stage or reference it with FROM or COPY --from",
		})
	}
	return findings
}
