package rules

import (
	"fmt"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// UntaggedImage warns on FROM references that float: untagged or :latest
// base images that are not pinned by digest.
type UntaggedImage struct{}

func (UntaggedImage) ID() string { return "UntaggedImage" }

func (UntaggedImage) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	for _, stage := range g.Stages {
		if stage.BaseStage != dockerfile.NoBaseStage {
			continue
		}
		img := stage.BaseImage
		if !img.Parsed || img.Name == "scratch" || img.DigestPinned() {
			continue
		}
		if img.Tag != "" && img.Tag != "latest" {
			continue
		}
		findings = append(findings, dockerfile.Finding{
			RuleID:     "UntaggedImage",
			Severity:   dockerfile.SeverityWarning,
			Line:       stage.From.Line,
			Message:    fmt.Sprintf("base image %q is not pinned to a specific version", img.Full),
			Suggestion: "use an explicit tag or a digest instead of latest",
		})
	}
	return findings
}

// MaintainerDeprecated flags the MAINTAINER instruction, removed in favor of
// LABEL maintainer.
type MaintainerDeprecated struct{}

func (MaintainerDeprecated) ID() string { return "MaintainerDeprecated" }

func (MaintainerDeprecated) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	eachInstruction(g, func(_ int, in dockerfile.Instruction) {
		if in.Kind != dockerfile.KindMaintainer {
			return
		}
		findings = append(findings, dockerfile.Finding{
			RuleID:     "MaintainerDeprecated",
			Severity:   dockerfile.SeverityWarning,
			Line:       in.Line,
			Message:    "MAINTAINER is deprecated",
			Suggestion: "use LABEL maintainer=\"...\" instead",
		})
	})
	return findings
}

// eachInstruction visits every instruction in the graph: first the preamble
// with stage index -1, then each stage's FROM and body in file order.
func eachInstruction(g *dockerfile.StageGraph, fn func(stage int, in dockerfile.Instruction)) {
	for _, in := range g.Preamble {
		fn(-1, in)
	}
	for si := range g.Stages {
		fn(si, g.Stages[si].From)
		for _, in := range g.Stages[si].Instructions {
			fn(si, in)
		}
	}
}

// stageChain returns the indexes of the given stage and every earlier stage
// it transitively builds on, nearest first.
func stageChain(g *dockerfile.StageGraph, idx int) []int {
	var chain []int
	for idx != dockerfile.NoBaseStage {
		chain = append(chain, idx)
		idx = g.Stages[idx].BaseStage
	}
	return chain
}
