package dockerfile

import (
	"strconv"
	"strings"
)

// NoBaseStage marks a stage whose base is an external image rather than a
// previous stage.
const NoBaseStage = -1

// Stage is one build stage: a FROM instruction and everything up to the next
// FROM. Stages reference each other by index, never by pointer, so the graph
// is trivially safe to share across goroutines.
type Stage struct {
	// Index is the position of the stage in build order, starting at 0.
	Index int `json:"index"`

	// Name is the AS alias, empty for unnamed stages.
	Name string `json:"name,omitempty"`

	// BaseImage is the stage's base reference as written.
	BaseImage ImageRef `json:"base_image"`

	// BaseStage is the index of the earlier stage this one builds on, or
	// NoBaseStage when the base is an external image.
	BaseStage int `json:"base_stage"`

	// From is the FROM instruction that opened the stage.
	From Instruction `json:"from"`

	// Instructions holds the stage body, excluding the FROM itself.
	Instructions []Instruction `json:"instructions"`
}

// StageGraph is the stage-resolved view of a Dockerfile.
type StageGraph struct {
	// Preamble holds instructions before the first FROM. Only ARG is legal
	// there; anything else is reported as a finding.
	Preamble []Instruction `json:"preamble,omitempty"`

	// Stages lists the build stages in file order.
	Stages []Stage `json:"stages"`

	names map[string]int
}

// BuildStageGraph groups instructions into stages and resolves inter-stage
// references. Structural problems such as duplicate stage names or an
// unresolvable --from target are returned as findings, not errors; the graph
// is always usable.
func BuildStageGraph(instructions []Instruction) (*StageGraph, []Finding) {
	g := &StageGraph{names: make(map[string]int)}
	var findings []Finding

	for _, in := range instructions {
		if in.Kind != KindFrom {
			if len(g.Stages) == 0 {
				g.Preamble = append(g.Preamble, in)
				if in.Kind != KindArg {
					findings = append(findings, Finding{
						RuleID:   RuleInstructionBeforeFrom,
						Severity: SeverityError,
						Line:     in.Line,
						Message:  in.Keyword + " before the first FROM; only ARG may precede FROM",
					})
				}
				continue
			}
			last := &g.Stages[len(g.Stages)-1]
			last.Instructions = append(last.Instructions, in)
			continue
		}

		stage := Stage{
			Index:     len(g.Stages),
			BaseStage: NoBaseStage,
			From:      in,
		}
		if in.From != nil {
			stage.Name = in.From.Alias
			stage.BaseImage = in.From.Image
			// A base resolves to an earlier stage by name only. Numeric
			// indexes are a --from extension; a bare FROM 0 names an image.
			if idx, ok := g.names[strings.ToLower(in.From.Image.Full)]; ok {
				stage.BaseStage = idx
			}
		}
		if stage.Name != "" {
			key := strings.ToLower(stage.Name)
			if _, dup := g.names[key]; dup {
				findings = append(findings, Finding{
					RuleID:   RuleDuplicateStageName,
					Severity: SeverityError,
					Line:     in.Line,
					Message:  "stage name " + strconv.Quote(stage.Name) + " is already in use",
				})
			} else {
				g.names[key] = stage.Index
			}
		}
		if in.From != nil && stage.BaseImage.Full == "" {
			findings = append(findings, Finding{
				RuleID:   RuleMissingBaseImage,
				Severity: SeverityError,
				Line:     in.Line,
				Message:  "FROM has no base image",
			})
		}
		g.Stages = append(g.Stages, stage)
	}

	if len(g.Stages) == 0 {
		findings = append(findings, Finding{
			RuleID:   RuleMissingBaseImage,
			Severity: SeverityError,
			Message:  "no FROM instruction found",
		})
	}

	findings = append(findings, g.checkStageRefs()...)
	return g, findings
}

// ResolveStageRef resolves a COPY/ADD --from value against the stages
// declared before the given index. References are matched by name first,
// case-insensitively, then as a numeric stage index. Forward and
// self references do not resolve.
func (g *StageGraph) ResolveStageRef(ref string, before int) (int, bool) {
	if ref == "" {
		return 0, false
	}
	if idx, ok := g.names[strings.ToLower(ref)]; ok && idx < before {
		return idx, true
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 0 && n < before {
		return n, true
	}
	return 0, false
}

// StageByName returns the stage with the given name, case-insensitively.
func (g *StageGraph) StageByName(name string) (*Stage, bool) {
	idx, ok := g.names[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &g.Stages[idx], true
}

// checkStageRefs verifies every COPY --from and ADD --from that names a
// stage. Values that parse as an external image reference or contain a
// variable are left alone; only plain identifiers that match no stage are
// reported.
func (g *StageGraph) checkStageRefs() []Finding {
	var findings []Finding
	for si := range g.Stages {
		for _, in := range g.Stages[si].Instructions {
			if in.Transfer == nil || in.Transfer.From == "" {
				continue
			}
			ref := in.Transfer.From
			if _, ok := g.ResolveStageRef(ref, si); ok {
				continue
			}
			if strings.ContainsAny(ref, "$/:@.") {
				// An external image or variable reference, not a stage name.
				continue
			}
			findings = append(findings, Finding{
				RuleID:   RuleUnresolvedStageRef,
				Severity: SeverityError,
				Line:     in.Line,
				Message:  "--from=" + ref + " does not match any earlier stage",
			})
		}
	}
	return findings
}
