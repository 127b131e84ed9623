package rules

import (
	"fmt"
	"strings"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// MissingHealthcheck notes a final stage without any HEALTHCHECK in its
// chain. HEALTHCHECK NONE counts as a deliberate choice and is not flagged.
type MissingHealthcheck struct{}

func (MissingHealthcheck) ID() string { return "MissingHealthcheck" }

func (MissingHealthcheck) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	if len(g.Stages) == 0 {
		return nil
	}
	final := len(g.Stages) - 1
	for _, si := range stageChain(g, final) {
		for _, in := range g.Stages[si].Instructions {
			if in.Kind == dockerfile.KindHealthcheck {
				return nil
			}
		}
	}
	if g.Stages[final].BaseImage.Name == "scratch" {
		return nil
	}
	return []dockerfile.Finding{{
		RuleID:     "MissingHealthcheck",
		Severity:   dockerfile.SeverityInfo,
		Line:       g.Stages[final].From.Line,
		Message:    "final stage has no HEALTHCHECK",
		Suggestion: "add a HEALTHCHECK, or HEALTHCHECK NONE to opt out explicitly",
	}}
}

// wellKnownPorts are ports whose purpose needs no explanation next to an
// EXPOSE.
var wellKnownPorts = map[int]bool{
	80: true, 443: true, 8080: true, 8443: true,
	3306: true, 5432: true, 6379: true, 27017: true,
}

// UndocumentedPort asks for a note on EXPOSE ports outside the well-known
// set: a trailing comment on the EXPOSE line documents the port.
type UndocumentedPort struct{}

func (UndocumentedPort) ID() string { return "UndocumentedPort" }

func (UndocumentedPort) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	eachInstruction(g, func(_ int, in dockerfile.Instruction) {
		if in.Kind != dockerfile.KindExpose || in.Comment != "" {
			return
		}
		for _, p := range in.Ports {
			if p.Number == 0 || wellKnownPorts[p.Number] {
				continue
			}
			findings = append(findings, dockerfile.Finding{
				RuleID:     "UndocumentedPort",
				Severity:   dockerfile.SeverityInfo,
				Line:       in.Line,
				Message:    fmt.Sprintf("exposed port %s is not documented", p.Raw),
				Suggestion: "add a trailing comment describing what listens on the port",
			})
		}
	})
	return findings
}

// InvalidPort flags EXPOSE tokens with an out-of-range port number or an
// unknown protocol.
type InvalidPort struct{}

func (InvalidPort) ID() string { return "InvalidPort" }

func (InvalidPort) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	eachInstruction(g, func(_ int, in dockerfile.Instruction) {
		if in.Kind != dockerfile.KindExpose {
			return
		}
		for _, p := range in.Ports {
			var msg string
			switch {
			case p.Number == 0 && !strings.Contains(p.Raw, "$"):
				msg = fmt.Sprintf("EXPOSE %s is not a valid port", p.Raw)
			case p.Number < 0 || p.Number > 65535:
				msg = fmt.Sprintf("EXPOSE %s is outside the valid port range 1-65535", p.Raw)
			case p.Protocol != "" && p.Protocol != "tcp" && p.Protocol != "udp" && p.Protocol != "sctp":
				msg = fmt.Sprintf("EXPOSE %s has unknown protocol %q", p.Raw, p.Protocol)
			default:
				continue
			}
			findings = append(findings, dockerfile.Finding{
				RuleID:   "InvalidPort",
				Severity: dockerfile.SeverityError,
				Line:     in.Line,
				Message:  msg,
			})
		}
	})
	return findings
}
