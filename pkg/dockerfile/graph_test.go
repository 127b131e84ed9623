package dockerfile

import (
	"testing"
)

func buildGraph(t *testing.T, text string) (*StageGraph, []Finding) {
	t.Helper()
	instructions, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return BuildStageGraph(instructions)
}

func findingIDs(findings []Finding) []string {
	ids := make([]string, len(findings))
	for i, f := range findings {
		ids[i] = f.RuleID
	}
	return ids
}

func TestBuildStageGraphMultistage(t *testing.T) {
	g, findings := buildGraph(t, `FROM golang:1.22 AS builder
RUN go build -o /out/app ./...

FROM builder AS tester
RUN go test ./...

FROM alpine:3.18
COPY --from=builder /out/app /usr/local/bin/app
COPY --from=0 /out/app /opt/app
`)
	if len(findings) != 0 {
		t.Fatalf("unexpected findings: %v", findingIDs(findings))
	}
	if len(g.Stages) != 3 {
		t.Fatalf("len(Stages) = %d, want 3", len(g.Stages))
	}

	if g.Stages[0].Name != "builder" || g.Stages[0].BaseStage != NoBaseStage {
		t.Errorf("stage 0 = %+v", g.Stages[0])
	}
	if g.Stages[1].BaseStage != 0 {
		t.Errorf("stage 1 BaseStage = %d, want 0", g.Stages[1].BaseStage)
	}
	if g.Stages[2].BaseStage != NoBaseStage {
		t.Errorf("stage 2 BaseStage = %d, want none", g.Stages[2].BaseStage)
	}
	if len(g.Stages[2].Instructions) != 2 {
		t.Errorf("stage 2 instructions = %d, want 2", len(g.Stages[2].Instructions))
	}

	if s, ok := g.StageByName("BUILDER"); !ok || s.Index != 0 {
		t.Errorf("StageByName(BUILDER) = %v, %v", s, ok)
	}
}

func TestBuildStageGraphPreamble(t *testing.T) {
	g, findings := buildGraph(t, `ARG GO_VERSION=1.22
RUN echo too-early
FROM golang:${GO_VERSION}
`)
	if len(g.Preamble) != 2 {
		t.Fatalf("len(Preamble) = %d, want 2", len(g.Preamble))
	}
	if len(findings) != 1 || findings[0].RuleID != RuleInstructionBeforeFrom {
		t.Fatalf("findings = %v, want one InstructionBeforeFrom", findingIDs(findings))
	}
	if findings[0].Line != 2 {
		t.Errorf("finding line = %d, want 2", findings[0].Line)
	}
}

func TestBuildStageGraphDuplicateName(t *testing.T) {
	g, findings := buildGraph(t, `FROM alpine AS app
FROM busybox AS App
`)
	if len(findings) != 1 || findings[0].RuleID != RuleDuplicateStageName {
		t.Fatalf("findings = %v, want one DuplicateStageName", findingIDs(findings))
	}
	// First declaration keeps the name.
	if s, ok := g.StageByName("app"); !ok || s.Index != 0 {
		t.Errorf("StageByName(app) = %v, %v", s, ok)
	}
}

func TestBuildStageGraphUnresolvedCopyFrom(t *testing.T) {
	_, findings := buildGraph(t, `FROM alpine
COPY --from=missing /a /b
COPY --from=nginx:latest /etc/nginx /etc/nginx
COPY --from=$STAGE /a /b
`)
	if len(findings) != 1 || findings[0].RuleID != RuleUnresolvedStageRef {
		t.Fatalf("findings = %v, want one UnresolvedStageReference", findingIDs(findings))
	}
	if findings[0].Line != 2 {
		t.Errorf("finding line = %d, want 2", findings[0].Line)
	}
}

func TestBuildStageGraphSelfReference(t *testing.T) {
	_, findings := buildGraph(t, `FROM alpine AS only
COPY --from=only /a /b
`)
	if len(findings) != 1 || findings[0].RuleID != RuleUnresolvedStageRef {
		t.Fatalf("findings = %v, want one UnresolvedStageReference", findingIDs(findings))
	}
}

func TestBuildStageGraphNumericBaseIsImage(t *testing.T) {
	g, findings := buildGraph(t, `FROM alpine:3.18 AS base
FROM 0
`)
	if len(findings) != 0 {
		t.Fatalf("unexpected findings: %v", findingIDs(findings))
	}
	// Only --from accepts numeric stage indexes; a bare FROM 0 names an
	// image called "0".
	if g.Stages[1].BaseStage != NoBaseStage {
		t.Errorf("stage 1 BaseStage = %d, want none", g.Stages[1].BaseStage)
	}
	if g.Stages[1].BaseImage.Full != "0" {
		t.Errorf("stage 1 BaseImage = %q, want 0", g.Stages[1].BaseImage.Full)
	}
}

func TestResolveStageRef(t *testing.T) {
	g, _ := buildGraph(t, `FROM alpine AS base
FROM busybox AS extra
`)
	tests := []struct {
		ref    string
		before int
		want   int
		ok     bool
	}{
		{"base", 2, 0, true},
		{"BASE", 2, 0, true},
		{"0", 2, 0, true},
		{"1", 1, 0, false}, // forward reference
		{"2", 2, 0, false},
		{"missing", 2, 0, false},
		{"", 2, 0, false},
	}
	for _, tt := range tests {
		got, ok := g.ResolveStageRef(tt.ref, tt.before)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ResolveStageRef(%q, %d) = %d, %v; want %d, %v",
				tt.ref, tt.before, got, ok, tt.want, tt.ok)
		}
	}
}
