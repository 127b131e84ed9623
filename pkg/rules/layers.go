package rules

import (
	"fmt"
	"strings"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// ConsecutiveRunInstructions suggests merging adjacent RUN instructions,
// each of which creates its own image layer.
type ConsecutiveRunInstructions struct{}

func (ConsecutiveRunInstructions) ID() string { return "ConsecutiveRunInstructions" }

func (ConsecutiveRunInstructions) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	for _, stage := range g.Stages {
		runLen := 0
		firstLine := 0
		flush := func() {
			if runLen >= 2 {
				findings = append(findings, dockerfile.Finding{
					RuleID:     "ConsecutiveRunInstructions",
					Severity:   dockerfile.SeverityInfo,
					Line:       firstLine,
					Message:    fmt.Sprintf("%d consecutive RUN instructions create %d layers", runLen, runLen),
					Suggestion: "combine them into a single RUN joined with &&",
				})
			}
			runLen = 0
		}
		for _, in := range stage.Instructions {
			if in.Kind == dockerfile.KindRun {
				if runLen == 0 {
					firstLine = in.Line
				}
				runLen++
				continue
			}
			flush()
		}
		flush()
	}
	return findings
}

// WorkdirBeforeRelativeCopy flags COPY and ADD instructions with a relative
// destination in a stage that has not set a WORKDIR yet, where the effective
// target directory is whatever the base image happens to use.
type WorkdirBeforeRelativeCopy struct{}

func (WorkdirBeforeRelativeCopy) ID() string { return "WorkdirBeforeRelativeCopy" }

func (WorkdirBeforeRelativeCopy) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	for _, stage := range g.Stages {
		seenWorkdir := false
		for _, in := range stage.Instructions {
			switch in.Kind {
			case dockerfile.KindWorkdir:
				seenWorkdir = true
			case dockerfile.KindCopy, dockerfile.KindAdd:
				if seenWorkdir || in.Transfer == nil {
					continue
				}
				dest := in.Transfer.Destination
				if isAbsolutePath(dest) || strings.Contains(dest, "$") {
					continue
				}
				findings = append(findings, dockerfile.Finding{
					RuleID:     "WorkdirBeforeRelativeCopy",
					Severity:   dockerfile.SeverityWarning,
					Line:       in.Line,
					Message:    fmt.Sprintf("%s to relative destination %q without a preceding WORKDIR", in.Kind, dest),
					Suggestion: "set WORKDIR first or use an absolute destination",
				})
			}
		}
	}
	return findings
}

// AddInsteadOfCopy flags ADD used for plain file copying. ADD's extra
// behaviors, remote URLs and tar extraction, do not apply there and COPY is
// the safer instruction.
type AddInsteadOfCopy struct{}

func (AddInsteadOfCopy) ID() string { return "AddInsteadOfCopy" }

func (AddInsteadOfCopy) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	eachInstruction(g, func(_ int, in dockerfile.Instruction) {
		if in.Kind != dockerfile.KindAdd || in.Transfer == nil {
			return
		}
		for _, src := range in.Transfer.Sources {
			if isRemoteURL(src) || isArchive(src) {
				return
			}
		}
		findings = append(findings, dockerfile.Finding{
			RuleID:     "AddInsteadOfCopy",
			Severity:   dockerfile.SeverityWarning,
			Line:       in.Line,
			Message:    "ADD used for a plain file copy",
			Suggestion: "use COPY; ADD is only needed for remote URLs and tar extraction",
		})
	})
	return findings
}

// RootRelativeWorkdir flags WORKDIR paths that are not absolute. A relative
// WORKDIR resolves against the previous one and breaks silently when the
// surrounding instructions are reordered.
type RootRelativeWorkdir struct{}

func (RootRelativeWorkdir) ID() string { return "RootRelativeWorkdir" }

func (RootRelativeWorkdir) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	eachInstruction(g, func(_ int, in dockerfile.Instruction) {
		if in.Kind != dockerfile.KindWorkdir {
			return
		}
		if isAbsolutePath(in.Workdir) || strings.HasPrefix(in.Workdir, "$") {
			return
		}
		findings = append(findings, dockerfile.Finding{
			RuleID:     "RootRelativeWorkdir",
			Severity:   dockerfile.SeverityWarning,
			Line:       in.Line,
			Message:    fmt.Sprintf("WORKDIR %q is not absolute", in.Workdir),
			Suggestion: "use an absolute path for WORKDIR",
		})
	})
	return findings
}

func isAbsolutePath(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	// Windows drive letter, e.g. C:\app.
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

func isRemoteURL(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "git@") ||
		strings.HasPrefix(src, "git://")
}

var archiveSuffixes = []string{
	".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".txz",
}

func isArchive(src string) bool {
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(src, suffix) {
			return true
		}
	}
	return false
}
