package rules

import (
	"fmt"
	"strings"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// MissingNonRootUser warns when the image produced by the final stage runs
// as root: no USER instruction anywhere in the final stage's chain, or the
// last one switches back to root.
type MissingNonRootUser struct{}

func (MissingNonRootUser) ID() string { return "MissingNonRootUser" }

func (MissingNonRootUser) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	if len(g.Stages) == 0 {
		return nil
	}
	final := len(g.Stages) - 1

	// USER is inherited from base stages, so walk the chain nearest first
	// and take the last USER of the nearest stage that has one.
	var lastUser *dockerfile.Instruction
	for _, si := range stageChain(g, final) {
		for i := len(g.Stages[si].Instructions) - 1; i >= 0; i-- {
			in := g.Stages[si].Instructions[i]
			if in.Kind == dockerfile.KindUser {
				lastUser = &in
				break
			}
		}
		if lastUser != nil {
			break
		}
	}

	if lastUser == nil {
		return []dockerfile.Finding{{
			RuleID:     "MissingNonRootUser",
			Severity:   dockerfile.SeverityWarning,
			Line:       g.Stages[final].From.Line,
			Message:    "final stage never sets USER; the container runs as root",
			Suggestion: "create an unprivileged user and add a USER instruction",
		}}
	}
	if u := lastUser.User.User; u == "root" || u == "0" {
		return []dockerfile.Finding{{
			RuleID:     "MissingNonRootUser",
			Severity:   dockerfile.SeverityWarning,
			Line:       lastUser.Line,
			Message:    "last USER in the final stage is root",
			Suggestion: "switch back to an unprivileged user after privileged steps",
		}}
	}
	return nil
}

// SecretInEnv flags ENV and ARG declarations whose key looks like a secret
// or whose value looks like a credential. Baked-in secrets persist in image
// layers even when later unset.
type SecretInEnv struct{}

func (SecretInEnv) ID() string { return "SecretInEnv" }

var secretKeyFragments = []string{
	"password", "passwd", "secret", "token", "apikey", "api_key",
	"access_key", "private_key", "credential",
}

func (SecretInEnv) Check(g *dockerfile.StageGraph) []dockerfile.Finding {
	var findings []dockerfile.Finding
	eachInstruction(g, func(_ int, in dockerfile.Instruction) {
		if in.Kind != dockerfile.KindEnv && in.Kind != dockerfile.KindArg {
			return
		}
		for _, kv := range in.KeyValues {
			if !looksLikeSecret(kv) {
				continue
			}
			findings = append(findings, dockerfile.Finding{
				RuleID:     "SecretInEnv",
				Severity:   dockerfile.SeverityWarning,
				Line:       in.Line,
				Message:    fmt.Sprintf("%s %s looks like a secret", in.Kind, kv.Key),
				Suggestion: "pass secrets at runtime or with RUN --mount=type=secret",
			})
		}
	})
	return findings
}

func looksLikeSecret(kv dockerfile.KeyValue) bool {
	key := strings.ToLower(kv.Key)
	for _, fragment := range secretKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	// AWS access key ids have a fixed prefix.
	return strings.HasPrefix(kv.Value, "AKIA")
}
