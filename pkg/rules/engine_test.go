package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

type panickingRule struct{}

func (panickingRule) ID() string { return "Panicking" }

func (panickingRule) Check(*dockerfile.StageGraph) []dockerfile.Finding {
	panic("boom")
}

type fixedRule struct {
	id string
}

func (r fixedRule) ID() string { return r.id }

func (r fixedRule) Check(*dockerfile.StageGraph) []dockerfile.Finding {
	return []dockerfile.Finding{{RuleID: r.id, Severity: dockerfile.SeverityInfo, Line: 1, Message: "hit"}}
}

func TestEngineRunsAllRules(t *testing.T) {
	g := graphFor(t, "FROM alpine:3.18\n")
	e := NewEngine([]Rule{fixedRule{"A"}, fixedRule{"B"}, fixedRule{"C"}})

	findings := e.Run(context.Background(), g)
	require.Len(t, findings, 3)

	ids := map[string]bool{}
	for _, f := range findings {
		ids[f.RuleID] = true
	}
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": true}, ids)
}

func TestEngineIsolatesPanickingRule(t *testing.T) {
	g := graphFor(t, "FROM alpine:3.18\n")
	e := NewEngine([]Rule{panickingRule{}, fixedRule{"Survivor"}})

	findings := e.Run(context.Background(), g)
	require.Len(t, findings, 2)

	var crash, survivor bool
	for _, f := range findings {
		switch f.RuleID {
		case "Panicking":
			crash = true
			assert.Equal(t, dockerfile.SeverityError, f.Severity)
			assert.Contains(t, f.Message, "boom")
		case "Survivor":
			survivor = true
		}
	}
	assert.True(t, crash, "panicking rule should be reported")
	assert.True(t, survivor, "other rules should still run")
}

func TestEngineDefaultRuleSet(t *testing.T) {
	e := NewEngine(nil, WithConcurrency(2))
	g := graphFor(t, `FROM alpine
ADD app.py dest/
ENV API_TOKEN=abc
MAINTAINER someone
`)

	findings := e.Run(context.Background(), g)

	ids := map[string]bool{}
	for _, f := range findings {
		ids[f.RuleID] = true
	}
	for _, want := range []string{
		"UntaggedImage", "AddInsteadOfCopy", "WorkdirBeforeRelativeCopy",
		"SecretInEnv", "MaintainerDeprecated", "MissingNonRootUser",
		"MissingHealthcheck",
	} {
		assert.True(t, ids[want], "missing finding from %s", want)
	}
}

func TestDefaultRuleIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range DefaultRules() {
		require.False(t, seen[r.ID()], "duplicate rule id %s", r.ID())
		seen[r.ID()] = true
	}
}
