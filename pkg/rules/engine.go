// Package rules implements the lint rules run against a parsed Dockerfile
// stage graph. Every rule is a pure function of the graph: rules never
// mutate it, never observe each other, and may therefore run concurrently.
package rules

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// Rule is one lint check. Check receives a shared read-only graph and
// returns its findings in any order; the reporter sorts them later.
type Rule interface {
	ID() string
	Check(g *dockerfile.StageGraph) []dockerfile.Finding
}

// DefaultRules returns the full built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		UntaggedImage{},
		ConsecutiveRunInstructions{},
		WorkdirBeforeRelativeCopy{},
		AddInsteadOfCopy{},
		MissingNonRootUser{},
		SecretInEnv{},
		MissingHealthcheck{},
		UndocumentedPort{},
		UnknownInstruction{},
		UnusedStage{},
		InvalidPort{},
		MaintainerDeprecated{},
		RootRelativeWorkdir{},
	}
}

// Engine runs a set of rules against a stage graph.
type Engine struct {
	rules       []Rule
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency caps the number of rules evaluated in parallel.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine builds an engine for the given rules. With no rules it runs
// DefaultRules.
func NewEngine(ruleSet []Rule, opts ...Option) *Engine {
	if ruleSet == nil {
		ruleSet = DefaultRules()
	}
	e := &Engine{
		rules:       ruleSet,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates every rule and collects the findings. A rule that panics is
// isolated: its failure becomes a single error-severity finding carrying the
// rule's own id, and the remaining rules still complete.
func (e *Engine) Run(ctx context.Context, g *dockerfile.StageGraph) []dockerfile.Finding {
	var (
		mu       sync.Mutex
		findings []dockerfile.Finding
	)

	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(e.concurrency)

	for _, rule := range e.rules {
		rule := rule
		grp.Go(func() error {
			out := checkSafely(rule, g)
			mu.Lock()
			findings = append(findings, out...)
			mu.Unlock()
			return nil
		})
	}
	grp.Wait()
	return findings
}

func checkSafely(rule Rule, g *dockerfile.StageGraph) (out []dockerfile.Finding) {
	defer func() {
		if r := recover(); r != nil {
			out = []dockerfile.Finding{{
				RuleID:   rule.ID(),
				Severity: dockerfile.SeverityError,
				Message:  fmt.Sprintf("internal rule error: %v", r),
			}}
		}
	}()
	return rule.Check(g)
}
