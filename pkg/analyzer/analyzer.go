// Package analyzer ties the Dockerfile parser, stage graph and rule engine
// together into a single Analyze entry point and renders the results.
package analyzer

import (
	"context"

	"github.com/google/uuid"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
	"github.com/societymartingale/dockerfile-analyzer/pkg/rules"
)

// resultNamespace is the UUIDv5 namespace for result ids. Ids are derived
// from the input text so that analyzing the same Dockerfile twice yields
// byte-identical results.
var resultNamespace = uuid.MustParse("7f1c6fbd-9f0a-4d8e-b9c3-52a80e3a1d10")

// Result is the complete outcome of analyzing one Dockerfile.
type Result struct {
	// ID is a deterministic UUID derived from the input text.
	ID string `json:"id" yaml:"id"`

	// Graph is the stage-resolved view of the file.
	Graph *dockerfile.StageGraph `json:"graph" yaml:"graph"`

	// Findings holds all structural and rule findings in reporter order.
	Findings []dockerfile.Finding `json:"findings" yaml:"findings"`

	// Stats summarizes the file's contents.
	Stats Stats `json:"stats" yaml:"stats"`
}

// Analyzer runs the full analysis pipeline. The zero value is not usable;
// construct one with New.
type Analyzer struct {
	engine *rules.Engine
}

// Option configures an Analyzer.
type Option func(*options)

type options struct {
	rules       []rules.Rule
	disabled    map[string]bool
	concurrency int
}

// WithRules replaces the default rule set.
func WithRules(ruleSet []rules.Rule) Option {
	return func(o *options) { o.rules = ruleSet }
}

// WithDisabledRules drops the named rules from the rule set.
func WithDisabledRules(ids []string) Option {
	return func(o *options) {
		o.disabled = make(map[string]bool, len(ids))
		for _, id := range ids {
			o.disabled[id] = true
		}
	}
}

// WithConcurrency caps parallel rule evaluation.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// New builds an Analyzer.
func New(opts ...Option) *Analyzer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ruleSet := o.rules
	if ruleSet == nil {
		ruleSet = rules.DefaultRules()
	}
	if len(o.disabled) > 0 {
		kept := make([]rules.Rule, 0, len(ruleSet))
		for _, r := range ruleSet {
			if !o.disabled[r.ID()] {
				kept = append(kept, r)
			}
		}
		ruleSet = kept
	}

	var engineOpts []rules.Option
	if o.concurrency > 0 {
		engineOpts = append(engineOpts, rules.WithConcurrency(o.concurrency))
	}
	return &Analyzer{engine: rules.NewEngine(ruleSet, engineOpts...)}
}

// Analyze parses the given Dockerfile text, runs every rule and returns the
// assembled result. The returned error is a *dockerfile.SyntaxError and only
// occurs when the text cannot be parsed at all; everything less severe is a
// finding inside the result.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Result, error) {
	instructions, err := dockerfile.Parse(text)
	if err != nil {
		return nil, err
	}

	graph, findings := dockerfile.BuildStageGraph(instructions)
	findings = append(findings, a.engine.Run(ctx, graph)...)
	SortFindings(findings)

	return &Result{
		ID:       uuid.NewSHA1(resultNamespace, []byte(text)).String(),
		Graph:    graph,
		Findings: findings,
		Stats:    ComputeStats(graph),
	}, nil
}

// Analyze runs the default analyzer on the given text.
func Analyze(text string) (*Result, error) {
	return New().Analyze(context.Background(), text)
}
