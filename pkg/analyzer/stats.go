package analyzer

import (
	"sort"
	"strings"

	"github.com/societymartingale/dockerfile-analyzer/pkg/dockerfile"
)

// Stats summarizes a Dockerfile. Every slice is sorted and deduplicated and
// every name is lowercased, except variable references which are preserved
// verbatim, so identical input always produces identical stats.
type Stats struct {
	Instructions InstructionStats `json:"instructions" yaml:"instructions"`

	// Images lists the distinct external base images, parsed.
	Images []dockerfile.ImageRef `json:"images" yaml:"images"`

	// StageNames lists the distinct AS aliases.
	StageNames []string `json:"stage_names,omitempty" yaml:"stage_names,omitempty"`

	// CopyFromStages and AddFromStages list the stage names referenced by
	// COPY --from and ADD --from.
	CopyFromStages []string `json:"copy_from_stages,omitempty" yaml:"copy_from_stages,omitempty"`
	AddFromStages  []string `json:"add_from_stages,omitempty" yaml:"add_from_stages,omitempty"`

	Multistage MultistageStats `json:"multistage" yaml:"multistage"`

	// ExposedPorts lists the distinct EXPOSE tokens.
	ExposedPorts []string `json:"exposed_ports,omitempty" yaml:"exposed_ports,omitempty"`

	// Args maps declared build arguments to their default value, nil when
	// the declaration has no default.
	Args map[string]*string `json:"args,omitempty" yaml:"args,omitempty"`

	// Labels and EnvVars map keys to their final value; later instructions
	// overwrite earlier ones.
	Labels  map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	EnvVars map[string]string `json:"env_vars,omitempty" yaml:"env_vars,omitempty"`
}

// InstructionStats counts instructions by kind.
type InstructionStats struct {
	Total  int            `json:"total" yaml:"total"`
	ByKind map[string]int `json:"by_kind,omitempty" yaml:"by_kind,omitempty"`
}

// MultistageStats describes how the build stages relate to each other.
type MultistageStats struct {
	// IsMultistage is true only when there are at least two stages and at
	// least one stage is actually referenced by a later FROM or --from.
	// Stacking independent stages in one file is not a multistage build.
	IsMultistage bool `json:"is_multistage" yaml:"is_multistage"`

	StagesUsedAsBaseImages []string `json:"stages_used_as_base_images,omitempty" yaml:"stages_used_as_base_images,omitempty"`
	StagesCopiedFrom       []string `json:"stages_copied_from,omitempty" yaml:"stages_copied_from,omitempty"`
	StagesAddedFrom        []string `json:"stages_added_from,omitempty" yaml:"stages_added_from,omitempty"`

	// UnusedStages lists every named stage that nothing builds on or
	// copies from, a named final stage included. The UnusedStage lint
	// rule is narrower and never flags the final stage; these stats
	// describe the reference structure, not lint-worthiness.
	UnusedStages []string `json:"unused_stages,omitempty" yaml:"unused_stages,omitempty"`
}

// ComputeStats derives statistics from a stage graph.
func ComputeStats(g *dockerfile.StageGraph) Stats {
	s := Stats{
		Instructions: InstructionStats{ByKind: make(map[string]int)},
	}

	images := make(map[string]bool)
	stageNames := make(map[string]bool)
	copyFrom := make(map[string]bool)
	addFrom := make(map[string]bool)
	baseUsed := make(map[string]bool)
	ports := make(map[string]bool)

	count := func(in dockerfile.Instruction) {
		s.Instructions.Total++
		s.Instructions.ByKind[in.Kind.String()]++
	}

	collectKVs := func(in dockerfile.Instruction) {
		switch in.Kind {
		case dockerfile.KindArg:
			for _, kv := range in.KeyValues {
				if s.Args == nil {
					s.Args = make(map[string]*string)
				}
				if kv.HasValue {
					v := kv.Value
					s.Args[kv.Key] = &v
				} else if _, seen := s.Args[kv.Key]; !seen {
					s.Args[kv.Key] = nil
				}
			}
		case dockerfile.KindLabel:
			for _, kv := range in.KeyValues {
				if s.Labels == nil {
					s.Labels = make(map[string]string)
				}
				s.Labels[kv.Key] = kv.Value
			}
		case dockerfile.KindEnv:
			for _, kv := range in.KeyValues {
				if s.EnvVars == nil {
					s.EnvVars = make(map[string]string)
				}
				s.EnvVars[kv.Key] = kv.Value
			}
		case dockerfile.KindExpose:
			for _, p := range in.Ports {
				ports[p.Raw] = true
			}
		}
	}

	for _, in := range g.Preamble {
		count(in)
		collectKVs(in)
	}

	for si, stage := range g.Stages {
		count(stage.From)
		if stage.Name != "" {
			stageNames[strings.ToLower(stage.Name)] = true
		}
		if stage.BaseStage != dockerfile.NoBaseStage {
			if name := g.Stages[stage.BaseStage].Name; name != "" {
				baseUsed[strings.ToLower(name)] = true
			}
		} else if full := stage.BaseImage.Full; full != "" {
			images[normalizeImage(stage.BaseImage)] = true
		}

		for _, in := range stage.Instructions {
			count(in)
			collectKVs(in)
			if in.Transfer == nil || in.Transfer.From == "" {
				continue
			}
			idx, ok := g.ResolveStageRef(in.Transfer.From, si)
			if !ok {
				continue
			}
			name := g.Stages[idx].Name
			if name == "" {
				name = in.Transfer.From
			}
			if in.Kind == dockerfile.KindCopy {
				copyFrom[strings.ToLower(name)] = true
			} else {
				addFrom[strings.ToLower(name)] = true
			}
		}
	}

	for full := range images {
		s.Images = append(s.Images, dockerfile.ParseImageRef(full))
	}
	sort.Slice(s.Images, func(i, j int) bool { return s.Images[i].Full < s.Images[j].Full })

	s.StageNames = sortedKeys(stageNames)
	s.CopyFromStages = sortedKeys(copyFrom)
	s.AddFromStages = sortedKeys(addFrom)
	s.ExposedPorts = sortedKeys(ports)

	referenced := len(baseUsed) > 0 || len(copyFrom) > 0 || len(addFrom) > 0
	s.Multistage = MultistageStats{
		IsMultistage:           len(g.Stages) > 1 && referenced,
		StagesUsedAsBaseImages: sortedKeys(baseUsed),
		StagesCopiedFrom:       sortedKeys(copyFrom),
		StagesAddedFrom:        sortedKeys(addFrom),
		UnusedStages:           unusedStages(g, baseUsed, copyFrom, addFrom),
	}
	return s
}

// normalizeImage lowercases an image reference for dedup; variable
// references stay verbatim.
func normalizeImage(img dockerfile.ImageRef) string {
	if img.IsVariable() {
		return img.Full
	}
	return strings.ToLower(img.Full)
}

func unusedStages(g *dockerfile.StageGraph, used ...map[string]bool) []string {
	var out []string
	for _, stage := range g.Stages {
		if stage.Name == "" {
			continue
		}
		key := strings.ToLower(stage.Name)
		referenced := false
		for _, m := range used {
			if m[key] {
				referenced = true
				break
			}
		}
		if !referenced {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
