package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"rag-chat-be/pkg/apperror"
)

const (
	StageRetrieve   = "retrieve"
	StageReasoning  = "reasoning"
	StageGeneration = "generation"
)

// StageConfig is the free-form option block of a declarative step.
type StageConfig map[string]any

// Constructor builds a stage from its dependencies and options.
type Constructor func(deps Dependencies, cfg StageConfig) (Stage, error)

// Registry maps a stage type tag to its constructor.
type Registry map[string]Constructor

// DefaultRegistry knows the built-in Retrieve, Reason and Generate stages.
func DefaultRegistry() Registry {
	return Registry{
		StageRetrieve:   newRetrieveFromConfig,
		StageReasoning:  newReasonFromConfig,
		StageGeneration: newGenerateFromConfig,
	}
}

// Types lists the registered tags in sorted order.
func (r Registry) Types() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r Registry) unknownType(typ string) error {
	return apperror.NewConfigError(typ, "unknown stage type, known types: "+strings.Join(r.Types(), ", "))
}

// Build constructs the stage registered under typ.
func (r Registry) Build(typ string, deps Dependencies, cfg StageConfig) (Stage, error) {
	ctor, ok := r[typ]
	if !ok {
		return nil, r.unknownType(typ)
	}
	stage, err := ctor(deps, cfg)
	if err != nil {
		if apperror.IsConfig(err) {
			return nil, err
		}
		return nil, &apperror.ConfigError{Key: typ, Reason: "stage construction failed", Err: err}
	}
	return stage, nil
}

// decodeOptions strictly decodes cfg into out; keys out does not declare
// are rejected.
func decodeOptions(stage string, cfg StageConfig, out any) error {
	if len(cfg) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(map[string]any(cfg))
	if err != nil {
		return &apperror.ConfigError{Key: stage, Reason: "invalid stage config", Err: err}
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return &apperror.ConfigError{Key: stage, Reason: "invalid stage config", Err: err}
	}
	return nil
}

// Definition is the on-disk form of a declarative pipeline.
type Definition struct {
	Steps []StepDefinition `yaml:"steps"`
}

type StepDefinition struct {
	Type   string      `yaml:"type"`
	Config StageConfig `yaml:"config,omitempty"`
}

// DefaultDefinition is Retrieve, Reason, Generate with default options.
func DefaultDefinition() Definition {
	return Definition{Steps: []StepDefinition{
		{Type: StageRetrieve},
		{Type: StageReasoning},
		{Type: StageGeneration},
	}}
}

// RunnerSteps converts the definition into declarative runner steps.
func (d Definition) RunnerSteps() []Step {
	steps := make([]Step, 0, len(d.Steps))
	for _, s := range d.Steps {
		steps = append(steps, Declare(s.Type, s.Config))
	}
	return steps
}

func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, &apperror.ConfigError{Key: "PIPELINE_CONFIG_PATH", Reason: "malformed pipeline definition", Err: err}
	}
	if len(def.Steps) == 0 {
		return Definition{}, apperror.NewConfigError("PIPELINE_CONFIG_PATH", "pipeline definition has no steps")
	}
	for i, s := range def.Steps {
		if s.Type == "" {
			return Definition{}, apperror.NewConfigError("PIPELINE_CONFIG_PATH", fmt.Sprintf("step %d has no type", i))
		}
	}
	return def, nil
}

// LoadDefinition reads a YAML pipeline definition. An empty path yields
// the default definition.
func LoadDefinition(path string) (Definition, error) {
	if path == "" {
		return DefaultDefinition(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, &apperror.ConfigError{Key: "PIPELINE_CONFIG_PATH", Reason: "cannot read pipeline definition", Err: err}
	}
	return ParseDefinition(data)
}

// WithDefaults fills process-level option defaults into steps that leave
// them unset. Values set in the definition win.
func (d Definition) WithDefaults(topK, historyLimit int) Definition {
	out := Definition{Steps: make([]StepDefinition, len(d.Steps))}
	for i, s := range d.Steps {
		cfg := StageConfig{}
		for k, v := range s.Config {
			cfg[k] = v
		}
		switch s.Type {
		case StageRetrieve:
			if _, ok := cfg["top_k"]; !ok && topK > 0 {
				cfg["top_k"] = topK
			}
		case StageGeneration:
			if _, ok := cfg["history_limit"]; !ok && historyLimit > 0 {
				cfg["history_limit"] = historyLimit
			}
		}
		if len(cfg) == 0 {
			cfg = nil
		}
		out.Steps[i] = StepDefinition{Type: s.Type, Config: cfg}
	}
	return out
}
