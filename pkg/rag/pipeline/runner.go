package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rag-chat-be/pkg/apperror"
)

const tracerName = "rag-chat-be/pipeline"

// Step is either a prebuilt stage or a declarative {type, config} record
// built from the registry at run time.
type Step struct {
	Stage  Stage
	Type   string
	Config StageConfig
}

// Use wraps a prebuilt stage.
func Use(stage Stage) Step { return Step{Stage: stage} }

// Declare describes a stage to be built from the registry.
func Declare(typ string, cfg StageConfig) Step { return Step{Type: typ, Config: cfg} }

func (s Step) name() string {
	if s.Stage != nil {
		return s.Stage.Name()
	}
	return s.Type
}

// Runner executes its steps in order over one request context.
type Runner struct {
	steps    []Step
	deps     Dependencies
	registry Registry
	tracer   trace.Tracer
}

type RunnerOption func(*Runner)

func WithRegistry(reg Registry) RunnerOption {
	return func(r *Runner) { r.registry = reg }
}

func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// NewRunner validates every declarative step type against the registry up
// front so a bad definition fails before any request is served.
func NewRunner(deps Dependencies, steps []Step, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		steps:    append([]Step(nil), steps...),
		deps:     deps,
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(tracerName)
	}

	if len(r.steps) == 0 {
		return nil, apperror.NewConfigError("pipeline", "no steps configured")
	}
	for _, s := range r.steps {
		if s.Stage != nil {
			continue
		}
		if _, ok := r.registry[s.Type]; !ok {
			return nil, r.registry.unknownType(s.Type)
		}
	}
	return r, nil
}

// StageNames lists the configured steps in execution order.
func (r *Runner) StageNames() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.name()
	}
	return names
}

// Run executes every step in order. The first build or stage error aborts
// the run and no context is returned.
func (r *Runner) Run(ctx context.Context, rc *RequestContext) (*RequestContext, error) {
	log := r.deps.logger()
	current := rc

	for i, step := range r.steps {
		stage := step.Stage
		if stage == nil {
			built, err := r.registry.Build(step.Type, r.deps, step.Config)
			if err != nil {
				log.Error("pipeline", "Stage build failed", map[string]interface{}{
					"stage": step.Type,
					"error": err,
				})
				return nil, err
			}
			stage = built
		}

		next, err := r.runStage(ctx, i, stage, current)
		if err != nil {
			log.Error("pipeline", "Stage failed", map[string]interface{}{
				"stage":      stage.Name(),
				"session_id": rc.SessionID,
				"error":      err,
			})
			return nil, err
		}
		current = next
	}
	return current, nil
}

func (r *Runner) runStage(ctx context.Context, index int, stage Stage, rc *RequestContext) (*RequestContext, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline."+stage.Name(), trace.WithAttributes(
		attribute.String("pipeline.stage", stage.Name()),
		attribute.Int("pipeline.index", index),
		attribute.String("session.id", rc.SessionID),
	))
	defer span.End()

	start := time.Now()
	out, err := stage.Run(ctx, rc)
	span.SetAttributes(attribute.Int64("pipeline.duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	r.deps.logger().Debug("pipeline", "Stage completed", map[string]interface{}{
		"stage":       stage.Name(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return out, nil
}
