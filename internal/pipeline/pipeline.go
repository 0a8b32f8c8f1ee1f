// Package pipeline sequences the fixed build stages and decides, from
// caller configuration and upstream outputs, which of them run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Pipeline executes a fixed, ordered stage sequence. Stages run strictly
// one after another; there is no parallelism and no cancellation once a
// stage has started other than the context handed to external processes.
type Pipeline struct {
	log    zerolog.Logger
	stages []Stage
}

// Result is the outcome of one pipeline run.
type Result struct {
	// RunID identifies this invocation in logs.
	RunID string

	// Stages holds one status per configured stage, in sequence order.
	Stages []StageStatus

	// Err is the first fatal stage error, nil on success.
	Err error
}

// Failed reports whether the run aborted on a fatal stage error.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Status returns the recorded status for a stage name.
func (r *Result) Status(name string) (StageStatus, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageStatus{}, false
}

// New builds a pipeline over the given ordered stages. Every declared
// dependency must name a stage that appears earlier in the sequence.
func New(log zerolog.Logger, stages []Stage) (*Pipeline, error) {
	seen := make(map[string]struct{}, len(stages))
	for _, stage := range stages {
		if stage.Name == "" {
			return nil, fmt.Errorf("stage with empty name")
		}
		if _, dup := seen[stage.Name]; dup {
			return nil, fmt.Errorf("duplicate stage name: %s", stage.Name)
		}
		for _, dep := range stage.DependsOn {
			if _, ok := seen[dep]; !ok {
				return nil, fmt.Errorf("stage %s depends on %s, which does not precede it", stage.Name, dep)
			}
		}
		seen[stage.Name] = struct{}{}
	}
	return &Pipeline{log: log, stages: stages}, nil
}

// Run executes the sequence. A disabled stage is skipped silently and
// downstream stages still evaluate their own conditions. A fatal stage
// error halts the remainder of the sequence; stage errors never propagate
// uncaught past the orchestrator.
func (p *Pipeline) Run(ctx context.Context, st *State) *Result {
	result := &Result{RunID: uuid.New().String()}
	log := p.log.With().Str("runID", result.RunID).Logger()

	log.Info().Int("stages", len(p.stages)).Msg("Starting pipeline")

	for _, stage := range p.stages {
		if !stage.Enabled(st) {
			log.Debug().Str("stage", stage.Name).Msg("Stage skipped")
			result.Stages = append(result.Stages, StageStatus{Name: stage.Name, Outcome: OutcomeSkipped})
			continue
		}

		log.Info().Str("stage", stage.Name).Msg("Running stage")
		err := p.runStage(ctx, stage, st)
		if err == nil {
			result.Stages = append(result.Stages, StageStatus{Name: stage.Name, Outcome: OutcomeRan})
			continue
		}

		if stage.AllowFailure != nil && stage.AllowFailure(st) {
			log.Warn().Err(err).Str("stage", stage.Name).
				Msg("Stage failed, continuing on error")
			result.Stages = append(result.Stages, StageStatus{Name: stage.Name, Outcome: OutcomeFailed, Err: err})
			continue
		}

		log.Error().Str("stage", stage.Name).Str("error", err.Error()).
			Msg("Stage failed, aborting pipeline")
		log.Trace().Err(err).Str("stage", stage.Name).Msg("Stage failure detail")
		result.Stages = append(result.Stages, StageStatus{Name: stage.Name, Outcome: OutcomeFailed, Err: err})
		result.Err = fmt.Errorf("stage %s: %w", stage.Name, err)
		return result
	}

	log.Info().Msg("Pipeline finished")
	return result
}

// runStage invokes the stage action, converting a panic into a stage error
// so nothing escapes the orchestrator.
func (p *Pipeline) runStage(ctx context.Context, stage Stage, st *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", stage.Name, r)
		}
	}()
	return stage.Run(ctx, st)
}
