// Package evo drives evolution across a population: it decides which
// mutation an organism attempts, records the outcome, applies selection
// pressure and retunes the global mutation rate cycle over cycle.
package evo

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"genesis/internal/dna"
	"genesis/internal/model"
)

// Parameters tune the evolution engine.
type Parameters struct {
	BaseMutationRate        float64
	MaxMutationsPerCycle    int
	SurvivalThreshold       float64
	ReproductionThreshold   float64
	AdaptationFactor        float64
	SexualSelectionStrength float64
}

// DefaultParameters returns the tuning a zero-configured engine runs with.
func DefaultParameters() Parameters {
	return Parameters{
		BaseMutationRate:        0.01,
		MaxMutationsPerCycle:    3,
		SurvivalThreshold:       0.1,
		ReproductionThreshold:   0.6,
		AdaptationFactor:        0.8,
		SexualSelectionStrength: 0.5,
	}
}

// Engine holds the mutable evolution state for one population. It is not
// safe for concurrent use; the platform serializes access around it.
type Engine struct {
	cycle             uint64
	selectionPressure float64
	mutationRate      float64
	params            Parameters
	history           []model.EvolutionEvent
	stats             FitnessStats
	rng               *rand.Rand
	log               *zap.Logger
}

// New builds an engine. A zero Parameters value falls back to defaults,
// nil rng to a time-seeded source and nil log to a nop logger.
func New(params Parameters, rng *rand.Rand, log *zap.Logger) *Engine {
	if params == (Parameters{}) {
		params = DefaultParameters()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		selectionPressure: 0.5,
		mutationRate:      params.BaseMutationRate,
		params:            params,
		stats:             NewFitnessStats(),
		rng:               rng,
		log:               log,
	}
}

// EvolveOrganism runs one evolution attempt against g. Genomes below the
// survival threshold are refused before any mutation is drawn; a drawn
// mutation that fails to apply is reported as an error and leaves history
// and statistics untouched.
func (e *Engine) EvolveOrganism(organismID string, g *dna.Genome) (model.EvolutionEvent, error) {
	if g.Fitness < e.params.SurvivalThreshold {
		return model.EvolutionEvent{}, fmt.Errorf("%w: organism %s at %.3f, threshold %.3f",
			ErrInsufficientFitness, organismID, g.Fitness, e.params.SurvivalThreshold)
	}

	before := g.Fitness
	m := e.selectMutation(g)
	if err := g.Mutate(m); err != nil {
		return model.EvolutionEvent{}, fmt.Errorf("apply %s to organism %s: %w", m.Kind(), organismID, err)
	}

	outcome := model.OutcomeFailed
	if g.Fitness > before {
		outcome = model.OutcomeSuccess
	}
	event := model.EvolutionEvent{
		EventID:           uuid.New().String(),
		OrganismID:        organismID,
		Cycle:             e.cycle,
		Mutation:          m,
		FitnessBefore:     before,
		FitnessAfter:      g.Fitness,
		SelectionPressure: e.selectionPressure,
		Timestamp:         time.Now().Unix(),
		Outcome:           outcome,
	}
	e.history = append(e.history, event)
	e.stats.Observe(g.Fitness)

	e.log.Debug("organism evolved",
		zap.String("organism", organismID),
		zap.String("mutation", string(m.Kind())),
		zap.Float64("fitness_before", before),
		zap.Float64("fitness_after", g.Fitness))
	return event, nil
}

// selectMutation picks the operator for one evolution attempt. Fit genomes
// occasionally rotate their keys, struggling ones gamble on a raw
// duplication draw whose range may not fit, everything in between mutates
// randomly.
func (e *Engine) selectMutation(g *dna.Genome) model.Mutation {
	switch {
	case g.Fitness > 0.8:
		if e.rng.Float64() < 0.1 {
			return model.KeyEvolution{
				OldGeneration: g.Keys.Generation,
				NewGeneration: g.Keys.Generation + 1,
				Timestamp:     time.Now().Unix(),
			}
		}
		return g.RandomMutation(e.rng)
	case g.Fitness < 0.3:
		n := len(g.Sequence)
		return model.Duplication{
			Start:     e.rng.Intn(n),
			End:       e.rng.Intn(n),
			InsertAt:  e.rng.Intn(n),
			Timestamp: time.Now().Unix(),
		}
	default:
		return g.RandomMutation(e.rng)
	}
}

// AdvanceCycle closes the current cycle and retunes the global mutation
// rate against average fitness: thriving populations mutate less,
// struggling ones more, clamped to [0.001, 0.1].
func (e *Engine) AdvanceCycle() uint64 {
	e.cycle++
	switch avg := e.stats.Average; {
	case avg > 0.8:
		e.mutationRate *= 0.9
	case avg < 0.3:
		e.mutationRate *= 1.1
	}
	e.mutationRate = clamp(e.mutationRate, 0.001, 0.1)

	e.log.Debug("cycle advanced",
		zap.Uint64("cycle", e.cycle),
		zap.Float64("mutation_rate", e.mutationRate))
	return e.cycle
}

// Stats snapshots the engine for reporting. An engine with no observations
// reports a zero minimum rather than the internal +Inf sentinel so the
// snapshot stays JSON-encodable.
func (e *Engine) Stats() model.EvolutionStats {
	var success, failed int
	for _, ev := range e.history {
		switch ev.Outcome {
		case model.OutcomeSuccess:
			success++
		case model.OutcomeFailed:
			failed++
		}
	}
	minFitness := e.stats.Min
	if e.stats.Count == 0 {
		minFitness = 0
	}
	return model.EvolutionStats{
		CurrentCycle:         e.cycle,
		TotalEvents:          len(e.history),
		SuccessfulEvolutions: success,
		FailedEvolutions:     failed,
		AverageFitness:       e.stats.Average,
		MaxFitness:           e.stats.Max,
		MinFitness:           minFitness,
		SelectionPressure:    e.selectionPressure,
		MutationRate:         e.mutationRate,
	}
}

// Cycle returns the number of completed cycles.
func (e *Engine) Cycle() uint64 { return e.cycle }

// MutationRate returns the current population-wide mutation rate.
func (e *Engine) MutationRate() float64 { return e.mutationRate }

// SelectionPressure returns the fitness bar applied during selection.
func (e *Engine) SelectionPressure() float64 { return e.selectionPressure }

// SetSelectionPressure adjusts the fitness bar, clamped to [0, 1].
func (e *Engine) SetSelectionPressure(p float64) {
	e.selectionPressure = clamp(p, 0, 1)
}

// History returns a copy of every recorded evolution event.
func (e *Engine) History() []model.EvolutionEvent {
	return append([]model.EvolutionEvent(nil), e.history...)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
