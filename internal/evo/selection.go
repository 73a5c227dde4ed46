package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"genesis/internal/dna"
)

// Subject pairs an organism identifier with its genome for selection.
type Subject struct {
	ID     string
	Genome *dna.Genome
}

// ApplySelectionPressure culls every subject whose fitness falls below the
// current selection pressure. Survivors come back ordered fittest first;
// the second return value lists the eliminated organism IDs. Fitness
// statistics are rebuilt from the survivor pool unless the cull emptied
// it, in which case they keep their last values.
func (e *Engine) ApplySelectionPressure(population []Subject) ([]Subject, []string) {
	sorted := append([]Subject(nil), population...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Genome.Fitness > sorted[j].Genome.Fitness
	})

	var (
		survivors  []Subject
		eliminated []string
	)
	for _, s := range sorted {
		if s.Genome.Fitness < e.selectionPressure {
			eliminated = append(eliminated, s.ID)
			continue
		}
		survivors = append(survivors, s)
	}

	if len(survivors) > 0 {
		fitnesses := make([]float64, len(survivors))
		for i, s := range survivors {
			fitnesses[i] = s.Genome.Fitness
		}
		e.stats.Rebuild(fitnesses)
	}

	e.log.Debug("selection applied",
		zap.Float64("pressure", e.selectionPressure),
		zap.Int("survivors", len(survivors)),
		zap.Int("eliminated", len(eliminated)))
	return survivors, eliminated
}

// MateSelector chooses a reproduction partner from the candidate pool.
type MateSelector interface {
	Name() string
	PickMate(rng *rand.Rand, candidates []Subject) (Subject, error)
}

// FitnessWeightedSelector blends uniform and fitness-proportional partner
// choice. Strength 0 picks uniformly, 1 fully by fitness.
type FitnessWeightedSelector struct {
	Strength float64
}

func (FitnessWeightedSelector) Name() string {
	return "fitness_weighted"
}

func (s FitnessWeightedSelector) PickMate(rng *rand.Rand, candidates []Subject) (Subject, error) {
	if rng == nil {
		return Subject{}, fmt.Errorf("random source is required")
	}
	if len(candidates) == 0 {
		return Subject{}, fmt.Errorf("no mate candidates available")
	}

	strength := clamp(s.Strength, 0, 1)
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, c := range candidates {
		w := (1 - strength) + strength*c.Genome.Fitness
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total == 0 {
		return candidates[rng.Intn(len(candidates))], nil
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return candidates[i], nil
		}
	}
	return candidates[len(candidates)-1], nil
}

// TournamentMateSelector samples a few candidates and keeps the fittest.
type TournamentMateSelector struct {
	TournamentSize int
}

func (TournamentMateSelector) Name() string {
	return "tournament"
}

func (s TournamentMateSelector) PickMate(rng *rand.Rand, candidates []Subject) (Subject, error) {
	if rng == nil {
		return Subject{}, fmt.Errorf("random source is required")
	}
	if len(candidates) == 0 {
		return Subject{}, fmt.Errorf("no mate candidates available")
	}

	size := s.TournamentSize
	if size <= 0 {
		size = 3
	}
	if size > len(candidates) {
		size = len(candidates)
	}

	best := candidates[rng.Intn(len(candidates))]
	for i := 1; i < size; i++ {
		candidate := candidates[rng.Intn(len(candidates))]
		if candidate.Genome.Fitness > best.Genome.Fitness {
			best = candidate
		}
	}
	return best, nil
}
