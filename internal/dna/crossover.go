package dna

import (
	"fmt"
	"math/rand"
)

// CompatibilityThreshold is the minimum crossover compatibility both
// parents must carry for recombination to proceed.
const CompatibilityThreshold = 0.5

// Crossover recombines this genome with other through two-point crossover
// and returns the child. The child is a freshly generated genome, so it
// carries its own keypair; parent keys are never copied into offspring.
// Crossover points land in [0, min/2) and [min/2, min), keeping the child
// the same length as the receiving parent.
func (g *Genome) Crossover(other *Genome, rng *rand.Rand) (*Genome, error) {
	if g.Meta.CrossoverCompatibility < CompatibilityThreshold || other.Meta.CrossoverCompatibility < CompatibilityThreshold {
		return nil, fmt.Errorf("%w: compatibility %.2f and %.2f, need %.2f",
			ErrCrossoverIncompatible, g.Meta.CrossoverCompatibility, other.Meta.CrossoverCompatibility, CompatibilityThreshold)
	}
	minLen := min(len(g.Sequence), len(other.Sequence))
	if minLen < 4 {
		return nil, fmt.Errorf("%w: shorter parent has %d bytes, need 4", ErrSequenceTooShort, minLen)
	}
	rng = ensureRNG(rng)

	p1 := rng.Intn(minLen / 2)
	p2 := minLen/2 + rng.Intn(minLen/2)

	seq := make([]byte, 0, len(g.Sequence))
	seq = append(seq, g.Sequence[:p1]...)
	seq = append(seq, other.Sequence[p1:p2]...)
	seq = append(seq, g.Sequence[p2:]...)

	child, err := Generate(rng)
	if err != nil {
		return nil, err
	}
	child.Sequence = seq
	child.Generation = max(g.Generation, other.Generation) + 1
	child.ParentHash = g.Hash()

	if rng.Intn(2) == 0 {
		child.Meta.Species = g.Meta.Species
	} else {
		child.Meta.Species = other.Meta.Species
	}
	child.Meta.MutationRate = (g.Meta.MutationRate + other.Meta.MutationRate) / 2
	child.Meta.CrossoverCompatibility = (g.Meta.CrossoverCompatibility + other.Meta.CrossoverCompatibility) / 2
	child.Meta.AdaptationScore = (g.Meta.AdaptationScore + other.Meta.AdaptationScore) / 2
	child.Meta.NeuralComplexity = (g.Meta.NeuralComplexity + other.Meta.NeuralComplexity) / 2

	// The child inherits from the fitter parent, with a regression toward
	// the mean.
	child.Fitness = max(g.Fitness, other.Fitness) * 0.95
	return child, nil
}
