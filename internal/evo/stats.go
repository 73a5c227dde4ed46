package evo

import "math"

// FitnessStats aggregates fitness observations for a population. The
// running average spans every observation since the last rebuild, so
// organisms eliminated later still weigh on it until selection recomputes
// the aggregate from the survivor pool.
type FitnessStats struct {
	Average  float64
	Max      float64
	Min      float64
	Variance float64
	Count    uint64
}

// NewFitnessStats returns an empty aggregate. Min starts at +Inf so the
// first observation always takes it.
func NewFitnessStats() FitnessStats {
	return FitnessStats{Min: math.Inf(1)}
}

// Observe folds one fitness sample into the running aggregate. Variance is
// not maintained incrementally; it refreshes on Rebuild.
func (s *FitnessStats) Observe(fitness float64) {
	s.Count++
	if fitness > s.Max {
		s.Max = fitness
	}
	if fitness < s.Min {
		s.Min = fitness
	}
	s.Average = (s.Average*float64(s.Count-1) + fitness) / float64(s.Count)
}

// Rebuild recomputes the aggregate from a concrete population snapshot,
// discarding observation history. An empty snapshot leaves the aggregate
// as it was.
func (s *FitnessStats) Rebuild(fitnesses []float64) {
	if len(fitnesses) == 0 {
		return
	}

	sum, maxF, minF := 0.0, 0.0, math.Inf(1)
	for _, f := range fitnesses {
		sum += f
		if f > maxF {
			maxF = f
		}
		if f < minF {
			minF = f
		}
	}
	avg := sum / float64(len(fitnesses))

	variance := 0.0
	for _, f := range fitnesses {
		d := f - avg
		variance += d * d
	}
	variance /= float64(len(fitnesses))

	s.Average = avg
	s.Max = maxF
	s.Min = minF
	s.Variance = variance
	s.Count = uint64(len(fitnesses))
}
