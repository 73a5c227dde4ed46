package evo

import (
	"math"
	"testing"
)

func TestFitnessStatsObserve(t *testing.T) {
	s := NewFitnessStats()
	if !math.IsInf(s.Min, 1) {
		t.Fatalf("fresh stats should start with +Inf min, got %v", s.Min)
	}

	s.Observe(1.0)
	s.Observe(0.5)

	if s.Count != 2 {
		t.Fatalf("expected count 2, got %d", s.Count)
	}
	if s.Average != 0.75 {
		t.Fatalf("expected average 0.75, got %v", s.Average)
	}
	if s.Max != 1.0 || s.Min != 0.5 {
		t.Fatalf("expected extremes 1.0/0.5, got %v/%v", s.Max, s.Min)
	}
	if s.Variance != 0 {
		t.Fatalf("observe should not maintain variance, got %v", s.Variance)
	}
}

func TestFitnessStatsAverageIsLifetime(t *testing.T) {
	// The running mean keeps weighing every observation since the last
	// rebuild, including organisms that later died. Selection is what
	// resets it to the living population.
	s := NewFitnessStats()
	s.Observe(2.0)
	for i := 0; i < 3; i++ {
		s.Observe(0.5)
	}

	want := (2.0 + 3*0.5) / 4
	if math.Abs(s.Average-want) > 1e-12 {
		t.Fatalf("expected lifetime average %v, got %v", want, s.Average)
	}

	s.Rebuild([]float64{0.5, 0.5, 0.5})
	if s.Average != 0.5 {
		t.Fatalf("rebuild should forget the outlier, got %v", s.Average)
	}
	if s.Count != 3 {
		t.Fatalf("rebuild should reset count to the pool size, got %d", s.Count)
	}
}

func TestFitnessStatsRebuild(t *testing.T) {
	s := NewFitnessStats()
	s.Rebuild([]float64{0.2, 0.4, 0.6})

	if math.Abs(s.Average-0.4) > 1e-12 {
		t.Fatalf("expected average 0.4, got %v", s.Average)
	}
	if s.Max != 0.6 || s.Min != 0.2 {
		t.Fatalf("expected extremes 0.6/0.2, got %v/%v", s.Max, s.Min)
	}
	wantVar := (0.04 + 0 + 0.04) / 3
	if math.Abs(s.Variance-wantVar) > 1e-12 {
		t.Fatalf("expected variance %v, got %v", wantVar, s.Variance)
	}

	before := s
	s.Rebuild(nil)
	if s != before {
		t.Fatalf("empty rebuild should be a no-op, got %+v", s)
	}
}
