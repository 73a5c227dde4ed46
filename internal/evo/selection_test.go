package evo

import (
	"math/rand"
	"testing"

	"genesis/internal/dna"
)

func subject(id string, fitness float64) Subject {
	return Subject{ID: id, Genome: &dna.Genome{Sequence: []byte{1, 2, 3, 4}, Fitness: fitness}}
}

func TestApplySelectionPressurePartition(t *testing.T) {
	e := New(Parameters{}, rand.New(rand.NewSource(1)), nil)

	population := make([]Subject, 10)
	for i := range population {
		population[i] = subject(string(rune('a'+i)), float64(i)*0.1)
	}

	survivors, eliminated := e.ApplySelectionPressure(population)

	if len(eliminated) != 5 {
		t.Fatalf("expected exactly 5 eliminations at pressure 0.5, got %d", len(eliminated))
	}
	if len(survivors) != 5 {
		t.Fatalf("expected 5 survivors, got %d", len(survivors))
	}
	for _, s := range survivors {
		if s.Genome.Fitness < 0.5 {
			t.Fatalf("survivor %s has fitness %v below pressure", s.ID, s.Genome.Fitness)
		}
	}
	for i := 1; i < len(survivors); i++ {
		if survivors[i].Genome.Fitness > survivors[i-1].Genome.Fitness {
			t.Fatal("survivors not ordered fittest first")
		}
	}
}

func TestSelectionRebuildsStats(t *testing.T) {
	e := New(Parameters{}, rand.New(rand.NewSource(2)), nil)
	e.stats.Observe(0.05)
	e.stats.Observe(1.9)

	population := []Subject{
		subject("a", 0.5), subject("b", 0.6), subject("c", 0.7),
		subject("d", 0.8), subject("e", 0.9), subject("f", 0.2),
	}
	survivors, _ := e.ApplySelectionPressure(population)
	if len(survivors) != 5 {
		t.Fatalf("expected 5 survivors, got %d", len(survivors))
	}

	if e.stats.Count != 5 {
		t.Fatalf("stats should cover the 5 survivors, got count %d", e.stats.Count)
	}
	if delta := e.stats.Average - 0.7; delta > 1e-12 || delta < -1e-12 {
		t.Fatalf("expected survivor average 0.7, got %v", e.stats.Average)
	}
	if e.stats.Max != 0.9 || e.stats.Min != 0.5 {
		t.Fatalf("expected extremes 0.9/0.5, got %v/%v", e.stats.Max, e.stats.Min)
	}
	if delta := e.stats.Variance - 0.02; delta > 1e-12 || delta < -1e-12 {
		t.Fatalf("expected survivor variance 0.02, got %v", e.stats.Variance)
	}
}

func TestSelectionKeepsStatsWhenPopulationCollapses(t *testing.T) {
	e := New(Parameters{}, rand.New(rand.NewSource(3)), nil)
	e.stats.Observe(0.8)
	before := e.stats

	e.SetSelectionPressure(1.0)
	survivors, eliminated := e.ApplySelectionPressure([]Subject{
		subject("a", 0.4), subject("b", 0.6),
	})

	if len(survivors) != 0 || len(eliminated) != 2 {
		t.Fatalf("expected total collapse, got %d survivors", len(survivors))
	}
	if e.stats != before {
		t.Fatalf("collapse should leave stats untouched, got %+v", e.stats)
	}
}

func TestFitnessWeightedSelectorFavorsFit(t *testing.T) {
	selector := FitnessWeightedSelector{Strength: 1.0}
	rng := rand.New(rand.NewSource(7))

	candidates := []Subject{
		subject("weak", 0.1),
		subject("strong", 1.9),
	}

	counts := map[string]int{}
	for i := 0; i < 500; i++ {
		mate, err := selector.PickMate(rng, candidates)
		if err != nil {
			t.Fatalf("pick mate: %v", err)
		}
		counts[mate.ID]++
	}

	if counts["strong"] <= counts["weak"] {
		t.Fatalf("expected the fitter mate to be picked more often: strong=%d weak=%d",
			counts["strong"], counts["weak"])
	}
	if counts["weak"] == 0 {
		t.Fatal("weighted choice should not fully starve weak candidates")
	}
}

func TestFitnessWeightedSelectorUniformAtZeroStrength(t *testing.T) {
	selector := FitnessWeightedSelector{Strength: 0}
	rng := rand.New(rand.NewSource(8))

	candidates := []Subject{
		subject("weak", 0.01),
		subject("strong", 1.99),
	}

	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		mate, err := selector.PickMate(rng, candidates)
		if err != nil {
			t.Fatalf("pick mate: %v", err)
		}
		counts[mate.ID]++
	}

	// Both close to 500; allow generous slack for the seeded stream.
	if counts["weak"] < 400 || counts["strong"] < 400 {
		t.Fatalf("expected roughly uniform picks at strength 0, got %v", counts)
	}
}

func TestTournamentMateSelector(t *testing.T) {
	selector := TournamentMateSelector{TournamentSize: 3}
	rng := rand.New(rand.NewSource(9))

	candidates := []Subject{
		subject("a", 0.2), subject("b", 0.4), subject("c", 0.9),
	}

	wins := 0
	for i := 0; i < 200; i++ {
		mate, err := selector.PickMate(rng, candidates)
		if err != nil {
			t.Fatalf("pick mate: %v", err)
		}
		if mate.ID == "c" {
			wins++
		}
	}
	if wins < 100 {
		t.Fatalf("expected the fittest candidate to dominate tournaments, won %d of 200", wins)
	}
}

func TestMateSelectorGuards(t *testing.T) {
	for _, selector := range []MateSelector{
		FitnessWeightedSelector{Strength: 0.5},
		TournamentMateSelector{},
	} {
		if _, err := selector.PickMate(nil, []Subject{subject("a", 1)}); err == nil {
			t.Fatalf("%s: expected error for nil random source", selector.Name())
		}
		if _, err := selector.PickMate(rand.New(rand.NewSource(1)), nil); err == nil {
			t.Fatalf("%s: expected error for empty candidate pool", selector.Name())
		}
	}
}
