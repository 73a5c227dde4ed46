package stats

import (
	"testing"

	"genesis/internal/model"
	"genesis/internal/storage"
)

func sampleCycles() []model.CycleSummary {
	return []model.CycleSummary{
		{RunID: "run-1", Cycle: 1, Population: 10, Eliminated: 1, Births: 0, Deaths: 1, AverageFitness: 0.90, MaxFitness: 1.10, MinFitness: 0.50, NetworkHealth: 0.80, Timestamp: 100},
		{RunID: "run-1", Cycle: 2, Population: 11, Eliminated: 0, Births: 2, Deaths: 1, AverageFitness: 0.95, MaxFitness: 1.30, MinFitness: 0.55, NetworkHealth: 0.82, Timestamp: 200},
		{RunID: "run-1", Cycle: 3, Population: 9, Eliminated: 2, Births: 0, Deaths: 2, AverageFitness: 0.93, MaxFitness: 1.25, MinFitness: 0.60, NetworkHealth: 0.79, Timestamp: 300},
	}
}

func rankedRecord(id string, fitness float64) model.OrganismRecord {
	return model.OrganismRecord{
		ID:    id,
		State: model.StateMature,
		Genome: model.Genome{
			Hash:    "hash-" + id,
			Fitness: fitness,
		},
	}
}

func TestBuildRunSummary(t *testing.T) {
	summary := BuildRunSummary("run-1", 100, 400, 10, sampleCycles())

	if summary.RunID != "run-1" || summary.CyclesRun != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.SchemaVersion != storage.CurrentSchemaVersion {
		t.Fatalf("expected stamped summary, got schema version %d", summary.SchemaVersion)
	}
	if len(summary.FitnessCurve) != 3 || summary.FitnessCurve[1] != 0.95 {
		t.Fatalf("unexpected fitness curve: %v", summary.FitnessCurve)
	}
	if len(summary.PopulationCurve) != 3 || summary.PopulationCurve[2] != 9 {
		t.Fatalf("unexpected population curve: %v", summary.PopulationCurve)
	}
	if summary.TotalEliminated != 3 || summary.TotalBirths != 2 || summary.TotalDeaths != 4 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.BestFitness != 1.30 {
		t.Fatalf("expected best fitness 1.30, got %v", summary.BestFitness)
	}
	if summary.FinalPopulation != 9 {
		t.Fatalf("expected final population 9, got %d", summary.FinalPopulation)
	}
	if summary.NetworkHealth != 0.79 {
		t.Fatalf("expected final network health 0.79, got %v", summary.NetworkHealth)
	}
}

func TestBuildRunSummaryWithoutCycles(t *testing.T) {
	summary := BuildRunSummary("run-2", 100, 100, 5, nil)

	if summary.CyclesRun != 0 {
		t.Fatalf("expected 0 cycles, got %d", summary.CyclesRun)
	}
	if summary.FinalPopulation != 5 {
		t.Fatalf("expected final population to match initial, got %d", summary.FinalPopulation)
	}
	if len(summary.FitnessCurve) != 0 || len(summary.PopulationCurve) != 0 {
		t.Fatalf("expected empty curves, got %v / %v", summary.FitnessCurve, summary.PopulationCurve)
	}
	if summary.BestFitness != 0 {
		t.Fatalf("expected zero best fitness, got %v", summary.BestFitness)
	}
}

func TestTopOrganisms(t *testing.T) {
	records := []model.OrganismRecord{
		rankedRecord("tron_c", 0.9),
		rankedRecord("tron_a", 0.5),
		rankedRecord("tron_b", 0.9),
		rankedRecord("tron_d", 0.7),
	}

	top := TopOrganisms(records, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].Record.ID != "tron_b" || top[1].Record.ID != "tron_c" || top[2].Record.ID != "tron_d" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	for i, entry := range top {
		if entry.Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, entry.Rank)
		}
	}
	if top[0].Fitness != 0.9 {
		t.Fatalf("expected top fitness 0.9, got %v", top[0].Fitness)
	}
}

func TestTopOrganismsUnlimited(t *testing.T) {
	records := []model.OrganismRecord{
		rankedRecord("tron_a", 0.5),
		rankedRecord("tron_b", 0.9),
	}

	top := TopOrganisms(records, 0)
	if len(top) != 2 {
		t.Fatalf("expected all records ranked, got %d", len(top))
	}
	if top[0].Record.ID != "tron_b" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
}

func TestBuildLineage(t *testing.T) {
	parentHash := "hash-tron_a"
	child := rankedRecord("tron_c", 0.8)
	child.Genome.Generation = 2
	child.Genome.ParentHash = &parentHash
	child.Genome.MutationLog = model.MutationLog{
		&model.PointMutation{Position: 1, OldValue: 65, NewValue: 67, Timestamp: 100},
		&model.Deletion{Position: 0, Length: 1, Timestamp: 200},
	}

	parent := rankedRecord("tron_a", 0.6)
	parent.Genome.Generation = 1
	sibling := rankedRecord("tron_b", 0.7)
	sibling.Genome.Generation = 1

	lineage := BuildLineage([]model.OrganismRecord{child, sibling, parent})
	if len(lineage) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(lineage))
	}
	if lineage[0].OrganismID != "tron_a" || lineage[1].OrganismID != "tron_b" || lineage[2].OrganismID != "tron_c" {
		t.Fatalf("unexpected lineage order: %+v", lineage)
	}
	if lineage[2].ParentHash != parentHash {
		t.Fatalf("expected parent hash %s, got %s", parentHash, lineage[2].ParentHash)
	}
	if lineage[0].ParentHash != "" {
		t.Fatalf("expected empty parent hash for founder, got %s", lineage[0].ParentHash)
	}
	if lineage[2].Mutations != 2 {
		t.Fatalf("expected 2 mutations, got %d", lineage[2].Mutations)
	}
}
