package genesis

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genesis/internal/model"
)

func TestClientRunProducesArtifactsAndExport(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 4,
		Seed:              21,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	summary, err := client.Run(context.Background(), RunRequest{Cycles: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(summary.RunID, "run_") {
		t.Fatalf("unexpected run id: %q", summary.RunID)
	}
	if summary.CyclesRun != 3 {
		t.Fatalf("expected 3 cycles, got %d", summary.CyclesRun)
	}
	if summary.InitialPopulation != 4 || summary.FinalPopulation != 4 {
		t.Fatalf("unexpected population counts: %+v", summary)
	}
	if len(summary.FitnessCurve) != 3 || len(summary.PopulationCurve) != 3 {
		t.Fatalf("unexpected curve lengths: %+v", summary)
	}
	if summary.BestFitness <= 0 {
		t.Fatalf("expected positive best fitness, got %f", summary.BestFitness)
	}
	if summary.Extinct {
		t.Fatal("expected surviving population")
	}

	for _, file := range []string{
		"summary.json", "cycles.json", "organisms.json", "events.json",
		"top_organisms.json", "lineage.json", "fitness_series.csv", "report.json",
	} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}

	runs, err := client.Runs(context.Background(), RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("expected run %s in index, got %+v", summary.RunID, runs)
	}
	if runs[0].CyclesRun != 3 || runs[0].FinalPopulation != 4 {
		t.Fatalf("unexpected run index entry: %+v", runs[0])
	}

	lineage, err := client.Lineage(context.Background(), LineageRequest{Latest: true})
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if len(lineage) != 4 {
		t.Fatalf("expected 4 lineage entries, got %d", len(lineage))
	}
	for _, entry := range lineage {
		if entry.Generation != 3 || entry.Mutations != 3 {
			t.Fatalf("expected three mutations per founder, got %+v", entry)
		}
		if entry.ParentHash != "" {
			t.Fatalf("founders have no parent, got %+v", entry)
		}
	}

	events, err := client.Events(context.Background(), EventsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected limit to keep 5 events, got %d", len(events))
	}

	exported, err := client.Export(context.Background(), ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export latest: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("exported run mismatch: got=%s want=%s", exported.RunID, summary.RunID)
	}
	for _, file := range []string{"summary.json", "lineage.json", "fitness_series.csv", "report.json"} {
		if _, err := os.Stat(filepath.Join(exported.Directory, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}
}

func TestClientRunDefaultsCycles(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 2,
		Seed:              5,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	summary, err := client.Run(context.Background(), RunRequest{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.CyclesRun != defaultRunCycles {
		t.Fatalf("expected default cycle count %d, got %d", defaultRunCycles, summary.CyclesRun)
	}
}

func TestClientRunStopsAtCycleLimit(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 2,
		CycleLimit:        2,
		Seed:              7,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	summary, err := client.Run(context.Background(), RunRequest{Cycles: 5})
	if err != nil {
		t.Fatalf("run against cycle limit: %v", err)
	}
	if summary.CyclesRun != 2 {
		t.Fatalf("expected run to stop at the cycle limit, got %d cycles", summary.CyclesRun)
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "summary.json")); err != nil {
		t.Fatalf("expected artifacts for the limited run: %v", err)
	}

	exhausted, err := client.Run(context.Background(), RunRequest{Cycles: 1})
	if err != nil {
		t.Fatalf("run after limit: %v", err)
	}
	if exhausted.CyclesRun != 0 {
		t.Fatalf("expected no cycles after the limit, got %d", exhausted.CyclesRun)
	}
}

func TestClientExportValidatesRequest(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "memory",
		RunsDir:    filepath.Join(base, "runs"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	_, err = client.Export(context.Background(), ExportRequest{RunID: "run_x", Latest: true})
	if err == nil || !strings.Contains(err.Error(), "use either run id or latest") {
		t.Fatalf("expected mutual exclusion error, got %v", err)
	}
	_, err = client.Export(context.Background(), ExportRequest{})
	if err == nil || !strings.Contains(err.Error(), "export requires run id or latest") {
		t.Fatalf("expected missing selector error, got %v", err)
	}
	_, err = client.Export(context.Background(), ExportRequest{Latest: true})
	if err == nil || !strings.Contains(err.Error(), "no runs available to export") {
		t.Fatalf("expected empty index error, got %v", err)
	}
}

func TestClientLineageValidatesRequest(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "memory",
		RunsDir:    filepath.Join(base, "runs"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	_, err = client.Lineage(context.Background(), LineageRequest{RunID: "run_x", Latest: true})
	if err == nil || !strings.Contains(err.Error(), "use either run id or latest") {
		t.Fatalf("expected mutual exclusion error, got %v", err)
	}
	_, err = client.Lineage(context.Background(), LineageRequest{})
	if err == nil || !strings.Contains(err.Error(), "lineage requires run id or latest") {
		t.Fatalf("expected missing selector error, got %v", err)
	}
	_, err = client.Lineage(context.Background(), LineageRequest{RunID: "run_x", Limit: -1})
	if err == nil || !strings.Contains(err.Error(), "limit must be >= 0") {
		t.Fatalf("expected limit validation error, got %v", err)
	}
	_, err = client.Lineage(context.Background(), LineageRequest{RunID: "run_missing"})
	if err == nil || !strings.Contains(err.Error(), "lineage not found for run id") {
		t.Fatalf("expected missing run error, got %v", err)
	}
}

func TestClientSpawnAndEvolveOrganism(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 2,
		Seed:              13,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	rec, err := client.SpawnOrganism(context.Background())
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if !strings.HasPrefix(rec.ID, "tron_") {
		t.Fatalf("unexpected organism id: %q", rec.ID)
	}
	if rec.Genome.Fitness != 1.0 {
		t.Fatalf("expected founder fitness 1.0, got %f", rec.Genome.Fitness)
	}

	pop, err := client.Population(context.Background())
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if len(pop) != 3 {
		t.Fatalf("expected 3 organisms, got %d", len(pop))
	}

	event, err := client.EvolveOrganism(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if event.OrganismID != rec.ID {
		t.Fatalf("event organism mismatch: %+v", event)
	}
	if event.FitnessAfter >= event.FitnessBefore {
		t.Fatalf("expected mutation cost, got before=%f after=%f", event.FitnessBefore, event.FitnessAfter)
	}

	if _, err := client.EvolveOrganism(context.Background(), ""); err == nil {
		t.Fatal("expected organism id validation error")
	}
	if _, err := client.EvolveOrganism(context.Background(), "tron_missing"); err == nil {
		t.Fatal("expected unknown organism error")
	}
}

func TestClientOrganismReadsLiveThenArchive(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 1,
		Seed:              17,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	rec, err := client.SpawnOrganism(context.Background())
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	live, err := client.Organism(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("live read: %v", err)
	}
	if live.ID != rec.ID {
		t.Fatalf("unexpected live record: %+v", live)
	}

	// Stopping clears the live population but the archive keeps records.
	client.biosphere.Stop()
	archived, err := client.Organism(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("archive read: %v", err)
	}
	if archived.ID != rec.ID {
		t.Fatalf("unexpected archived record: %+v", archived)
	}

	if _, err := client.Organism(context.Background(), "tron_missing"); err == nil ||
		!strings.Contains(err.Error(), "organism not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, err := client.Organism(context.Background(), ""); err == nil {
		t.Fatal("expected organism id validation error")
	}
}

func TestClientTopStatsNetworkTopology(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 4,
		Seed:              29,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if _, err := client.Run(context.Background(), RunRequest{Cycles: 2}); err != nil {
		t.Fatalf("run: %v", err)
	}

	top, err := client.Top(context.Background(), TopRequest{Limit: 2})
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Rank != 1 || top[1].Rank != 2 {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	if top[0].Fitness < top[1].Fitness {
		t.Fatalf("expected descending fitness, got %+v", top)
	}
	if _, err := client.Top(context.Background(), TopRequest{Limit: -1}); err == nil {
		t.Fatal("expected limit validation error")
	}

	st, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.CurrentCycle != 2 {
		t.Fatalf("expected cycle 2, got %d", st.CurrentCycle)
	}

	ns, err := client.Network(context.Background())
	if err != nil {
		t.Fatalf("network: %v", err)
	}
	if ns.TotalOrganisms != 4 || ns.ActiveOrganisms != 4 {
		t.Fatalf("unexpected network stats: %+v", ns)
	}

	health, err := client.NetworkHealth(context.Background())
	if err != nil {
		t.Fatalf("network health: %v", err)
	}
	if health <= 0.9 || health > 1 {
		t.Fatalf("unexpected network health: %f", health)
	}

	topo, err := client.Topology(context.Background())
	if err != nil {
		t.Fatalf("topology: %v", err)
	}
	if topo.TotalNodes != 4 {
		t.Fatalf("expected 4 registered organisms, got %+v", topo)
	}
}

func TestClientResetRestartsPopulation(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 3,
		Seed:              37,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if _, err := client.Run(context.Background(), RunRequest{Cycles: 2}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := client.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	pop, err := client.Population(context.Background())
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if len(pop) != 3 {
		t.Fatalf("expected fresh founder population, got %d", len(pop))
	}
	for _, rec := range pop {
		if rec.Age != 0 || rec.Genome.Generation != 0 {
			t.Fatalf("expected unevolved founder, got %+v", rec)
		}
	}

	st, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.CurrentCycle != 0 {
		t.Fatalf("expected engine back at cycle 0, got %d", st.CurrentCycle)
	}

	events, err := client.Events(context.Background(), EventsRequest{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty event trail after reset, got %d", len(events))
	}
}

func TestClientSecondRunScopesEventArtifacts(t *testing.T) {
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:         "memory",
		RunsDir:           filepath.Join(base, "runs"),
		ExportsDir:        filepath.Join(base, "exports"),
		InitialPopulation: 2,
		Seed:              43,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if _, err := client.Run(context.Background(), RunRequest{Cycles: 2}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := client.Run(context.Background(), RunRequest{Cycles: 2})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(second.ArtifactsDir, "events.json"))
	if err != nil {
		t.Fatalf("read events artifact: %v", err)
	}
	var events []model.EvolutionEvent
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("decode events artifact: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events inside the run's window, got %d", len(events))
	}
	for _, event := range events {
		if event.Cycle < 2 || event.Cycle > 3 {
			t.Fatalf("event outside the second run's cycles: %+v", event)
		}
	}
}

func TestClientNewRejectsUnknownStoreKind(t *testing.T) {
	_, err := New(Options{StoreKind: "postgres"})
	if err == nil || !strings.Contains(err.Error(), "unsupported store backend") {
		t.Fatalf("expected store kind error, got %v", err)
	}
}
