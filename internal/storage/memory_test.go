package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"genesis/internal/model"
)

func storedOrganism(id string) model.OrganismRecord {
	return model.OrganismRecord{
		ID:             id,
		State:          model.StateMature,
		Age:            12,
		Energy:         0.8,
		Health:         0.9,
		NeuralActivity: 0.2,
		Consciousness:  0.15,
		SynapseCount:   3,
		Genome: model.Genome{
			Hash:           fmt.Sprintf("hash-%s", id),
			Sequence:       []byte("ATCGATTACAGGCTAA"),
			Generation:     1,
			Fitness:        0.98,
			MutationLog:    model.MutationLog{&model.PointMutation{Position: 1, OldValue: 84, NewValue: 67, Timestamp: 1735689600}},
			PublicKey:      []byte("0123456789abcdef0123456789abcdef"),
			DerivationPath: []uint32{0},
			CreatedAt:      1735689600,
			Metadata:       model.GenomeMetadata{Species: "TRON", BiologicalAge: 1, MutationRate: 0.01},
		},
	}
}

func storedEvent(id, organismID string, cycle uint64) model.EvolutionEvent {
	return model.EvolutionEvent{
		EventID:       id,
		OrganismID:    organismID,
		Cycle:         cycle,
		Mutation:      &model.Deletion{Position: 2, Length: 1, Timestamp: 1735689700},
		FitnessBefore: 0.9,
		FitnessAfter:  0.882,
		Timestamp:     1735689700,
		Outcome:       model.OutcomeSuccess,
	}
}

func TestMemoryStoreOrganismRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := storedOrganism("tron_a")
	if err := store.SaveOrganism(ctx, input); err != nil {
		t.Fatalf("save organism: %v", err)
	}

	loaded, ok, err := store.GetOrganism(ctx, "tron_a")
	if err != nil {
		t.Fatalf("get organism: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted organism")
	}
	if loaded.ID != input.ID || loaded.State != input.State {
		t.Fatalf("unexpected organism loaded: %+v", loaded)
	}
	if loaded.SchemaVersion != CurrentSchemaVersion || loaded.Genome.CodecVersion != CurrentCodecVersion {
		t.Fatalf("expected stamped record, got versions %d/%d", loaded.SchemaVersion, loaded.Genome.CodecVersion)
	}

	_, ok, err = store.GetOrganism(ctx, "tron_missing")
	if err != nil {
		t.Fatalf("get missing organism: %v", err)
	}
	if ok {
		t.Fatal("expected missing organism")
	}
}

func TestMemoryStoreCopiesDetachCaller(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := storedOrganism("tron_a")
	if err := store.SaveOrganism(ctx, input); err != nil {
		t.Fatalf("save organism: %v", err)
	}
	input.Genome.Sequence[0] = 'X'

	loaded, _, err := store.GetOrganism(ctx, "tron_a")
	if err != nil {
		t.Fatalf("get organism: %v", err)
	}
	if loaded.Genome.Sequence[0] != 'A' {
		t.Fatal("stored record shares sequence with caller")
	}

	loaded.Genome.Sequence[0] = 'Y'
	again, _, err := store.GetOrganism(ctx, "tron_a")
	if err != nil {
		t.Fatalf("get organism: %v", err)
	}
	if again.Genome.Sequence[0] != 'A' {
		t.Fatal("returned record shares sequence with store")
	}
}

func TestMemoryStoreListOrganismsSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, id := range []string{"tron_c", "tron_a", "tron_b"} {
		if err := store.SaveOrganism(ctx, storedOrganism(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	listed, err := store.ListOrganisms(ctx)
	if err != nil {
		t.Fatalf("list organisms: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 organisms, got %d", len(listed))
	}
	for i, want := range []string{"tron_a", "tron_b", "tron_c"} {
		if listed[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, listed[i].ID)
		}
	}
}

func TestMemoryStoreDeleteOrganism(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveOrganism(ctx, storedOrganism("tron_a")); err != nil {
		t.Fatalf("save organism: %v", err)
	}
	if err := store.DeleteOrganism(ctx, "tron_a"); err != nil {
		t.Fatalf("delete organism: %v", err)
	}

	_, ok, err := store.GetOrganism(ctx, "tron_a")
	if err != nil {
		t.Fatalf("get organism: %v", err)
	}
	if ok {
		t.Fatal("expected organism deleted")
	}

	if err := store.DeleteOrganism(ctx, "tron_missing"); err != nil {
		t.Fatalf("delete missing organism: %v", err)
	}
}

func TestMemoryStoreEventsFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	organisms := []string{"tron_a", "tron_b", "tron_a", "tron_b", "tron_a"}
	for i, organismID := range organisms {
		event := storedEvent(fmt.Sprintf("evt-%d", i+1), organismID, uint64(i+1))
		if err := store.AppendEvent(ctx, event); err != nil {
			t.Fatalf("append event %d: %v", i+1, err)
		}
	}

	all, err := store.ListEvents(ctx, "", 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 events, got %d", len(all))
	}
	for i, event := range all {
		if event.Cycle != uint64(i+1) {
			t.Fatalf("position %d: expected cycle %d, got %d", i, i+1, event.Cycle)
		}
		if event.SchemaVersion != CurrentSchemaVersion {
			t.Fatalf("expected stamped event, got schema version %d", event.SchemaVersion)
		}
	}

	filtered, err := store.ListEvents(ctx, "tron_a", 0)
	if err != nil {
		t.Fatalf("list filtered events: %v", err)
	}
	if len(filtered) != 3 {
		t.Fatalf("expected 3 events for tron_a, got %d", len(filtered))
	}

	recent, err := store.ListEvents(ctx, "", 2)
	if err != nil {
		t.Fatalf("list recent events: %v", err)
	}
	if len(recent) != 2 || recent[0].Cycle != 4 || recent[1].Cycle != 5 {
		t.Fatalf("expected cycles [4 5], got %+v", recent)
	}

	recentFiltered, err := store.ListEvents(ctx, "tron_a", 1)
	if err != nil {
		t.Fatalf("list recent filtered events: %v", err)
	}
	if len(recentFiltered) != 1 || recentFiltered[0].Cycle != 5 {
		t.Fatalf("expected latest tron_a event at cycle 5, got %+v", recentFiltered)
	}
}

func TestMemoryStoreCycleSummariesOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	summaries := []model.CycleSummary{
		{RunID: "run-b", Cycle: 2, Population: 5},
		{RunID: "run-a", Cycle: 5, Population: 7},
		{RunID: "run-a", Cycle: 1, Population: 9},
	}
	for _, summary := range summaries {
		if err := store.SaveCycleSummary(ctx, summary); err != nil {
			t.Fatalf("save summary %s/%d: %v", summary.RunID, summary.Cycle, err)
		}
	}

	all, err := store.ListCycleSummaries(ctx, "")
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(all))
	}
	if all[0].RunID != "run-a" || all[0].Cycle != 1 || all[2].RunID != "run-b" {
		t.Fatalf("unexpected order: %+v", all)
	}

	filtered, err := store.ListCycleSummaries(ctx, "run-a")
	if err != nil {
		t.Fatalf("list filtered summaries: %v", err)
	}
	if len(filtered) != 2 || filtered[0].Cycle != 1 || filtered[1].Cycle != 5 {
		t.Fatalf("unexpected filtered summaries: %+v", filtered)
	}
}

func TestMemoryStoreUpsertCycleSummary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveCycleSummary(ctx, model.CycleSummary{RunID: "run-a", Cycle: 1, Population: 9}); err != nil {
		t.Fatalf("save summary: %v", err)
	}
	if err := store.SaveCycleSummary(ctx, model.CycleSummary{RunID: "run-a", Cycle: 1, Population: 8}); err != nil {
		t.Fatalf("resave summary: %v", err)
	}

	listed, err := store.ListCycleSummaries(ctx, "run-a")
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(listed) != 1 || listed[0].Population != 8 {
		t.Fatalf("expected single updated summary, got %+v", listed)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveOrganism(ctx, storedOrganism("tron_a")); err != nil {
		t.Fatalf("save organism: %v", err)
	}
	if err := store.AppendEvent(ctx, storedEvent("evt-1", "tron_a", 1)); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := store.SaveCycleSummary(ctx, model.CycleSummary{RunID: "run-a", Cycle: 1}); err != nil {
		t.Fatalf("save summary: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	organisms, err := store.ListOrganisms(ctx)
	if err != nil {
		t.Fatalf("list organisms: %v", err)
	}
	events, err := store.ListEvents(ctx, "", 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	summaries, err := store.ListCycleSummaries(ctx, "")
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(organisms) != 0 || len(events) != 0 || len(summaries) != 0 {
		t.Fatalf("expected empty store, got %d organisms, %d events, %d summaries", len(organisms), len(events), len(summaries))
	}

	if err := store.SaveOrganism(ctx, storedOrganism("tron_b")); err != nil {
		t.Fatalf("save after reset: %v", err)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.SaveOrganism(ctx, storedOrganism("tron_a")); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected uninitialized error, got: %v", err)
	}
	if _, _, err := store.GetOrganism(ctx, "tron_a"); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected uninitialized error, got: %v", err)
	}
	if _, err := store.ListEvents(ctx, "", 0); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected uninitialized error, got: %v", err)
	}
}
