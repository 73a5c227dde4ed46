//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genesis/internal/stats"
)

func TestRunCommandSQLiteCreatesArtifacts(t *testing.T) {
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	workdir := t.TempDir()
	if err := os.Chdir(workdir); err != nil {
		t.Fatalf("chdir tempdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origWD)
	})

	dbPath := filepath.Join(workdir, "genesis.db")
	args := []string{
		"run",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--cycles", "2",
		"--pop", "3",
		"--seed", "11",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("run command: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	entries, err := stats.ListRunIndex("runs")
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one indexed run")
	}
	if entries[0].CyclesRun != 2 || entries[0].FinalPopulation != 3 {
		t.Fatalf("unexpected index entry: %+v", entries[0])
	}

	for _, file := range []string{"summary.json", "cycles.json", "organisms.json", "events.json", "top_organisms.json", "lineage.json", "fitness_series.csv", "report.json"} {
		path := filepath.Join("runs", entries[0].RunID, file)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected artifact %s: %v", path, err)
		}
	}
}

func TestOrganismCommandSQLiteReadsArchivedSurvivor(t *testing.T) {
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	workdir := t.TempDir()
	if err := os.Chdir(workdir); err != nil {
		t.Fatalf("chdir tempdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origWD)
	})

	dbPath := filepath.Join(workdir, "genesis.db")
	if err := run(context.Background(), []string{
		"run",
		"--store", "sqlite",
		"--db-path", dbPath,
		"--cycles", "1",
		"--pop", "2",
		"--seed", "17",
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}

	entries, err := stats.ListRunIndex("runs")
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected an indexed run")
	}
	topRanked, ok, err := stats.ReadTopOrganisms("runs", entries[0].RunID)
	if err != nil {
		t.Fatalf("read top organisms: %v", err)
	}
	if !ok || len(topRanked) == 0 {
		t.Fatal("expected ranked organisms in artifacts")
	}
	survivorID := topRanked[0].Record.ID

	output, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"organism",
			"--store", "sqlite",
			"--db-path", dbPath,
			"--id", survivorID,
		})
	})
	if err != nil {
		t.Fatalf("organism command: %v", err)
	}
	if !strings.Contains(output, "organism_id="+survivorID) {
		t.Fatalf("expected archived organism in output: %q", output)
	}
	if !strings.Contains(output, "generation=1") {
		t.Fatalf("expected one generation of evolution, got %q", output)
	}

	eventsOut, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"events",
			"--store", "sqlite",
			"--db-path", dbPath,
		})
	})
	if err != nil {
		t.Fatalf("events command: %v", err)
	}
	if strings.Count(eventsOut, "event_id=") != 2 {
		t.Fatalf("expected two archived events, got %q", eventsOut)
	}
}
