package stats

import (
	"sort"

	"genesis/internal/model"
	"genesis/internal/storage"
)

// BuildRunSummary folds a run's cycle summaries into the persisted run
// record. Cycles arrive in cycle order, as ListCycleSummaries returns
// them.
func BuildRunSummary(runID string, startedAt, completedAt int64, initialPopulation int, cycles []model.CycleSummary) model.RunSummary {
	summary := model.RunSummary{
		VersionedRecord:   storage.Stamp(),
		RunID:             runID,
		StartedAt:         startedAt,
		CompletedAt:       completedAt,
		CyclesRun:         uint64(len(cycles)),
		InitialPopulation: initialPopulation,
		FinalPopulation:   initialPopulation,
		FitnessCurve:      make([]float64, 0, len(cycles)),
		PopulationCurve:   make([]int, 0, len(cycles)),
	}
	for _, cycle := range cycles {
		summary.FitnessCurve = append(summary.FitnessCurve, cycle.AverageFitness)
		summary.PopulationCurve = append(summary.PopulationCurve, cycle.Population)
		summary.TotalEliminated += cycle.Eliminated
		summary.TotalBirths += cycle.Births
		summary.TotalDeaths += cycle.Deaths
		if cycle.MaxFitness > summary.BestFitness {
			summary.BestFitness = cycle.MaxFitness
		}
		summary.FinalPopulation = cycle.Population
		summary.NetworkHealth = cycle.NetworkHealth
	}
	return summary
}

type TopOrganism struct {
	Rank    int                  `json:"rank"`
	Fitness float64              `json:"fitness"`
	Record  model.OrganismRecord `json:"record"`
}

// TopOrganisms ranks records by genome fitness, best first. Ties break
// by organism ID so repeated calls rank identically.
func TopOrganisms(records []model.OrganismRecord, n int) []TopOrganism {
	ranked := append([]model.OrganismRecord(nil), records...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Genome.Fitness != ranked[j].Genome.Fitness {
			return ranked[i].Genome.Fitness > ranked[j].Genome.Fitness
		}
		return ranked[i].ID < ranked[j].ID
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	top := make([]TopOrganism, 0, len(ranked))
	for i, rec := range ranked {
		top = append(top, TopOrganism{Rank: i + 1, Fitness: rec.Genome.Fitness, Record: rec})
	}
	return top
}

type LineageEntry struct {
	OrganismID    string `json:"organism_id"`
	Hash          string `json:"hash"`
	ParentHash    string `json:"parent_hash,omitempty"`
	Generation    uint64 `json:"generation"`
	KeyGeneration uint64 `json:"key_generation"`
	Mutations     int    `json:"mutations"`
}

// BuildLineage projects the population's ancestry: one entry per
// organism, ordered by generation then ID so parents precede children.
func BuildLineage(records []model.OrganismRecord) []LineageEntry {
	entries := make([]LineageEntry, 0, len(records))
	for _, rec := range records {
		entry := LineageEntry{
			OrganismID:    rec.ID,
			Hash:          rec.Genome.Hash,
			Generation:    rec.Genome.Generation,
			KeyGeneration: rec.Genome.KeyGeneration,
			Mutations:     len(rec.Genome.MutationLog),
		}
		if rec.Genome.ParentHash != nil {
			entry.ParentHash = *rec.Genome.ParentHash
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Generation != entries[j].Generation {
			return entries[i].Generation < entries[j].Generation
		}
		return entries[i].OrganismID < entries[j].OrganismID
	})
	return entries
}
