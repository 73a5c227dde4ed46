package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"genesis/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type cycleKey struct {
	runID string
	cycle uint64
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	organisms   map[string]model.OrganismRecord
	events      []model.EvolutionEvent
	cycles      map[cycleKey]model.CycleSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.organisms = make(map[string]model.OrganismRecord)
	s.events = nil
	s.cycles = make(map[cycleKey]model.CycleSummary)
	return nil
}

func (s *MemoryStore) SaveOrganism(_ context.Context, rec model.OrganismRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	stampOrganism(&rec)
	s.organisms[rec.ID] = copyOrganism(rec)
	return nil
}

func (s *MemoryStore) GetOrganism(_ context.Context, id string) (model.OrganismRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.OrganismRecord{}, false, errNotInitialized
	}
	rec, ok := s.organisms[id]
	if !ok {
		return model.OrganismRecord{}, false, nil
	}
	return copyOrganism(rec), true, nil
}

func (s *MemoryStore) ListOrganisms(_ context.Context) ([]model.OrganismRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.OrganismRecord, 0, len(s.organisms))
	for _, rec := range s.organisms {
		out = append(out, copyOrganism(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) DeleteOrganism(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	delete(s.organisms, id)
	return nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, event model.EvolutionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	event.VersionedRecord = Stamp()
	s.events = append(s.events, event)
	return nil
}

// ListEvents returns events in append order. A non-empty organismID
// filters to that organism; a positive limit keeps only the most recent
// limit events.
func (s *MemoryStore) ListEvents(_ context.Context, organismID string, limit int) ([]model.EvolutionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.EvolutionEvent, 0, len(s.events))
	for _, event := range s.events {
		if organismID != "" && event.OrganismID != organismID {
			continue
		}
		out = append(out, event)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryStore) SaveCycleSummary(_ context.Context, summary model.CycleSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	summary.VersionedRecord = Stamp()
	s.cycles[cycleKey{summary.RunID, summary.Cycle}] = summary
	return nil
}

// ListCycleSummaries returns summaries ordered by run ID then cycle. An
// empty runID lists every run.
func (s *MemoryStore) ListCycleSummaries(_ context.Context, runID string) ([]model.CycleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	out := make([]model.CycleSummary, 0, len(s.cycles))
	for key, summary := range s.cycles {
		if runID != "" && key.runID != runID {
			continue
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RunID != out[j].RunID {
			return out[i].RunID < out[j].RunID
		}
		return out[i].Cycle < out[j].Cycle
	})
	return out, nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

// copyOrganism detaches the record's nested slices so callers and the
// store cannot mutate each other's copy.
func copyOrganism(rec model.OrganismRecord) model.OrganismRecord {
	out := rec
	out.Genome.Sequence = append([]byte(nil), rec.Genome.Sequence...)
	out.Genome.PublicKey = append([]byte(nil), rec.Genome.PublicKey...)
	out.Genome.DerivationPath = append([]uint32(nil), rec.Genome.DerivationPath...)
	out.Genome.MutationLog = append(model.MutationLog(nil), rec.Genome.MutationLog...)
	if rec.Genome.ParentHash != nil {
		hash := *rec.Genome.ParentHash
		out.Genome.ParentHash = &hash
	}
	return out
}
