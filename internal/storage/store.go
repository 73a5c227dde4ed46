package storage

import (
	"context"

	"genesis/internal/model"
)

// Store defines persistence for biosphere records: organism snapshots,
// the evolution event log, and per-cycle summaries. Only serializable
// projections pass through here; live key material has no serializable
// form and cannot reach a Store.
type Store interface {
	Init(ctx context.Context) error
	SaveOrganism(ctx context.Context, rec model.OrganismRecord) error
	GetOrganism(ctx context.Context, id string) (model.OrganismRecord, bool, error)
	ListOrganisms(ctx context.Context) ([]model.OrganismRecord, error)
	DeleteOrganism(ctx context.Context, id string) error
	AppendEvent(ctx context.Context, event model.EvolutionEvent) error
	ListEvents(ctx context.Context, organismID string, limit int) ([]model.EvolutionEvent, error)
	SaveCycleSummary(ctx context.Context, summary model.CycleSummary) error
	ListCycleSummaries(ctx context.Context, runID string) ([]model.CycleSummary, error)
	Reset(ctx context.Context) error
}
