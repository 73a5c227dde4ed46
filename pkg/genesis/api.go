package genesis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"genesis/internal/discovery"
	"genesis/internal/evo"
	"genesis/internal/model"
	"genesis/internal/platform"
	"genesis/internal/stats"
	"genesis/internal/storage"
)

const (
	defaultRunsDir           = "runs"
	defaultExportsDir        = "exports"
	defaultDBPath            = "genesis.db"
	defaultInitialPopulation = 10
	defaultRunCycles         = 10
	defaultTopLimit          = 10
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string

	MaxOrganisms      int
	InitialPopulation int
	CycleLimit        uint64
	SelectionPressure float64
	Workers           int
	Seed              int64
	MateSelector      evo.MateSelector

	Logger *zap.Logger
}

// Client wraps one biosphere and its store behind plain request and
// summary structs. The biosphere comes up lazily on first use so a
// Client is cheap to construct.
type Client struct {
	store     storage.Store
	biosphere *platform.Biosphere
	cfg       platform.Config

	runsDir    string
	exportsDir string
}

type RunRequest struct {
	Cycles int
}

type RunSummary struct {
	RunID             string
	ArtifactsDir      string
	CyclesRun         uint64
	InitialPopulation int
	FinalPopulation   int
	TotalBirths       int
	TotalDeaths       int
	BestFitness       float64
	NetworkHealth     float64
	FitnessCurve      []float64
	PopulationCurve   []int
	Extinct           bool
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID           string
	CreatedAtUTC    string
	CyclesRun       uint64
	FinalPopulation int
	BestFitness     float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type LineageRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type EventsRequest struct {
	OrganismID string
	Limit      int
}

type TopRequest struct {
	Limit int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	initialPopulation := opts.InitialPopulation
	if initialPopulation <= 0 {
		initialPopulation = defaultInitialPopulation
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store: store,
		cfg: platform.Config{
			Store:             store,
			MaxOrganisms:      opts.MaxOrganisms,
			InitialPopulation: initialPopulation,
			CycleLimit:        opts.CycleLimit,
			SelectionPressure: opts.SelectionPressure,
			Workers:           opts.Workers,
			Seed:              opts.Seed,
			MateSelector:      opts.MateSelector,
			Logger:            opts.Logger,
		},
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	if c.biosphere != nil {
		b := c.biosphere
		c.biosphere = nil
		return b.Close()
	}
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureBiosphere(ctx)
	return err
}

func (c *Client) SpawnOrganism(ctx context.Context) (model.OrganismRecord, error) {
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return model.OrganismRecord{}, err
	}
	return b.SpawnOrganism(ctx)
}

func (c *Client) EvolveOrganism(ctx context.Context, organismID string) (model.EvolutionEvent, error) {
	if organismID == "" {
		return model.EvolutionEvent{}, errors.New("organism id is required")
	}
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return model.EvolutionEvent{}, err
	}
	return b.EvolveOrganism(ctx, organismID)
}

// Run drives a batch of evolution cycles and archives the outcome under
// the runs directory. Extinction and a configured cycle limit end the
// run early but still leave artifacts; the summary reports what ran.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Cycles <= 0 {
		req.Cycles = defaultRunCycles
	}

	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	summary, runErr := b.RunCycles(ctx, req.Cycles)
	if runErr != nil &&
		!errors.Is(runErr, platform.ErrPopulationExtinct) &&
		!errors.Is(runErr, platform.ErrCycleLimitReached) {
		return RunSummary{}, runErr
	}

	organisms, err := b.Store().ListOrganisms(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	cycles, err := b.Store().ListCycleSummaries(ctx, summary.RunID)
	if err != nil {
		return RunSummary{}, err
	}
	events, err := b.Store().ListEvents(ctx, "", 0)
	if err != nil {
		return RunSummary{}, err
	}
	events = eventsInWindow(events, cycles)

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Summary:   summary,
		Cycles:    cycles,
		Organisms: organisms,
		Events:    events,
		Top:       stats.TopOrganisms(organisms, defaultTopLimit),
		Lineage:   stats.BuildLineage(organisms),
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.WriteRunReport(runDir, stats.BuildRunReport(summary)); err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:           summary.RunID,
		CyclesRun:       summary.CyclesRun,
		FinalPopulation: summary.FinalPopulation,
		BestFitness:     summary.BestFitness,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:             summary.RunID,
		ArtifactsDir:      filepath.Clean(runDir),
		CyclesRun:         summary.CyclesRun,
		InitialPopulation: summary.InitialPopulation,
		FinalPopulation:   summary.FinalPopulation,
		TotalBirths:       summary.TotalBirths,
		TotalDeaths:       summary.TotalDeaths,
		BestFitness:       summary.BestFitness,
		NetworkHealth:     summary.NetworkHealth,
		FitnessCurve:      append([]float64(nil), summary.FitnessCurve...),
		PopulationCurve:   append([]int(nil), summary.PopulationCurve...),
		Extinct:           errors.Is(runErr, platform.ErrPopulationExtinct),
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:           e.RunID,
			CreatedAtUTC:    e.CreatedAtUTC,
			CyclesRun:       e.CyclesRun,
			FinalPopulation: e.FinalPopulation,
			BestFitness:     e.BestFitness,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.runsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) Lineage(_ context.Context, req LineageRequest) ([]stats.LineageEntry, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return nil, errors.New("lineage requires run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.runsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}

	lineage, ok, err := stats.ReadLineage(c.runsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lineage not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(lineage) > req.Limit {
		lineage = lineage[:req.Limit]
	}
	return lineage, nil
}

// Events returns the evolution trail from the store, oldest first. An
// empty organism ID covers the whole population; a positive limit keeps
// the most recent events.
func (c *Client) Events(ctx context.Context, req EventsRequest) ([]model.EvolutionEvent, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return nil, err
	}
	return b.Store().ListEvents(ctx, req.OrganismID, req.Limit)
}

func (c *Client) Population(ctx context.Context) ([]model.OrganismRecord, error) {
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return nil, err
	}
	return b.Population(), nil
}

// Organism reads one record, preferring the live population over the
// store so current vitals win over the last persisted snapshot.
func (c *Client) Organism(ctx context.Context, id string) (model.OrganismRecord, error) {
	if id == "" {
		return model.OrganismRecord{}, errors.New("organism id is required")
	}
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return model.OrganismRecord{}, err
	}
	if rec, ok := b.Organism(id); ok {
		return rec, nil
	}
	rec, ok, err := b.Store().GetOrganism(ctx, id)
	if err != nil {
		return model.OrganismRecord{}, err
	}
	if !ok {
		return model.OrganismRecord{}, fmt.Errorf("organism not found: %s", id)
	}
	return rec, nil
}

func (c *Client) Top(ctx context.Context, req TopRequest) ([]stats.TopOrganism, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if req.Limit == 0 {
		req.Limit = defaultTopLimit
	}
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return nil, err
	}
	records, err := b.Store().ListOrganisms(ctx)
	if err != nil {
		return nil, err
	}
	return stats.TopOrganisms(records, req.Limit), nil
}

func (c *Client) Stats(ctx context.Context) (model.EvolutionStats, error) {
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return model.EvolutionStats{}, err
	}
	return b.Stats(), nil
}

func (c *Client) Network(ctx context.Context) (platform.NetworkStats, error) {
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return platform.NetworkStats{}, err
	}
	return b.NetworkStats(), nil
}

func (c *Client) NetworkHealth(ctx context.Context) (float64, error) {
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return 0, err
	}
	return b.NetworkHealth(), nil
}

func (c *Client) Topology(ctx context.Context) (discovery.TopologyMetrics, error) {
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return discovery.TopologyMetrics{}, err
	}
	return b.Topology(), nil
}

// Reset wipes the store and restarts the biosphere with a fresh founder
// population. Run artifacts on disk are left alone.
func (c *Client) Reset(ctx context.Context) error {
	b, err := c.ensureBiosphere(ctx)
	if err != nil {
		return err
	}
	return b.Reset(ctx)
}

func (c *Client) ensureBiosphere(ctx context.Context) (*platform.Biosphere, error) {
	if c.biosphere != nil {
		return c.biosphere, nil
	}
	b := platform.New(c.cfg)
	if err := b.Init(ctx); err != nil {
		return nil, err
	}
	c.biosphere = b
	return c.biosphere, nil
}

// eventsInWindow keeps the events that fall inside the run's cycle
// range. The store's trail spans every run; cycle numbers scope it.
func eventsInWindow(events []model.EvolutionEvent, cycles []model.CycleSummary) []model.EvolutionEvent {
	if len(cycles) == 0 {
		return nil
	}
	first := cycles[0].Cycle
	last := cycles[len(cycles)-1].Cycle
	out := make([]model.EvolutionEvent, 0, len(events))
	for _, event := range events {
		if event.Cycle >= first && event.Cycle <= last {
			out = append(out, event)
		}
	}
	return out
}
