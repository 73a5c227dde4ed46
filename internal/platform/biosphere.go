// Package platform runs the biosphere: the living population, the
// evolution engine driving it, and the store that records what
// happened. All access to organisms and the engine is serialized here;
// the lower layers carry no locks of their own.
package platform

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"genesis/internal/collective"
	"genesis/internal/discovery"
	"genesis/internal/evo"
	"genesis/internal/model"
	"genesis/internal/neural"
	"genesis/internal/organism"
	"genesis/internal/stats"
	"genesis/internal/storage"
)

// Protocol limits carried by every biosphere regardless of configuration.
const (
	ProtocolVersion        = "1.0.0"
	MaxOrganismsPerNetwork = 1_000_000
	MaxSynapsesPerOrganism = neural.DefaultMaxSynapses
	TargetNeuralLatency    = 10 * time.Microsecond
	MaxEvolutionTime       = time.Second
)

// MaxOrganismAge is the hard lifespan bound: organisms past it die in
// the next death sweep regardless of vitals.
const MaxOrganismAge = 120

// DefaultSweepInterval paces the background synapse sweep.
const DefaultSweepInterval = 30 * time.Second

const synapseSweepTask = "synapse-sweep"

var (
	ErrPopulationExtinct = errors.New("population is extinct")
	ErrCycleLimitReached = errors.New("cycle limit reached")
	ErrCapacityReached   = errors.New("organism capacity reached")
)

// Config tunes a biosphere.
type Config struct {
	// Store is used directly when set; otherwise Init builds one from
	// StoreKind and DBPath.
	Store     storage.Store
	StoreKind string
	DBPath    string

	// MaxOrganisms caps the population; zero means the protocol limit.
	MaxOrganisms int
	// InitialPopulation is the number of founders Init spawns.
	InitialPopulation int
	// CycleLimit bounds the engine's total completed cycles across all
	// runs; zero means unbounded.
	CycleLimit uint64
	// SelectionPressure sets the per-cycle fitness bar. Zero keeps the
	// engine default of 0.5; negative values disable culling.
	SelectionPressure float64
	// Workers bounds the maintenance pool; zero means one.
	Workers int
	// Seed fixes the random stream; zero seeds from the clock.
	Seed int64
	// SweepInterval paces the background synapse sweep; zero means
	// DefaultSweepInterval.
	SweepInterval time.Duration
	// Params tunes the evolution engine; a zero value means defaults.
	Params evo.Parameters
	// MateSelector picks reproduction partners; nil means fitness-
	// weighted selection at half strength.
	MateSelector evo.MateSelector

	Logger *zap.Logger
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

// ProtocolInfo reports the protocol constants in serializable form.
type ProtocolInfo struct {
	ProtocolVersion        string `json:"protocol_version"`
	MaxOrganisms           int    `json:"max_organisms"`
	MaxSynapsesPerOrganism int    `json:"max_synapses_per_organism"`
	TargetNeuralLatencyNS  int64  `json:"target_neural_latency_ns"`
	MaxEvolutionTimeMS     int64  `json:"max_evolution_time_ms"`
}

// Info returns the protocol constants.
func Info() ProtocolInfo {
	return ProtocolInfo{
		ProtocolVersion:        ProtocolVersion,
		MaxOrganisms:           MaxOrganismsPerNetwork,
		MaxSynapsesPerOrganism: MaxSynapsesPerOrganism,
		TargetNeuralLatencyNS:  TargetNeuralLatency.Nanoseconds(),
		MaxEvolutionTimeMS:     MaxEvolutionTime.Milliseconds(),
	}
}

// NetworkStats summarizes the live population.
type NetworkStats struct {
	TotalOrganisms  int     `json:"total_organisms"`
	ActiveOrganisms int     `json:"active_organisms"`
	TotalSynapses   int     `json:"total_synapses"`
	AverageFitness  float64 `json:"average_fitness"`
	NetworkHealth   float64 `json:"network_health"`
}

// Biosphere owns one population and everything that happens to it.
type Biosphere struct {
	mu sync.RWMutex

	store      storage.Store
	engine     *evo.Engine
	rng        *rand.Rand
	log        *zap.Logger
	selector   evo.MateSelector
	registry   *discovery.Registry
	collective *collective.Coordinator
	super      *Supervisor

	population map[string]*organism.Organism
	runs       map[string]model.RunSummary
	lastRunID  string

	started        bool
	lastStopReason StopReason

	seed         int64
	maxOrganisms int
	workers      int
	sweepEvery   time.Duration

	cfg Config
}

var (
	defaultBiosphereMu sync.Mutex
	defaultBiosphere   *Biosphere
)

func New(cfg Config) *Biosphere {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	maxOrganisms := cfg.MaxOrganisms
	if maxOrganisms <= 0 {
		maxOrganisms = MaxOrganismsPerNetwork
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	sweepEvery := cfg.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepInterval
	}
	selector := cfg.MateSelector
	if selector == nil {
		selector = evo.FitnessWeightedSelector{Strength: 0.5}
	}

	b := &Biosphere{
		store:          cfg.Store,
		rng:            rand.New(rand.NewSource(seed)),
		log:            log,
		selector:       selector,
		registry:       discovery.NewRegistry(),
		collective:     collective.New(),
		population:     make(map[string]*organism.Organism),
		runs:           make(map[string]model.RunSummary),
		lastStopReason: StopReasonNormal,
		seed:           seed,
		maxOrganisms:   maxOrganisms,
		workers:        workers,
		sweepEvery:     sweepEvery,
		cfg:            cfg,
	}
	b.engine = b.newEngine()
	return b
}

// newEngine builds a fresh engine on the biosphere's random stream with
// the configured selection pressure applied. Zero pressure keeps the
// engine default, negative disables culling.
func (b *Biosphere) newEngine() *evo.Engine {
	engine := evo.New(b.cfg.Params, b.rng, b.log)
	if b.cfg.SelectionPressure > 0 {
		engine.SetSelectionPressure(b.cfg.SelectionPressure)
	} else if b.cfg.SelectionPressure < 0 {
		engine.SetSelectionPressure(0)
	}
	return engine
}

func StartDefault(ctx context.Context, cfg Config) (*Biosphere, error) {
	defaultBiosphereMu.Lock()
	defer defaultBiosphereMu.Unlock()

	if defaultBiosphere != nil && defaultBiosphere.Started() {
		return defaultBiosphere, nil
	}

	b := New(cfg)
	if err := b.Init(ctx); err != nil {
		return nil, err
	}
	defaultBiosphere = b
	return defaultBiosphere, nil
}

func Default() (*Biosphere, bool) {
	defaultBiosphereMu.Lock()
	b := defaultBiosphere
	defaultBiosphereMu.Unlock()

	if b == nil || !b.Started() {
		return nil, false
	}
	return b, true
}

func StopDefault(reason StopReason) error {
	defaultBiosphereMu.Lock()
	b := defaultBiosphere
	defaultBiosphereMu.Unlock()
	if b == nil {
		return nil
	}
	if err := b.StopWithReason(reason); err != nil {
		return err
	}
	defaultBiosphereMu.Lock()
	if defaultBiosphere == b {
		defaultBiosphere = nil
	}
	defaultBiosphereMu.Unlock()
	return nil
}

// Init brings the biosphere up: store, founder population, background
// maintenance. A failure mid-spawn rolls the population back so a
// retried Init starts clean.
func (b *Biosphere) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}
	if b.maxOrganisms > MaxOrganismsPerNetwork {
		return fmt.Errorf("max organisms %d exceeds protocol limit %d", b.maxOrganisms, MaxOrganismsPerNetwork)
	}
	if b.cfg.InitialPopulation < 0 {
		return fmt.Errorf("initial population must not be negative: %d", b.cfg.InitialPopulation)
	}
	if b.cfg.InitialPopulation > b.maxOrganisms {
		return fmt.Errorf("initial population %d exceeds capacity %d", b.cfg.InitialPopulation, b.maxOrganisms)
	}
	if b.store == nil {
		store, err := storage.NewStore(b.cfg.StoreKind, b.cfg.DBPath)
		if err != nil {
			return err
		}
		b.store = store
		b.log.Info("store opened", zap.String("kind", storeKind(b.cfg.StoreKind)))
	}
	if err := b.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	for i := 0; i < b.cfg.InitialPopulation; i++ {
		o, err := organism.New(b.rng)
		if err != nil {
			b.abandonPopulation(ctx)
			return fmt.Errorf("spawn founder %d: %w", i, err)
		}
		if err := b.store.SaveOrganism(ctx, o.Record()); err != nil {
			o.Destroy()
			b.abandonPopulation(ctx)
			return fmt.Errorf("persist founder %s: %w", o.ID, err)
		}
		b.population[o.ID] = o
		b.registry.Register(o.ID, "")
	}

	b.super = NewSupervisorWithHooks(SupervisorPolicy{}, SupervisorHooks{
		OnTaskRestart: func(name string, err error, restarts int) {
			b.log.Warn("maintenance task restarted",
				zap.String("task", name), zap.Int("restarts", restarts), zap.Error(err))
		},
		OnTaskPermanentFailure: func(name string, err error, restarts int) {
			b.log.Error("maintenance task failed permanently",
				zap.String("task", name), zap.Int("restarts", restarts), zap.Error(err))
		},
	})
	if err := b.super.Start(synapseSweepTask, b.sweepSynapses); err != nil {
		b.super = nil
		b.abandonPopulation(ctx)
		return fmt.Errorf("start %s: %w", synapseSweepTask, err)
	}

	b.started = true
	b.log.Info("biosphere initialized",
		zap.Int("population", len(b.population)),
		zap.Int("workers", b.workers),
		zap.Int64("seed", b.seed))
	return nil
}

// abandonPopulation rolls back a partially spawned population. Guarded
// key material is released, persisted founders are removed best-effort
// and the registry cleared, so a retried Init starts clean.
func (b *Biosphere) abandonPopulation(ctx context.Context) {
	for id, o := range b.population {
		o.Destroy()
		if b.store != nil {
			_ = b.store.DeleteOrganism(ctx, id)
		}
	}
	b.population = make(map[string]*organism.Organism)
	b.registry = discovery.NewRegistry()
}

func (b *Biosphere) Stop() {
	_ = b.StopWithReason(StopReasonNormal)
}

func (b *Biosphere) Shutdown() {
	_ = b.StopWithReason(StopReasonShutdown)
}

// StopWithReason tears the biosphere down: background maintenance is
// halted first, outside the population lock, then every organism's key
// material is released and the live state cleared. The store survives a
// stop so Reset can wipe it and Close can release it.
func (b *Biosphere) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	b.mu.Lock()
	super := b.super
	b.super = nil
	b.mu.Unlock()
	if super != nil {
		super.StopAll()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.population {
		o.Destroy()
	}
	b.population = make(map[string]*organism.Organism)
	b.registry = discovery.NewRegistry()
	b.collective = collective.New()
	b.engine = b.newEngine()
	b.runs = make(map[string]model.RunSummary)
	b.lastRunID = ""
	b.started = false
	b.lastStopReason = reason
	b.log.Info("biosphere stopped", zap.String("reason", string(reason)))
	return nil
}

// Reset stops the biosphere, wipes the store and brings everything back
// up with a fresh founder population.
func (b *Biosphere) Reset(ctx context.Context) error {
	_ = b.StopWithReason(StopReasonShutdown)
	if b.store != nil {
		if err := b.store.Reset(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
	}
	return b.Init(ctx)
}

// Close stops the biosphere and releases the store.
func (b *Biosphere) Close() error {
	if err := b.StopWithReason(StopReasonShutdown); err != nil {
		return err
	}
	b.mu.Lock()
	store := b.store
	b.store = nil
	b.mu.Unlock()
	if store == nil {
		return nil
	}
	return storage.CloseIfSupported(store)
}

// SpawnOrganism births one organism with a fresh genome and persists
// its record.
func (b *Biosphere) SpawnOrganism(ctx context.Context) (model.OrganismRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return model.OrganismRecord{}, fmt.Errorf("biosphere is not initialized")
	}
	if len(b.population) >= b.maxOrganisms {
		return model.OrganismRecord{}, fmt.Errorf("%w: %d organisms, capacity %d",
			ErrCapacityReached, len(b.population), b.maxOrganisms)
	}
	o, err := organism.New(b.rng)
	if err != nil {
		return model.OrganismRecord{}, err
	}
	rec := o.Record()
	if err := b.store.SaveOrganism(ctx, rec); err != nil {
		o.Destroy()
		return model.OrganismRecord{}, fmt.Errorf("persist organism %s: %w", o.ID, err)
	}
	b.population[o.ID] = o
	b.registry.Register(o.ID, "")
	b.log.Info("organism spawned", zap.String("organism", o.ID))
	return rec, nil
}

// EvolveOrganism runs a single evolution attempt against one organism
// and persists both the event and the updated record.
func (b *Biosphere) EvolveOrganism(ctx context.Context, organismID string) (model.EvolutionEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return model.EvolutionEvent{}, fmt.Errorf("biosphere is not initialized")
	}
	o, ok := b.population[organismID]
	if !ok {
		return model.EvolutionEvent{}, fmt.Errorf("organism not found: %s", organismID)
	}
	if !o.Alive() {
		return model.EvolutionEvent{}, fmt.Errorf("organism is dead: %s", organismID)
	}

	event, err := b.engine.EvolveOrganism(o.ID, o.Genome)
	if err != nil {
		return model.EvolutionEvent{}, err
	}
	o.MarkEvolved()
	if err := b.store.AppendEvent(ctx, event); err != nil {
		return model.EvolutionEvent{}, fmt.Errorf("record evolution event: %w", err)
	}
	if err := b.store.SaveOrganism(ctx, o.Record()); err != nil {
		return model.EvolutionEvent{}, fmt.Errorf("save organism %s: %w", o.ID, err)
	}
	return event, nil
}

// RunCycles drives n evolution cycles and returns the summary of the
// cycles that completed. A run cut short mid-way still reports its
// completed cycles: the summary comes back alongside
// ErrCycleLimitReached, ErrPopulationExtinct or the context error.
func (b *Biosphere) RunCycles(ctx context.Context, n int) (model.RunSummary, error) {
	if n <= 0 {
		return model.RunSummary{}, fmt.Errorf("cycle count must be positive: %d", n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return model.RunSummary{}, fmt.Errorf("biosphere is not initialized")
	}

	runID := "run_" + uuid.New().String()[:8]
	startedAt := time.Now().Unix()
	initial := len(b.population)
	summaries := make([]model.CycleSummary, 0, n)

	finish := func(err error) (model.RunSummary, error) {
		summary := stats.BuildRunSummary(runID, startedAt, time.Now().Unix(), initial, summaries)
		b.runs[runID] = summary
		b.lastRunID = runID
		b.log.Info("run finished",
			zap.String("run", runID),
			zap.Uint64("cycles", summary.CyclesRun),
			zap.Int("population", summary.FinalPopulation),
			zap.Float64("best_fitness", summary.BestFitness))
		return summary, err
	}

	b.log.Info("run started",
		zap.String("run", runID), zap.Int("cycles", n), zap.Int("population", initial))

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if b.cfg.CycleLimit > 0 && b.engine.Cycle() >= b.cfg.CycleLimit {
			return finish(fmt.Errorf("%w: %d cycles", ErrCycleLimitReached, b.cfg.CycleLimit))
		}
		if len(b.population) == 0 {
			return finish(fmt.Errorf("%w: run %s", ErrPopulationExtinct, runID))
		}
		summary, err := b.runCycle(ctx, runID)
		if err != nil {
			return finish(err)
		}
		summaries = append(summaries, summary)
	}
	return finish(nil)
}

// runCycle executes one full cycle: evolution, maintenance, selection,
// reproduction, death sweep, summary. Callers hold b.mu.
func (b *Biosphere) runCycle(ctx context.Context, runID string) (model.CycleSummary, error) {
	cycle := b.engine.Cycle()

	// Evolution. The engine owns the shared random stream, so mutation
	// draws run serially in ID order and a fixed seed replays exactly.
	for _, id := range b.sortedIDs() {
		o := b.population[id]
		event, err := b.engine.EvolveOrganism(o.ID, o.Genome)
		if err != nil {
			b.log.Debug("evolution refused", zap.String("organism", o.ID), zap.Error(err))
			continue
		}
		o.MarkEvolved()
		if err := b.store.AppendEvent(ctx, event); err != nil {
			return model.CycleSummary{}, fmt.Errorf("record evolution event: %w", err)
		}
	}

	// Maintenance. Decay, scoring and snapshotting touch one organism
	// each; the pool fans them out and merges under its own lock.
	for _, rec := range b.maintainPopulation() {
		if err := b.store.SaveOrganism(ctx, rec); err != nil {
			return model.CycleSummary{}, fmt.Errorf("save organism %s: %w", rec.ID, err)
		}
	}

	// Selection.
	subjects := make([]evo.Subject, 0, len(b.population))
	for _, id := range b.sortedIDs() {
		subjects = append(subjects, evo.Subject{ID: id, Genome: b.population[id].Genome})
	}
	_, eliminated := b.engine.ApplySelectionPressure(subjects)
	for _, id := range eliminated {
		b.population[id].MarkDead()
	}

	births, err := b.reproducePopulation(ctx)
	if err != nil {
		return model.CycleSummary{}, err
	}

	deaths, err := b.buryDead(ctx)
	if err != nil {
		return model.CycleSummary{}, err
	}

	avg, maxFitness, minFitness := b.fitnessSpread()
	summary := model.CycleSummary{
		RunID:          runID,
		Cycle:          cycle,
		Population:     len(b.population),
		Eliminated:     len(eliminated),
		Births:         births,
		Deaths:         deaths,
		AverageFitness: avg,
		MaxFitness:     maxFitness,
		MinFitness:     minFitness,
		MutationRate:   b.engine.MutationRate(),
		NetworkHealth:  b.networkHealthLocked(),
		Timestamp:      time.Now().Unix(),
	}
	if err := b.store.SaveCycleSummary(ctx, summary); err != nil {
		return model.CycleSummary{}, fmt.Errorf("save cycle summary: %w", err)
	}
	b.engine.AdvanceCycle()

	b.log.Info("cycle completed",
		zap.String("run", runID),
		zap.Uint64("cycle", cycle),
		zap.Int("population", summary.Population),
		zap.Int("eliminated", summary.Eliminated),
		zap.Int("births", births),
		zap.Int("deaths", deaths),
		zap.Float64("average_fitness", avg))
	return summary, nil
}

// maintainPopulation ages every organism's vitals, prunes idle synapses
// and feeds the resulting performance score back into each genome, then
// snapshots the records for persistence. Workers own distinct organisms;
// only the record merge is shared.
func (b *Biosphere) maintainPopulation() []model.OrganismRecord {
	organisms := make([]*organism.Organism, 0, len(b.population))
	for _, o := range b.population {
		organisms = append(organisms, o)
	}

	workerCount := b.workers
	if workerCount > len(organisms) {
		workerCount = len(organisms)
	}

	var (
		recordsMu sync.Mutex
		records   = make([]model.OrganismRecord, 0, len(organisms))
	)
	jobs := make(chan *organism.Organism)
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for o := range jobs {
				o.Tick()
				o.Synapses.Cleanup()
				o.Genome.UpdateFitness(scoreOrganism(o))
				rec := o.Record()
				recordsMu.Lock()
				records = append(records, rec)
				recordsMu.Unlock()
			}
		}()
	}
	for _, o := range organisms {
		jobs <- o
	}
	close(jobs)
	wg.Wait()

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// scoreOrganism converts an organism's vitals into the performance
// score fed back into its genome after each cycle.
func scoreOrganism(o *organism.Organism) float64 {
	return 0.4*o.Health + 0.4*o.Energy + 0.2*o.NeuralActivity
}

// reproducePopulation gives every reproduction-ready organism at most
// one mating attempt, capacity permitting. Newborns join the population
// immediately but only start evolving next cycle.
func (b *Biosphere) reproducePopulation(ctx context.Context) (int, error) {
	ready := make([]*organism.Organism, 0)
	for _, id := range b.sortedIDs() {
		o := b.population[id]
		if o.Alive() && o.CanReproduce() {
			ready = append(ready, o)
		}
	}
	if len(ready) < 2 {
		return 0, nil
	}

	births := 0
	for _, parent := range ready {
		if len(b.population) >= b.maxOrganisms {
			break
		}
		if !parent.CanReproduce() {
			continue // readiness spent by an earlier pairing this cycle
		}
		candidates := make([]evo.Subject, 0, len(ready)-1)
		for _, peer := range ready {
			if peer.ID == parent.ID || !peer.CanReproduce() {
				continue
			}
			candidates = append(candidates, evo.Subject{ID: peer.ID, Genome: peer.Genome})
		}
		if len(candidates) == 0 {
			break
		}
		mate, err := b.selector.PickMate(b.rng, candidates)
		if err != nil {
			return births, fmt.Errorf("pick mate for %s: %w", parent.ID, err)
		}
		child, err := parent.ReproduceWith(b.population[mate.ID], b.rng)
		if err != nil {
			b.log.Debug("reproduction refused",
				zap.String("parent", parent.ID), zap.String("partner", mate.ID), zap.Error(err))
			continue
		}
		b.population[child.ID] = child
		b.registry.Register(child.ID, "")
		if err := b.store.SaveOrganism(ctx, child.Record()); err != nil {
			return births, fmt.Errorf("persist newborn %s: %w", child.ID, err)
		}
		births++
		b.log.Info("organism born",
			zap.String("child", child.ID),
			zap.String("parent", parent.ID),
			zap.String("partner", mate.ID))
	}
	return births, nil
}

// buryDead removes eliminated and expired organisms from the population,
// the registry and the store, releasing their key material.
func (b *Biosphere) buryDead(ctx context.Context) (int, error) {
	deaths := 0
	for _, id := range b.sortedIDs() {
		o := b.population[id]
		if o.Alive() && !expired(o) {
			continue
		}
		o.MarkDead()
		o.Destroy()
		delete(b.population, id)
		_ = b.registry.Deregister(id)
		if err := b.store.DeleteOrganism(ctx, id); err != nil {
			return deaths, fmt.Errorf("delete organism %s: %w", id, err)
		}
		deaths++
		b.log.Info("organism died", zap.String("organism", id), zap.Uint64("age", o.Age))
	}
	return deaths, nil
}

// expired reports whether an organism has crossed the point of no
// return: past the lifespan bound, or terminal with collapsed health.
func expired(o *organism.Organism) bool {
	if o.Age > MaxOrganismAge {
		return true
	}
	return o.State == model.StateDying && o.Health < 0.1
}

// ConnectOrganisms opens a synapse between two living organisms and
// links them in the discovery topology.
func (b *Biosphere) ConnectOrganisms(fromID, toID string, nt neural.Neurotransmitter) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return "", fmt.Errorf("biosphere is not initialized")
	}
	from, ok := b.population[fromID]
	if !ok {
		return "", fmt.Errorf("organism not found: %s", fromID)
	}
	if _, ok := b.population[toID]; !ok {
		return "", fmt.Errorf("organism not found: %s", toID)
	}

	syn, err := from.EstablishSynapse(toID, nt)
	if err != nil {
		return "", err
	}
	if err := b.registry.Link(fromID, toID); err != nil {
		return "", err
	}
	return syn.ConnectionID, nil
}

// SendNeuralMessage transmits a signed message between two organisms:
// the sender's synapse models the delay, the signature is checked
// against the sender's public key, and the receiver folds the message
// into its awareness.
func (b *Biosphere) SendNeuralMessage(fromID, toID string, mt neural.MessageType, payload []byte) (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return 0, fmt.Errorf("biosphere is not initialized")
	}
	from, ok := b.population[fromID]
	if !ok {
		return 0, fmt.Errorf("organism not found: %s", fromID)
	}
	to, ok := b.population[toID]
	if !ok {
		return 0, fmt.Errorf("organism not found: %s", toID)
	}

	msg, delay, err := from.SendNeuralMessage(toID, mt, payload)
	if err != nil {
		return 0, err
	}
	if !from.Genome.VerifySignature(payload, msg.Signature) {
		return 0, fmt.Errorf("message signature rejected from %s", fromID)
	}
	if err := to.ReceiveNeuralMessage(msg); err != nil {
		return 0, err
	}
	return delay, nil
}

// Population snapshots every living organism, ordered by ID.
func (b *Biosphere) Population() []model.OrganismRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.OrganismRecord, 0, len(b.population))
	for _, id := range b.sortedIDs() {
		out = append(out, b.population[id].Record())
	}
	return out
}

// Organism snapshots one organism by ID.
func (b *Biosphere) Organism(id string) (model.OrganismRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.population[id]
	if !ok {
		return model.OrganismRecord{}, false
	}
	return o.Record(), true
}

// Stats snapshots the evolution engine.
func (b *Biosphere) Stats() model.EvolutionStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.engine.Stats()
}

// NetworkHealth averages population health, energy and fitness. An
// empty biosphere reports zero.
func (b *Biosphere) NetworkHealth() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.networkHealthLocked()
}

// NetworkStats summarizes the live population and its synapse fabric.
func (b *Biosphere) NetworkStats() NetworkStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ns := NetworkStats{TotalOrganisms: len(b.population)}
	var fitness float64
	for _, o := range b.population {
		if o.Alive() {
			ns.ActiveOrganisms++
		}
		ns.TotalSynapses += o.Synapses.Count()
		fitness += o.Genome.Fitness
	}
	if len(b.population) > 0 {
		ns.AverageFitness = fitness / float64(len(b.population))
	}
	ns.NetworkHealth = b.networkHealthLocked()
	return ns
}

// Topology reports the discovery graph metrics.
func (b *Biosphere) Topology() discovery.TopologyMetrics {
	b.mu.RLock()
	r := b.registry
	b.mu.RUnlock()
	return r.Topology()
}

// Collective exposes the group decision coordinator.
func (b *Biosphere) Collective() *collective.Coordinator {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collective
}

// RunSummary returns the summary of a completed run.
func (b *Biosphere) RunSummary(runID string) (model.RunSummary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	summary, ok := b.runs[runID]
	return summary, ok
}

// LastRun returns the most recently completed run's summary.
func (b *Biosphere) LastRun() (model.RunSummary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.lastRunID == "" {
		return model.RunSummary{}, false
	}
	summary, ok := b.runs[b.lastRunID]
	return summary, ok
}

// RunIDs lists completed runs in lexical order.
func (b *Biosphere) RunIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.runs))
	for id := range b.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Store exposes the archive for read paths such as export.
func (b *Biosphere) Store() storage.Store {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.store
}

func (b *Biosphere) Started() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.started
}

func (b *Biosphere) LastStopReason() StopReason {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastStopReason
}

// sweepSynapses periodically prunes idle synapses across the
// population. Cycle runs prune on their own; this sweep covers idle
// biospheres.
func (b *Biosphere) sweepSynapses(ctx context.Context) error {
	ticker := time.NewTicker(b.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.mu.Lock()
			pruned := 0
			for _, o := range b.population {
				pruned += o.Synapses.Cleanup()
			}
			b.mu.Unlock()
			if pruned > 0 {
				b.log.Debug("synapse sweep", zap.Int("pruned", pruned))
			}
		}
	}
}

// networkHealthLocked averages population health, energy and fitness.
// Callers hold b.mu.
func (b *Biosphere) networkHealthLocked() float64 {
	if len(b.population) == 0 {
		return 0
	}
	var health, energy, fitness float64
	for _, o := range b.population {
		health += o.Health
		energy += o.Energy
		fitness += o.Genome.Fitness
	}
	n := float64(len(b.population))
	return (health/n + energy/n + fitness/n) / 3
}

// fitnessSpread computes average, maximum and minimum fitness across
// the live population. Callers hold b.mu.
func (b *Biosphere) fitnessSpread() (avg, maxFitness, minFitness float64) {
	if len(b.population) == 0 {
		return 0, 0, 0
	}
	total := 0.0
	first := true
	for _, o := range b.population {
		f := o.Genome.Fitness
		total += f
		if first {
			maxFitness, minFitness = f, f
			first = false
			continue
		}
		maxFitness = max(maxFitness, f)
		minFitness = min(minFitness, f)
	}
	return total / float64(len(b.population)), maxFitness, minFitness
}

// sortedIDs lists the population's organism IDs in lexical order.
// Callers hold b.mu.
func (b *Biosphere) sortedIDs() []string {
	ids := make([]string, 0, len(b.population))
	for id := range b.population {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func storeKind(kind string) string {
	if kind == "" {
		return "memory"
	}
	return kind
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}
