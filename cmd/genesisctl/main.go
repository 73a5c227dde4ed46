package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"

	"genesis/internal/discovery"
	"genesis/internal/evo"
	"genesis/internal/model"
	"genesis/internal/platform"
	"genesis/internal/stats"
	"genesis/internal/storage"
	genapi "genesis/pkg/genesis"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "genesis.db"
)

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		memguard.SafeExit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "spawn":
		return runSpawn(ctx, args[1:])
	case "evolve":
		return runEvolve(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "population":
		return runPopulation(ctx, args[1:])
	case "organism":
		return runOrganism(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "lineage":
		return runLineage(ctx, args[1:])
	case "events":
		return runEvents(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "version":
		return runVersion(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	pop := fs.Int("pop", 0, "founder population size (0 uses the default)")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:         *storeKind,
		DBPath:            *dbPath,
		RunsDir:           defaultRunsDir,
		ExportsDir:        defaultExportsDir,
		InitialPopulation: *pop,
		Logger:            logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	population, err := client.Population(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("initialized store=%s population=%d\n", *storeKind, len(population))
	return nil
}

func runSpawn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("spawn", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.SpawnOrganism(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("spawned organism_id=%s generation=%d fitness=%.6f\n",
		record.ID, record.Genome.Generation, record.Genome.Fitness)
	return nil
}

func runEvolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	organismID := fs.String("id", "", "organism id (defaults to the fittest live organism)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	id := *organismID
	if id == "" {
		population, err := client.Population(ctx)
		if err != nil {
			return err
		}
		chosen, ok := fittestOrganism(population)
		if !ok {
			return errors.New("no organisms alive to evolve")
		}
		id = chosen
	}

	event, err := client.EvolveOrganism(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("evolved organism_id=%s cycle=%d mutation=%s fitness_before=%.6f fitness_after=%.6f outcome=%s\n",
		event.OrganismID, event.Cycle, mutationName(event.Mutation),
		event.FitnessBefore, event.FitnessAfter, event.Outcome)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	cycles := fs.Int("cycles", 10, "evolution cycles to drive")
	pop := fs.Int("pop", 10, "founder population size")
	maxOrganisms := fs.Int("max-organisms", 0, "population ceiling (0 uses the protocol maximum)")
	cycleLimit := fs.Uint64("cycle-limit", 0, "lifetime cycle ceiling for this biosphere (0 disables)")
	pressure := fs.Float64("pressure", 0, "selection pressure culling threshold (0 uses the default, negative disables)")
	workers := fs.Int("workers", 1, "evolution worker count")
	seed := fs.Int64("seed", 0, "rng seed (0 seeds from the clock)")
	mateSelector := fs.String("mate-selector", "fitness_weighted", "mate selection strategy: fitness_weighted|tournament")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadOrDefaultRunConfig(*configPath)
	if err != nil {
		return err
	}
	overrideFromFlags(&cfg, setFlags, map[string]any{
		"store":         *storeKind,
		"db-path":       *dbPath,
		"cycles":        *cycles,
		"pop":           *pop,
		"max-organisms": *maxOrganisms,
		"cycle-limit":   *cycleLimit,
		"pressure":      *pressure,
		"workers":       *workers,
		"seed":          *seed,
		"mate-selector": *mateSelector,
	})

	selector, err := mateSelectorFromName(cfg.MateSelector)
	if err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:         cfg.Store,
		DBPath:            cfg.DBPath,
		RunsDir:           defaultRunsDir,
		ExportsDir:        defaultExportsDir,
		MaxOrganisms:      cfg.MaxOrganisms,
		InitialPopulation: cfg.InitialPopulation,
		CycleLimit:        cfg.CycleLimit,
		SelectionPressure: cfg.SelectionPressure,
		Workers:           cfg.Workers,
		Seed:              cfg.Seed,
		MateSelector:      selector,
		Logger:            logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, genapi.RunRequest{Cycles: cfg.Cycles})
	if err != nil {
		return err
	}

	if *jsonOut {
		type runOut struct {
			RunID             string    `json:"run_id"`
			ArtifactsDir      string    `json:"artifacts_dir"`
			CyclesRun         uint64    `json:"cycles_run"`
			InitialPopulation int       `json:"initial_population"`
			FinalPopulation   int       `json:"final_population"`
			TotalBirths       int       `json:"total_births"`
			TotalDeaths       int       `json:"total_deaths"`
			BestFitness       float64   `json:"best_fitness"`
			NetworkHealth     float64   `json:"network_health"`
			FitnessCurve      []float64 `json:"fitness_curve"`
			PopulationCurve   []int     `json:"population_curve"`
			Extinct           bool      `json:"extinct"`
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runOut{
			RunID:             summary.RunID,
			ArtifactsDir:      summary.ArtifactsDir,
			CyclesRun:         summary.CyclesRun,
			InitialPopulation: summary.InitialPopulation,
			FinalPopulation:   summary.FinalPopulation,
			TotalBirths:       summary.TotalBirths,
			TotalDeaths:       summary.TotalDeaths,
			BestFitness:       summary.BestFitness,
			NetworkHealth:     summary.NetworkHealth,
			FitnessCurve:      summary.FitnessCurve,
			PopulationCurve:   summary.PopulationCurve,
			Extinct:           summary.Extinct,
		})
	}

	fmt.Printf("run_id=%s cycles_run=%d initial_population=%d final_population=%d births=%d deaths=%d best_fitness=%.6f network_health=%.6f extinct=%t artifacts=%s\n",
		summary.RunID, summary.CyclesRun, summary.InitialPopulation, summary.FinalPopulation,
		summary.TotalBirths, summary.TotalDeaths, summary.BestFitness, summary.NetworkHealth,
		summary.Extinct, summary.ArtifactsDir)
	return nil
}

func runRuns(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	entries, err := stats.ListRunIndex(defaultRunsDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if len(entries) > *limit {
		entries = entries[:*limit]
	}
	if *jsonOut {
		type runsItem struct {
			RunID           string  `json:"run_id"`
			CreatedAtUTC    string  `json:"created_at_utc"`
			CyclesRun       uint64  `json:"cycles_run"`
			FinalPopulation int     `json:"final_population"`
			BestFitness     float64 `json:"best_fitness"`
		}
		items := make([]runsItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, runsItem{
				RunID:           e.RunID,
				CreatedAtUTC:    e.CreatedAtUTC,
				CyclesRun:       e.CyclesRun,
				FinalPopulation: e.FinalPopulation,
				BestFitness:     e.BestFitness,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, e := range entries {
		fmt.Printf("run_id=%s created_at=%s cycles=%d final_population=%d best_fitness=%.6f\n",
			e.RunID, e.CreatedAtUTC, e.CyclesRun, e.FinalPopulation, e.BestFitness)
	}
	return nil
}

func runPopulation(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("population", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit population as JSON")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	population, err := client.Population(ctx)
	if err != nil {
		return err
	}
	if len(population) == 0 {
		fmt.Println("no organisms alive")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(population)
	}

	for _, record := range population {
		fmt.Printf("organism_id=%s state=%s age=%d generation=%d fitness=%.6f health=%.6f energy=%.6f\n",
			record.ID, record.State, record.Age, record.Genome.Generation,
			record.Genome.Fitness, record.Health, record.Energy)
	}
	return nil
}

func runOrganism(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("organism", flag.ContinueOnError)
	organismID := fs.String("id", "", "organism id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit organism record as JSON")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *organismID == "" {
		return errors.New("organism requires --id")
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.Organism(ctx, *organismID)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	fmt.Printf("organism_id=%s state=%s age=%d generation=%d fitness=%.6f health=%.6f energy=%.6f neural_activity=%.6f consciousness=%.6f synapses=%d\n",
		record.ID, record.State, record.Age, record.Genome.Generation, record.Genome.Fitness,
		record.Health, record.Energy, record.NeuralActivity, record.Consciousness, record.SynapseCount)
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "max organisms to rank (0 uses the default)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit ranking as JSON")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.Top(ctx, genapi.TopRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Println("no organisms found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(top)
	}

	for _, entry := range top {
		fmt.Printf("rank=%d organism_id=%s fitness=%.6f generation=%d state=%s\n",
			entry.Rank, entry.Record.ID, entry.Fitness, entry.Record.Genome.Generation, entry.Record.State)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit stats as JSON")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	evolution, err := client.Stats(ctx)
	if err != nil {
		return err
	}
	network, err := client.Network(ctx)
	if err != nil {
		return err
	}
	topology, err := client.Topology(ctx)
	if err != nil {
		return err
	}

	if *jsonOut {
		type statsOut struct {
			Evolution model.EvolutionStats      `json:"evolution"`
			Network   platform.NetworkStats     `json:"network"`
			Topology  discovery.TopologyMetrics `json:"topology"`
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(statsOut{Evolution: evolution, Network: network, Topology: topology})
	}

	fmt.Printf("cycle=%d events=%d successes=%d failures=%d avg_fitness=%.6f max_fitness=%.6f min_fitness=%.6f pressure=%.2f mutation_rate=%.6f\n",
		evolution.CurrentCycle, evolution.TotalEvents, evolution.SuccessfulEvolutions, evolution.FailedEvolutions,
		evolution.AverageFitness, evolution.MaxFitness, evolution.MinFitness,
		evolution.SelectionPressure, evolution.MutationRate)
	fmt.Printf("organisms=%d active=%d synapses=%d network_health=%.6f\n",
		network.TotalOrganisms, network.ActiveOrganisms, network.TotalSynapses, network.NetworkHealth)
	fmt.Printf("nodes=%d connections=%d diameter=%d clustering=%.6f density=%.6f\n",
		topology.TotalNodes, topology.TotalConnections, topology.NetworkDiameter,
		topology.ClusteringCoefficient, topology.NetworkDensity)
	return nil
}

func runLineage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lineage", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show lineage for the most recent run from run index")
	limit := fs.Int("limit", 50, "max lineage rows to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit lineage rows as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("lineage requires --run-id or --latest")
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	lineage, err := client.Lineage(ctx, genapi.LineageRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(lineage) == 0 {
		fmt.Println("no lineage records")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lineage)
	}

	for _, entry := range lineage {
		fmt.Printf("gen=%d organism_id=%s hash=%s parent_hash=%s key_gen=%d mutations=%d\n",
			entry.Generation, entry.OrganismID, entry.Hash, entry.ParentHash,
			entry.KeyGeneration, entry.Mutations)
	}
	return nil
}

func runEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	organismID := fs.String("organism-id", "", "filter events to one organism")
	limit := fs.Int("limit", 50, "max events to keep, most recent kept (0 for all)")
	jsonOut := fs.Bool("json", false, "emit events as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	events, err := client.Events(ctx, genapi.EventsRequest{
		OrganismID: *organismID,
		Limit:      *limit,
	})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("no events recorded")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	for _, event := range events {
		fmt.Printf("cycle=%d event_id=%s organism_id=%s mutation=%s fitness_before=%.6f fitness_after=%.6f outcome=%s\n",
			event.Cycle, event.EventID, event.OrganismID, mutationName(event.Mutation),
			event.FitnessBefore, event.FitnessAfter, event.Outcome)
	}
	return nil
}

func runExport(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", defaultExportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}
	if *latest {
		entries, err := stats.ListRunIndex(defaultRunsDir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("no runs available to export")
		}
		*runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(defaultRunsDir, *runID, *outDir)
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", *runID, filepath.Clean(exportedDir))
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := genapi.New(genapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPath,
		RunsDir:    defaultRunsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runVersion(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit protocol info as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info := platform.Info()
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Printf("protocol_version=%s max_organisms=%d max_synapses_per_organism=%d target_neural_latency_ns=%d max_evolution_time_ms=%d\n",
		info.ProtocolVersion, info.MaxOrganisms, info.MaxSynapsesPerOrganism,
		info.TargetNeuralLatencyNS, info.MaxEvolutionTimeMS)
	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func mutationName(m model.Mutation) string {
	if m == nil {
		return "none"
	}
	return string(m.Kind())
}

func fittestOrganism(population []model.OrganismRecord) (string, bool) {
	best := ""
	bestFitness := math.Inf(-1)
	for _, record := range population {
		if record.Genome.Fitness > bestFitness {
			best = record.ID
			bestFitness = record.Genome.Fitness
		}
	}
	return best, best != ""
}

func mateSelectorFromName(name string) (evo.MateSelector, error) {
	switch name {
	case "":
		return nil, nil
	case "fitness_weighted":
		return evo.FitnessWeightedSelector{Strength: 0.5}, nil
	case "tournament":
		return evo.TournamentMateSelector{TournamentSize: 3}, nil
	default:
		return nil, fmt.Errorf("unsupported mate selector: %s", name)
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: genesisctl <init|spawn|evolve|run|runs|population|organism|top|stats|lineage|events|export|reset|version> [flags]", msg)
}
