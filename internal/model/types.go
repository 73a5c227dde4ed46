package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is the serializable projection of an organism's genetic material.
// It carries public key material only; the signing key never enters any
// serialization path.
type Genome struct {
	VersionedRecord
	Hash           string         `json:"hash"`
	Sequence       []byte         `json:"sequence"`
	Generation     uint64         `json:"generation"`
	Fitness        float64        `json:"fitness"`
	MutationLog    MutationLog    `json:"mutation_log"`
	PublicKey      []byte         `json:"public_key"`
	KeyGeneration  uint64         `json:"key_generation"`
	DerivationPath []uint32       `json:"derivation_path"`
	CreatedAt      int64          `json:"created_at"`
	ParentHash     *string        `json:"parent_hash,omitempty"`
	Metadata       GenomeMetadata `json:"metadata"`
}

type GenomeMetadata struct {
	Species                string  `json:"species"`
	BiologicalAge          uint64  `json:"biological_age"`
	MutationRate           float64 `json:"mutation_rate"`
	CrossoverCompatibility float64 `json:"crossover_compatibility"`
	AdaptationScore        float64 `json:"adaptation_score"`
	ReproductiveSuccess    float64 `json:"reproductive_success"`
	NeuralComplexity       float64 `json:"neural_complexity"`
}

type OrganismState string

const (
	StateBirth       OrganismState = "birth"
	StateGrowing     OrganismState = "growing"
	StateMature      OrganismState = "mature"
	StateReproducing OrganismState = "reproducing"
	StateAging       OrganismState = "aging"
	StateDying       OrganismState = "dying"
	StateDead        OrganismState = "dead"
)

type OrganismRecord struct {
	VersionedRecord
	ID                    string        `json:"id"`
	State                 OrganismState `json:"state"`
	Age                   uint64        `json:"age"`
	Energy                float64       `json:"energy"`
	Health                float64       `json:"health"`
	NeuralActivity        float64       `json:"neural_activity"`
	ReproductionReadiness float64       `json:"reproduction_readiness"`
	Consciousness         float64       `json:"consciousness"`
	SynapseCount          int           `json:"synapse_count"`
	Genome                Genome        `json:"genome"`
}

type EvolutionOutcome string

const (
	OutcomeSuccess    EvolutionOutcome = "success"
	OutcomeFailed     EvolutionOutcome = "failed"
	OutcomeExtinct    EvolutionOutcome = "extinct"
	OutcomeSpeciation EvolutionOutcome = "speciation"
)

type EvolutionStats struct {
	CurrentCycle         uint64  `json:"current_cycle"`
	TotalEvents          int     `json:"total_events"`
	SuccessfulEvolutions int     `json:"successful_evolutions"`
	FailedEvolutions     int     `json:"failed_evolutions"`
	AverageFitness       float64 `json:"average_fitness"`
	MaxFitness           float64 `json:"max_fitness"`
	MinFitness           float64 `json:"min_fitness"`
	SelectionPressure    float64 `json:"selection_pressure"`
	MutationRate         float64 `json:"mutation_rate"`
}

type CycleSummary struct {
	VersionedRecord
	RunID          string  `json:"run_id"`
	Cycle          uint64  `json:"cycle"`
	Population     int     `json:"population"`
	Eliminated     int     `json:"eliminated"`
	Births         int     `json:"births"`
	Deaths         int     `json:"deaths"`
	AverageFitness float64 `json:"average_fitness"`
	MaxFitness     float64 `json:"max_fitness"`
	MinFitness     float64 `json:"min_fitness"`
	MutationRate   float64 `json:"mutation_rate"`
	NetworkHealth  float64 `json:"network_health"`
	Timestamp      int64   `json:"timestamp"`
}

type RunSummary struct {
	VersionedRecord
	RunID             string    `json:"run_id"`
	StartedAt         int64     `json:"started_at"`
	CompletedAt       int64     `json:"completed_at"`
	CyclesRun         uint64    `json:"cycles_run"`
	InitialPopulation int       `json:"initial_population"`
	FinalPopulation   int       `json:"final_population"`
	TotalEliminated   int       `json:"total_eliminated"`
	TotalBirths       int       `json:"total_births"`
	TotalDeaths       int       `json:"total_deaths"`
	FitnessCurve      []float64 `json:"fitness_curve"`
	PopulationCurve   []int     `json:"population_curve"`
	BestFitness       float64   `json:"best_fitness"`
	NetworkHealth     float64   `json:"network_health"`
}
