package stats

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"genesis/internal/model"
)

const reportFile = "report.json"

type SeriesStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// RunReport condenses a finished run for operators: headline numbers
// plus distribution stats over the fitness curve.
type RunReport struct {
	RunID              string      `json:"run_id"`
	GeneratedAt        string      `json:"generated_at_utc"`
	CyclesRun          uint64      `json:"cycles_run"`
	DurationSeconds    int64       `json:"duration_seconds"`
	InitialPopulation  int         `json:"initial_population"`
	FinalPopulation    int         `json:"final_population"`
	TotalEliminated    int         `json:"total_eliminated"`
	TotalBirths        int         `json:"total_births"`
	TotalDeaths        int         `json:"total_deaths"`
	BestFitness        float64     `json:"best_fitness"`
	FinalNetworkHealth float64     `json:"final_network_health"`
	Fitness            SeriesStats `json:"fitness"`
	Extinct            bool        `json:"extinct"`
}

func BuildRunReport(summary model.RunSummary) RunReport {
	return RunReport{
		RunID:              summary.RunID,
		CyclesRun:          summary.CyclesRun,
		DurationSeconds:    summary.CompletedAt - summary.StartedAt,
		InitialPopulation:  summary.InitialPopulation,
		FinalPopulation:    summary.FinalPopulation,
		TotalEliminated:    summary.TotalEliminated,
		TotalBirths:        summary.TotalBirths,
		TotalDeaths:        summary.TotalDeaths,
		BestFitness:        summary.BestFitness,
		FinalNetworkHealth: summary.NetworkHealth,
		Fitness:            seriesStatsOf(summary.FitnessCurve),
		Extinct:            summary.CyclesRun > 0 && summary.FinalPopulation == 0,
	}
}

func WriteRunReport(runDir string, report RunReport) error {
	if report.GeneratedAt == "" {
		report.GeneratedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return writeJSON(filepath.Join(runDir, reportFile), report)
}

func ReadRunReport(baseDir, runID string) (RunReport, bool, error) {
	path := filepath.Join(baseDir, runID, reportFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunReport{}, false, nil
		}
		return RunReport{}, false, err
	}

	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return RunReport{}, false, err
	}
	return report, true, nil
}

func seriesStatsOf(values []float64) SeriesStats {
	if len(values) == 0 {
		return SeriesStats{}
	}
	stats := SeriesStats{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, value := range values {
		sum += value
		if value < stats.Min {
			stats.Min = value
		}
		if value > stats.Max {
			stats.Max = value
		}
	}
	stats.Mean = sum / float64(len(values))

	variance := 0.0
	for _, value := range values {
		diff := value - stats.Mean
		variance += diff * diff
	}
	stats.Std = math.Sqrt(variance / float64(len(values)))
	return stats
}
