package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// runConfig collects everything the run subcommand accepts from a JSON
// config file. Flags set on the command line override config values;
// anything left zero falls through to the library defaults.
type runConfig struct {
	Store             string
	DBPath            string
	Cycles            int
	InitialPopulation int
	MaxOrganisms      int
	CycleLimit        uint64
	SelectionPressure float64
	Workers           int
	Seed              int64
	MateSelector      string
}

func loadRunConfig(path string) (runConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runConfig{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return runConfig{}, err
	}

	var cfg runConfig
	if v, ok := asString(raw["store"]); ok {
		cfg.Store = v
	}
	if v, ok := asString(raw["db_path"]); ok {
		cfg.DBPath = v
	}
	if v, ok := asInt(raw["cycles"]); ok {
		cfg.Cycles = v
	}
	if v, ok := asInt(raw["initial_population"]); ok {
		cfg.InitialPopulation = v
	}
	if v, ok := asInt(raw["max_organisms"]); ok {
		cfg.MaxOrganisms = v
	}
	if v, ok := asInt64(raw["cycle_limit"]); ok && v >= 0 {
		cfg.CycleLimit = uint64(v)
	}
	if v, ok := asFloat64(raw["selection_pressure"]); ok {
		cfg.SelectionPressure = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		cfg.Workers = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	if v, ok := asString(raw["mate_selector"]); ok {
		cfg.MateSelector = v
	}
	return cfg, nil
}

func loadOrDefaultRunConfig(path string) (runConfig, error) {
	if path == "" {
		return runConfig{}, nil
	}
	cfg, err := loadRunConfig(path)
	if err != nil {
		return runConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func overrideFromFlags(cfg *runConfig, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "store":
			cfg.Store = v.(string)
		case "db-path":
			cfg.DBPath = v.(string)
		case "cycles":
			cfg.Cycles = v.(int)
		case "pop":
			cfg.InitialPopulation = v.(int)
		case "max-organisms":
			cfg.MaxOrganisms = v.(int)
		case "cycle-limit":
			cfg.CycleLimit = v.(uint64)
		case "pressure":
			cfg.SelectionPressure = v.(float64)
		case "workers":
			cfg.Workers = v.(int)
		case "seed":
			cfg.Seed = v.(int64)
		case "mate-selector":
			cfg.MateSelector = v.(string)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
