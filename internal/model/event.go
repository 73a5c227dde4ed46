package model

import "encoding/json"

// EvolutionEvent records one evolution attempt against one organism.
type EvolutionEvent struct {
	VersionedRecord
	EventID           string           `json:"event_id"`
	OrganismID        string           `json:"organism_id"`
	Cycle             uint64           `json:"cycle"`
	Mutation          Mutation         `json:"mutation"`
	FitnessBefore     float64          `json:"fitness_before"`
	FitnessAfter      float64          `json:"fitness_after"`
	SelectionPressure float64          `json:"selection_pressure"`
	Timestamp         int64            `json:"timestamp"`
	Outcome           EvolutionOutcome `json:"outcome"`
}

func (e *EvolutionEvent) UnmarshalJSON(data []byte) error {
	type alias EvolutionEvent
	aux := struct {
		Mutation json.RawMessage `json:"mutation"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Mutation) == 0 || string(aux.Mutation) == "null" {
		e.Mutation = nil
		return nil
	}
	m, err := UnmarshalMutation(aux.Mutation)
	if err != nil {
		return err
	}
	e.Mutation = m
	return nil
}
