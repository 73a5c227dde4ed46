package storage

import (
	"encoding/json"
	"errors"

	"genesis/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp returns the version header every persisted record carries.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// stampOrganism versions an organism record and its nested genome.
// Stores call this on every save so callers never persist an
// unversioned record.
func stampOrganism(rec *model.OrganismRecord) {
	rec.VersionedRecord = Stamp()
	rec.Genome.VersionedRecord = Stamp()
}

func EncodeOrganism(rec model.OrganismRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeOrganism(data []byte) (model.OrganismRecord, error) {
	var rec model.OrganismRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.OrganismRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.OrganismRecord{}, err
	}
	return rec, nil
}

func EncodeEvent(event model.EvolutionEvent) ([]byte, error) {
	return json.Marshal(event)
}

func DecodeEvent(data []byte) (model.EvolutionEvent, error) {
	var event model.EvolutionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return model.EvolutionEvent{}, err
	}
	if err := checkVersion(event.VersionedRecord); err != nil {
		return model.EvolutionEvent{}, err
	}
	return event, nil
}

func EncodeCycleSummary(summary model.CycleSummary) ([]byte, error) {
	return json.Marshal(summary)
}

func DecodeCycleSummary(data []byte) (model.CycleSummary, error) {
	var summary model.CycleSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.CycleSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.CycleSummary{}, err
	}
	return summary, nil
}

func EncodeRunSummary(summary model.RunSummary) ([]byte, error) {
	return json.Marshal(summary)
}

func DecodeRunSummary(data []byte) (model.RunSummary, error) {
	var summary model.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return summary, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
