package model

import (
	"encoding/json"
	"fmt"
)

type MutationKind string

const (
	KindPointMutation MutationKind = "point_mutation"
	KindInsertion     MutationKind = "insertion"
	KindDeletion      MutationKind = "deletion"
	KindDuplication   MutationKind = "duplication"
	KindInversion     MutationKind = "inversion"
	KindTranslocation MutationKind = "translocation"
	KindKeyEvolution  MutationKind = "key_evolution"
)

// Mutation is the closed set of operators that can rewrite a genome.
// The set is sealed by the unexported marker method; consumers dispatch
// on the concrete type, not on a kind string.
type Mutation interface {
	Kind() MutationKind
	isMutation()
}

type PointMutation struct {
	Position  int   `json:"position"`
	OldValue  byte  `json:"old_value"`
	NewValue  byte  `json:"new_value"`
	Timestamp int64 `json:"timestamp"`
}

type Insertion struct {
	Position  int    `json:"position"`
	Bytes     []byte `json:"bytes"`
	Timestamp int64  `json:"timestamp"`
}

type Deletion struct {
	Position  int   `json:"position"`
	Length    int   `json:"length"`
	Timestamp int64 `json:"timestamp"`
}

type Duplication struct {
	Start     int   `json:"start"`
	End       int   `json:"end"`
	InsertAt  int   `json:"insert_at"`
	Timestamp int64 `json:"timestamp"`
}

type Inversion struct {
	Start     int   `json:"start"`
	End       int   `json:"end"`
	Timestamp int64 `json:"timestamp"`
}

type Translocation struct {
	FromStart  int   `json:"from_start"`
	FromEnd    int   `json:"from_end"`
	ToPosition int   `json:"to_position"`
	Timestamp  int64 `json:"timestamp"`
}

type KeyEvolution struct {
	OldGeneration uint64 `json:"old_generation"`
	NewGeneration uint64 `json:"new_generation"`
	Timestamp     int64  `json:"timestamp"`
}

func (PointMutation) Kind() MutationKind { return KindPointMutation }
func (Insertion) Kind() MutationKind     { return KindInsertion }
func (Deletion) Kind() MutationKind      { return KindDeletion }
func (Duplication) Kind() MutationKind   { return KindDuplication }
func (Inversion) Kind() MutationKind     { return KindInversion }
func (Translocation) Kind() MutationKind { return KindTranslocation }
func (KeyEvolution) Kind() MutationKind  { return KindKeyEvolution }

func (PointMutation) isMutation() {}
func (Insertion) isMutation()     {}
func (Deletion) isMutation()      {}
func (Duplication) isMutation()   {}
func (Inversion) isMutation()     {}
func (Translocation) isMutation() {}
func (KeyEvolution) isMutation()  {}

func (m PointMutation) MarshalJSON() ([]byte, error) { return marshalMutation(m.Kind(), pm(m)) }
func (m Insertion) MarshalJSON() ([]byte, error)     { return marshalMutation(m.Kind(), ins(m)) }
func (m Deletion) MarshalJSON() ([]byte, error)      { return marshalMutation(m.Kind(), del(m)) }
func (m Duplication) MarshalJSON() ([]byte, error)   { return marshalMutation(m.Kind(), dup(m)) }
func (m Inversion) MarshalJSON() ([]byte, error)     { return marshalMutation(m.Kind(), inv(m)) }
func (m Translocation) MarshalJSON() ([]byte, error) { return marshalMutation(m.Kind(), tra(m)) }
func (m KeyEvolution) MarshalJSON() ([]byte, error)  { return marshalMutation(m.Kind(), kev(m)) }

// Alias types strip the MarshalJSON method so the concrete payload can be
// re-marshaled without recursing.
type (
	pm  PointMutation
	ins Insertion
	del Deletion
	dup Duplication
	inv Inversion
	tra Translocation
	kev KeyEvolution
)

func marshalMutation(kind MutationKind, payload any) ([]byte, error) {
	op, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(mutationEnvelope{Kind: kind, Op: op})
}

type mutationEnvelope struct {
	Kind MutationKind    `json:"kind"`
	Op   json.RawMessage `json:"op"`
}

// UnmarshalMutation decodes one kind-tagged mutation envelope back into its
// concrete operator type.
func UnmarshalMutation(data []byte) (Mutation, error) {
	var env mutationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode mutation envelope: %w", err)
	}
	switch env.Kind {
	case KindPointMutation:
		var m pm
		if err := json.Unmarshal(env.Op, &m); err != nil {
			return nil, err
		}
		return PointMutation(m), nil
	case KindInsertion:
		var m ins
		if err := json.Unmarshal(env.Op, &m); err != nil {
			return nil, err
		}
		return Insertion(m), nil
	case KindDeletion:
		var m del
		if err := json.Unmarshal(env.Op, &m); err != nil {
			return nil, err
		}
		return Deletion(m), nil
	case KindDuplication:
		var m dup
		if err := json.Unmarshal(env.Op, &m); err != nil {
			return nil, err
		}
		return Duplication(m), nil
	case KindInversion:
		var m inv
		if err := json.Unmarshal(env.Op, &m); err != nil {
			return nil, err
		}
		return Inversion(m), nil
	case KindTranslocation:
		var m tra
		if err := json.Unmarshal(env.Op, &m); err != nil {
			return nil, err
		}
		return Translocation(m), nil
	case KindKeyEvolution:
		var m kev
		if err := json.Unmarshal(env.Op, &m); err != nil {
			return nil, err
		}
		return KeyEvolution(m), nil
	default:
		return nil, fmt.Errorf("unknown mutation kind: %q", env.Kind)
	}
}

// MutationLog is the append-only history of operators applied to a genome.
type MutationLog []Mutation

func (l *MutationLog) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(MutationLog, 0, len(raw))
	for _, entry := range raw {
		m, err := UnmarshalMutation(entry)
		if err != nil {
			return err
		}
		out = append(out, m)
	}
	*l = out
	return nil
}
