// Package organism layers a biological lifecycle over a genome: birth,
// growth, maturity, reproduction, aging and death, driven by age bands
// and vital signs. Organisms also carry the synapse fabric that connects
// them to their peers.
package organism

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"genesis/internal/dna"
	"genesis/internal/model"
	"genesis/internal/neural"
)

// IDPrefix starts every organism identifier.
const IDPrefix = "tron_"

// MaxGeneticDistance is the reproduction compatibility bound: pairs whose
// genomes diverge further cannot produce offspring.
const MaxGeneticDistance = 0.8

var (
	ErrReproductionNotReady   = errors.New("organism not ready to reproduce")
	ErrGeneticIncompatibility = errors.New("genetic distance exceeds compatibility bound")
)

// Organism is one living digital creature. It is not safe for concurrent
// use; the platform serializes access per organism.
type Organism struct {
	ID                    string
	Genome                *dna.Genome
	State                 model.OrganismState
	Age                   uint64
	Energy                float64
	Health                float64
	NeuralActivity        float64
	ReproductionReadiness float64
	Consciousness         float64
	BornAt                int64
	LastEvolution         int64
	Synapses              *neural.Fabric
}

// New births an organism with a freshly generated genome.
func New(rng *rand.Rand) (*Organism, error) {
	g, err := dna.Generate(rng)
	if err != nil {
		return nil, err
	}
	return FromGenome(g, rng), nil
}

// FromGenome wraps an existing genome in a newborn organism. The organism
// ID is derived from the genome hash at birth and stays fixed afterwards,
// mutations included.
func FromGenome(g *dna.Genome, rng *rand.Rand) *Organism {
	id := IDFor(g)
	return &Organism{
		ID:             id,
		Genome:         g,
		State:          model.StateBirth,
		Energy:         1.0,
		Health:         1.0,
		NeuralActivity: 0.1,
		Consciousness:  0.1,
		BornAt:         time.Now().Unix(),
		Synapses:       neural.NewFabric(id, neural.DefaultMaxSynapses, rng),
	}
}

// IDFor derives the stable organism identifier from a genome's birth hash.
func IDFor(g *dna.Genome) string {
	return IDPrefix + g.Hash()[:16]
}

// Alive reports whether the organism still participates in the biosphere.
func (o *Organism) Alive() bool {
	return o.State != model.StateDead
}

// MarkDead finalizes the organism. Dead organisms stay in the registry
// until the next cleanup sweep removes them.
func (o *Organism) MarkDead() {
	o.State = model.StateDead
}

// MarkEvolved records a completed evolution step: the organism ages one
// cycle and its lifecycle band is re-evaluated.
func (o *Organism) MarkEvolved() {
	o.Age++
	o.LastEvolution = time.Now().Unix()
	o.updateLifecycle()
}

// Tick applies slow metabolic decline and refreshes the lifecycle band.
func (o *Organism) Tick() {
	o.Health *= 0.9999
	o.Energy *= 0.999
	o.NeuralActivity *= 0.99
	o.Consciousness *= 0.999
	o.updateLifecycle()
}

// updateLifecycle rebands the organism by age, gated on vitals, then
// adjusts reproduction readiness for the new band.
func (o *Organism) updateLifecycle() {
	if o.State == model.StateDead {
		return
	}
	switch {
	case o.Age <= 10:
		o.State = model.StateGrowing
	case o.Age <= 50:
		if o.Health > 0.8 && o.Energy > 0.7 {
			o.State = model.StateMature
		} else {
			o.State = model.StateGrowing
		}
	case o.Age <= 80:
		switch {
		case o.ReproductionReadiness > 0.8 && o.Health > 0.6:
			o.State = model.StateReproducing
		case o.Health > 0.5:
			o.State = model.StateMature
		default:
			o.State = model.StateAging
		}
	case o.Age <= 100:
		if o.Health > 0.3 {
			o.State = model.StateAging
		} else {
			o.State = model.StateDying
		}
	default:
		o.State = model.StateDying
	}

	switch o.State {
	case model.StateMature:
		o.ReproductionReadiness = clamp01(o.ReproductionReadiness + 0.1)
	case model.StateAging, model.StateDying:
		o.ReproductionReadiness *= 0.9
	}
}

// CanReproduce reports whether the organism is in a reproductive band
// with sufficient readiness.
func (o *Organism) CanReproduce() bool {
	if o.State != model.StateMature && o.State != model.StateReproducing {
		return false
	}
	return o.ReproductionReadiness >= 0.5
}

// ReproduceWith crosses this organism with partner and births the
// offspring. Both sides must be in a reproductive band with readiness at
// least 0.5, and their genomes must sit within MaxGeneticDistance. A
// successful birth spends half of each parent's readiness and counts
// toward both genomes' reproductive success.
func (o *Organism) ReproduceWith(partner *Organism, rng *rand.Rand) (*Organism, error) {
	if o.State != model.StateMature && o.State != model.StateReproducing {
		return nil, fmt.Errorf("%w: %s is %s", ErrReproductionNotReady, o.ID, o.State)
	}
	if partner.State != model.StateMature && partner.State != model.StateReproducing {
		return nil, fmt.Errorf("%w: partner %s is %s", ErrReproductionNotReady, partner.ID, partner.State)
	}
	if o.ReproductionReadiness < 0.5 || partner.ReproductionReadiness < 0.5 {
		return nil, fmt.Errorf("%w: readiness %.2f and %.2f, need 0.50",
			ErrReproductionNotReady, o.ReproductionReadiness, partner.ReproductionReadiness)
	}
	if d := o.Genome.GeneticDistance(partner.Genome); d > MaxGeneticDistance {
		return nil, fmt.Errorf("%w: distance %.3f, bound %.2f", ErrGeneticIncompatibility, d, MaxGeneticDistance)
	}

	childGenome, err := o.Genome.Crossover(partner.Genome, rng)
	if err != nil {
		return nil, fmt.Errorf("crossover: %w", err)
	}

	o.ReproductionReadiness *= 0.5
	partner.ReproductionReadiness *= 0.5
	o.Genome.Meta.ReproductiveSuccess++
	partner.Genome.Meta.ReproductiveSuccess++
	return FromGenome(childGenome, rng), nil
}

// EstablishSynapse opens a connection toward target. Making connections
// lifts neural activity and consciousness a little.
func (o *Organism) EstablishSynapse(targetID string, nt neural.Neurotransmitter) (*neural.Synapse, error) {
	s, err := o.Synapses.Establish(targetID, nt)
	if err != nil {
		return nil, err
	}
	o.NeuralActivity = clamp01(o.NeuralActivity + 0.05)
	o.Consciousness = clamp01(o.Consciousness + 0.05)
	return s, nil
}

// SendNeuralMessage signs payload with the organism's key and transmits
// it across the synapse toward target. It returns the transmitted
// message, for the caller to deliver, and the modeled delay.
func (o *Organism) SendNeuralMessage(targetID string, mt neural.MessageType, payload []byte) (neural.Message, time.Duration, error) {
	sig, err := o.Genome.Sign(payload)
	if err != nil {
		return neural.Message{}, 0, fmt.Errorf("sign payload: %w", err)
	}
	msg := neural.Message{
		MessageID:  uuid.New().String(),
		SenderID:   o.ID,
		ReceiverID: targetID,
		Type:       mt,
		Payload:    payload,
		Timestamp:  time.Now().UnixNano(),
		TTL:        neural.DefaultTTL,
		Signature:  sig,
		Urgency:    0.5,
		Priority:   128,
	}
	delay, err := o.Synapses.Transmit(targetID, msg)
	if err != nil {
		return neural.Message{}, 0, err
	}
	return msg, delay, nil
}

// ReceiveNeuralMessage folds an incoming message into the organism's
// awareness; the boost depends on the message type.
func (o *Organism) ReceiveNeuralMessage(msg neural.Message) error {
	if err := msg.Validate(time.Now()); err != nil {
		return err
	}
	o.Consciousness = clamp01(o.Consciousness + msg.Type.ConsciousnessBoost())
	o.NeuralActivity = clamp01(o.NeuralActivity + 0.01)
	return nil
}

// Record projects the organism onto its serializable form.
func (o *Organism) Record() model.OrganismRecord {
	return model.OrganismRecord{
		ID:                    o.ID,
		State:                 o.State,
		Age:                   o.Age,
		Energy:                o.Energy,
		Health:                o.Health,
		NeuralActivity:        o.NeuralActivity,
		ReproductionReadiness: o.ReproductionReadiness,
		Consciousness:         o.Consciousness,
		SynapseCount:          o.Synapses.Count(),
		Genome:                o.Genome.Model(),
	}
}

// Destroy releases the genome's guarded key material.
func (o *Organism) Destroy() {
	o.Genome.Destroy()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
