package neural

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SynapseState tracks the lifecycle of one connection.
type SynapseState string

const (
	SynapseEstablishing SynapseState = "establishing"
	SynapseActive       SynapseState = "active"
	SynapseInactive     SynapseState = "inactive"
	SynapsePotentiating SynapseState = "potentiating"
	SynapseDepressing   SynapseState = "depressing"
	SynapseTerminating  SynapseState = "terminating"
	SynapseClosed       SynapseState = "closed"
)

// LatencyStats aggregates observed conduction delays for one synapse.
type LatencyStats struct {
	Min   time.Duration
	Max   time.Duration
	Total time.Duration
	Count uint64
}

func (s *LatencyStats) Record(d time.Duration) {
	s.Count++
	if s.Count == 1 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Total += d
}

// Average returns the mean observed delay, zero before any observation.
func (s LatencyStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Synapse is a connection between two organisms. Strength and plasticity
// follow a Hebbian regime: use potentiates, depression below 0.1 strength
// closes the connection for good.
type Synapse struct {
	ConnectionID     string
	From             string
	To               string
	Strength         float64
	Plasticity       float64
	Neurotransmitter Neurotransmitter
	SuccessRate      float64
	State            SynapseState
	Bidirectional    bool
	EstablishedAt    int64
	Latency          LatencyStats
}

// NewSynapse opens a connection from one organism toward another with the
// standard newborn profile: half strength, high plasticity, glutamate
// unless told otherwise.
func NewSynapse(from, to string, nt Neurotransmitter) *Synapse {
	if nt == "" {
		nt = Glutamate
	}
	return &Synapse{
		ConnectionID:     connectionID(from, to),
		From:             from,
		To:               to,
		Strength:         0.5,
		Plasticity:       0.8,
		Neurotransmitter: nt,
		SuccessRate:      1.0,
		State:            SynapseEstablishing,
		Bidirectional:    true,
		EstablishedAt:    time.Now().Unix(),
	}
}

func connectionID(from, to string) string {
	return fmt.Sprintf("synapse_%s_%s_%s", head(from, 8), head(to, 8), head(uuid.New().String(), 8))
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// TransmissionDelay models conduction time: the transmitter's base latency
// scaled up for weak synapses and down for urgent traffic.
func (s *Synapse) TransmissionDelay(urgency float64) time.Duration {
	urgency = clamp01(urgency)
	factor := (2.0 - s.Strength) * (2.0 - urgency)
	return time.Duration(float64(s.Neurotransmitter.BaseLatency()) * factor)
}

// Strengthen potentiates the synapse. Only active synapses with remaining
// plasticity respond, and every change spends a little plasticity.
func (s *Synapse) Strengthen(factor float64) {
	if s.Plasticity <= 0 || s.State != SynapseActive {
		return
	}
	s.Strength = clamp01(s.Strength + factor*s.Plasticity)
	s.Plasticity *= 0.995
}

// Weaken depresses the synapse; below 0.1 strength it closes.
func (s *Synapse) Weaken(factor float64) {
	s.Strength -= factor * s.Plasticity
	if s.Strength < 0 {
		s.Strength = 0
	}
	s.Plasticity *= 0.995
	if s.Strength < 0.1 {
		s.State = SynapseClosed
	}
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
