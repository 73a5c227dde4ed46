package neural

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// DefaultMaxSynapses caps connections per organism.
const DefaultMaxSynapses = 100_000

// Fabric is one organism's synapse table, keyed by peer organism ID. It is
// not safe for concurrent use; the owning organism serializes access.
type Fabric struct {
	owner    string
	synapses map[string]*Synapse
	limit    int
	rng      *rand.Rand
}

// NewFabric builds an empty table for owner. A non-positive limit applies
// DefaultMaxSynapses; a nil rng gets a time-seeded source for jitter.
func NewFabric(owner string, limit int, rng *rand.Rand) *Fabric {
	if limit <= 0 {
		limit = DefaultMaxSynapses
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Fabric{
		owner:    owner,
		synapses: make(map[string]*Synapse),
		limit:    limit,
		rng:      rng,
	}
}

// Establish opens a synapse toward target, or returns the existing one.
func (f *Fabric) Establish(target string, nt Neurotransmitter) (*Synapse, error) {
	if s, ok := f.synapses[target]; ok {
		return s, nil
	}
	if len(f.synapses) >= f.limit {
		return nil, fmt.Errorf("%w: %d connections at limit %d", ErrTooManySynapses, len(f.synapses), f.limit)
	}
	s := NewSynapse(f.owner, target, nt)
	f.synapses[target] = s
	return s, nil
}

// Get returns the synapse toward target, if any.
func (f *Fabric) Get(target string) (*Synapse, bool) {
	s, ok := f.synapses[target]
	return s, ok
}

// Remove tears down the synapse toward target.
func (f *Fabric) Remove(target string) error {
	if _, ok := f.synapses[target]; !ok {
		return fmt.Errorf("%w: %s", ErrSynapseNotFound, target)
	}
	delete(f.synapses, target)
	return nil
}

// Count returns the number of open synapses.
func (f *Fabric) Count() int { return len(f.synapses) }

// Peers lists connected organism IDs in stable order.
func (f *Fabric) Peers() []string {
	peers := make([]string, 0, len(f.synapses))
	for id := range f.synapses {
		peers = append(peers, id)
	}
	sort.Strings(peers)
	return peers
}

// Transmit validates msg and simulates conduction across the synapse
// toward target, returning the modeled delay including jitter. The first
// transmission promotes an establishing synapse to active.
func (f *Fabric) Transmit(target string, msg Message) (time.Duration, error) {
	s, ok := f.synapses[target]
	if !ok {
		return 0, fmt.Errorf("%w: no synapse toward %s", ErrSynapseNotFound, target)
	}
	if s.State == SynapseClosed || s.State == SynapseTerminating {
		return 0, fmt.Errorf("%w: synapse %s is %s", ErrSynapseNotFound, s.ConnectionID, s.State)
	}
	if err := msg.Validate(time.Now()); err != nil {
		return 0, err
	}
	if !endpointsMatch(s, msg.SenderID, msg.ReceiverID) {
		return 0, fmt.Errorf("%w: endpoints %s->%s do not match synapse %s",
			ErrInvalidMessage, msg.SenderID, msg.ReceiverID, s.ConnectionID)
	}

	delay := s.TransmissionDelay(msg.Urgency) + time.Duration(f.rng.Intn(100))*time.Nanosecond
	s.Latency.Record(delay)
	if s.State == SynapseEstablishing {
		s.State = SynapseActive
	}
	s.SuccessRate = s.SuccessRate*0.99 + 0.01
	return delay, nil
}

func endpointsMatch(s *Synapse, sender, receiver string) bool {
	if sender == s.From && receiver == s.To {
		return true
	}
	return s.Bidirectional && sender == s.To && receiver == s.From
}

// Cleanup drops closed synapses and reports how many were removed.
func (f *Fabric) Cleanup() int {
	removed := 0
	for id, s := range f.synapses {
		if s.State == SynapseClosed {
			delete(f.synapses, id)
			removed++
		}
	}
	return removed
}
