// Package collective lets groups of organisms make decisions no single
// member could: proposals gather weighted votes and a configurable
// algorithm picks the winner.
package collective

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Algorithm selects how votes are folded into a decision.
type Algorithm string

const (
	// AlgorithmMajority counts heads: the option with the most votes wins.
	AlgorithmMajority Algorithm = "majority"
	// AlgorithmWeightedByFitness sums strength times confidence per option.
	AlgorithmWeightedByFitness Algorithm = "weighted_by_fitness"
	// AlgorithmConsensus is weighted voting that only decides when the
	// winner holds at least ConsensusThreshold of the total weight.
	AlgorithmConsensus Algorithm = "consensus"
	// AlgorithmQuorum is majority voting that only decides when at least
	// QuorumFraction of the participants have voted.
	AlgorithmQuorum Algorithm = "quorum"
)

const (
	// ConsensusThreshold is the weight share the winning option must hold
	// under AlgorithmConsensus.
	ConsensusThreshold = 2.0 / 3.0
	// QuorumFraction is the share of participants that must vote before
	// AlgorithmQuorum decides.
	QuorumFraction = 0.5
)

// Status tracks a decision through its life.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusVoting    Status = "voting"
	StatusDecided   Status = "decided"
	StatusCancelled Status = "cancelled"
)

// Group is a named set of organisms acting together.
type Group struct {
	ID                string   `json:"group_id"`
	Members           []string `json:"members"`
	Purpose           string   `json:"purpose"`
	IntelligenceLevel float64  `json:"intelligence_level"`
	Cohesion          float64  `json:"cohesion"`
	CreatedAt         int64    `json:"created_at"`
}

// Vote is one organism's voice on one option.
type Vote struct {
	OrganismID string  `json:"organism_id"`
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// Option is a candidate answer accumulating votes and weight.
type Option struct {
	ID          string  `json:"option_id"`
	Description string  `json:"description"`
	Votes       []Vote  `json:"votes"`
	Weight      float64 `json:"weight"`
}

// Decision is one question put to a set of participants.
type Decision struct {
	ID           string    `json:"decision_id"`
	Question     string    `json:"question"`
	Participants []string  `json:"participants"`
	Options      []Option  `json:"options"`
	Algorithm    Algorithm `json:"algorithm"`
	Status       Status    `json:"status"`
	Result       string    `json:"result,omitempty"`
	Confidence   float64   `json:"confidence"`
	CreatedAt    int64     `json:"created_at"`
}

// Outcome reports a finalized decision: the winning option and its tally.
type Outcome struct {
	OptionID    string  `json:"option_id"`
	Description string  `json:"description"`
	Votes       int     `json:"votes"`
	Weight      float64 `json:"weight"`
	Confidence  float64 `json:"confidence"`
}

// Metrics summarizes coordinator activity.
type Metrics struct {
	TotalGroups         int     `json:"total_groups"`
	ActiveDecisions     int     `json:"active_decisions"`
	SuccessfulDecisions uint64  `json:"successful_decisions"`
	FailedDecisions     uint64  `json:"failed_decisions"`
	AvgDecisionTime     float64 `json:"avg_decision_time"`
	CollectiveIQ        float64 `json:"collective_iq"`
}

// Coordinator runs group bookkeeping and the decision pipeline. Safe for
// concurrent use.
type Coordinator struct {
	mu        sync.RWMutex
	groups    map[string]*Group
	decisions map[string]*Decision
	metrics   Metrics
}

// New returns an empty coordinator.
func New() *Coordinator {
	return &Coordinator{
		groups:    make(map[string]*Group),
		decisions: make(map[string]*Decision),
		metrics:   Metrics{CollectiveIQ: 100.0},
	}
}

// CreateGroup registers a new organism group and returns its ID.
func (c *Coordinator) CreateGroup(members []string, purpose string) (string, error) {
	if len(members) == 0 {
		return "", fmt.Errorf("%w: a group needs at least one member", ErrInsufficientParticipants)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := "group_" + uuid.New().String()
	c.groups[id] = &Group{
		ID:                id,
		Members:           append([]string(nil), members...),
		Purpose:           purpose,
		IntelligenceLevel: 0.5,
		Cohesion:          0.6,
		CreatedAt:         time.Now().Unix(),
	}
	c.metrics.TotalGroups++
	return id, nil
}

// Group returns a copy of the group, if it exists.
func (c *Coordinator) Group(id string) (Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.groups[id]
	if !ok {
		return Group{}, false
	}
	return copyGroup(g), true
}

// Groups lists all groups ordered by ID.
func (c *Coordinator) Groups() []Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Group, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, copyGroup(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DisbandGroup removes a group. TotalGroups is a lifetime counter and
// keeps the disbanded group in its tally.
func (c *Coordinator) DisbandGroup(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.groups[id]; !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	delete(c.groups, id)
	return nil
}

// InitiateDecision proposes a question to participants and returns the
// decision ID. Each option gets its own ID for vote addressing.
func (c *Coordinator) InitiateDecision(question string, participants, options []string, algo Algorithm) (string, error) {
	if len(participants) == 0 {
		return "", fmt.Errorf("%w: a decision needs participants", ErrInsufficientParticipants)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := make([]Option, len(options))
	for i, desc := range options {
		opts[i] = Option{ID: uuid.New().String(), Description: desc}
	}
	id := "decision_" + uuid.New().String()
	c.decisions[id] = &Decision{
		ID:           id,
		Question:     question,
		Participants: append([]string(nil), participants...),
		Options:      opts,
		Algorithm:    algo,
		Status:       StatusProposed,
		CreatedAt:    time.Now().Unix(),
	}
	return id, nil
}

// OpenVoting moves a proposed decision into its voting phase.
func (c *Coordinator) OpenVoting(decisionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.decisions[decisionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDecisionNotFound, decisionID)
	}
	if d.Status != StatusProposed {
		return fmt.Errorf("decision %s is %s, cannot open voting", decisionID, d.Status)
	}
	d.Status = StatusVoting
	return nil
}

// CastVote records one organism's vote on an option. The option's weight
// grows by strength times confidence.
func (c *Coordinator) CastVote(decisionID, organismID, optionID string, strength, confidence float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.decisions[decisionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDecisionNotFound, decisionID)
	}
	if d.Status != StatusVoting {
		return fmt.Errorf("%w: %s is %s", ErrDecisionNotVoting, decisionID, d.Status)
	}
	for i := range d.Options {
		if d.Options[i].ID != optionID {
			continue
		}
		d.Options[i].Votes = append(d.Options[i].Votes, Vote{
			OrganismID: organismID,
			Strength:   strength,
			Confidence: confidence,
			Timestamp:  time.Now().Unix(),
		})
		d.Options[i].Weight += strength * confidence
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOptionNotFound, optionID)
}

// Finalize folds the votes with the decision's algorithm and, when it
// decides, returns the winning option with its tally.
func (c *Coordinator) Finalize(decisionID string) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.decisions[decisionID]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrDecisionNotFound, decisionID)
	}
	if d.Status != StatusVoting {
		return Outcome{}, fmt.Errorf("%w: %s is %s", ErrDecisionNotVoting, decisionID, d.Status)
	}

	totalVotes := 0
	totalWeight := 0.0
	voters := make(map[string]struct{})
	for i := range d.Options {
		totalVotes += len(d.Options[i].Votes)
		totalWeight += d.Options[i].Weight
		for _, v := range d.Options[i].Votes {
			voters[v.OrganismID] = struct{}{}
		}
	}
	if totalVotes == 0 {
		return Outcome{}, ErrNoVotesCast
	}

	var winner *Option
	var confidence float64
	switch d.Algorithm {
	case AlgorithmMajority:
		winner = maxBy(d.Options, func(o *Option) float64 { return float64(len(o.Votes)) })
		confidence = float64(len(winner.Votes)) / float64(len(d.Participants))
	case AlgorithmWeightedByFitness:
		winner = maxBy(d.Options, func(o *Option) float64 { return o.Weight })
		confidence = winner.Weight / float64(len(d.Options))
	case AlgorithmConsensus:
		winner = maxBy(d.Options, func(o *Option) float64 { return o.Weight })
		share := 0.0
		if totalWeight > 0 {
			share = winner.Weight / totalWeight
		}
		if share < ConsensusThreshold {
			return Outcome{}, fmt.Errorf("%w: leading option holds %.0f%% of the weight, need %.0f%%",
				ErrConsensusNotReached, share*100, ConsensusThreshold*100)
		}
		confidence = share
	case AlgorithmQuorum:
		turnout := float64(len(voters)) / float64(len(d.Participants))
		if turnout < QuorumFraction {
			return Outcome{}, fmt.Errorf("%w: %d of %d participants voted",
				ErrQuorumNotMet, len(voters), len(d.Participants))
		}
		winner = maxBy(d.Options, func(o *Option) float64 { return float64(len(o.Votes)) })
		confidence = turnout
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrAlgorithmNotImplemented, d.Algorithm)
	}

	d.Result = winner.Description
	d.Status = StatusDecided
	d.Confidence = confidence
	c.metrics.SuccessfulDecisions++
	elapsed := float64(time.Now().Unix() - d.CreatedAt)
	n := float64(c.metrics.SuccessfulDecisions)
	c.metrics.AvgDecisionTime += (elapsed - c.metrics.AvgDecisionTime) / n

	return Outcome{
		OptionID:    winner.ID,
		Description: winner.Description,
		Votes:       len(winner.Votes),
		Weight:      winner.Weight,
		Confidence:  confidence,
	}, nil
}

// CancelDecision abandons a decision that has not been decided yet.
func (c *Coordinator) CancelDecision(decisionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.decisions[decisionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDecisionNotFound, decisionID)
	}
	if d.Status == StatusDecided || d.Status == StatusCancelled {
		return fmt.Errorf("decision %s is already %s", decisionID, d.Status)
	}
	d.Status = StatusCancelled
	c.metrics.FailedDecisions++
	return nil
}

// Decision returns a copy of the decision, if it exists.
func (c *Coordinator) Decision(id string) (Decision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.decisions[id]
	if !ok {
		return Decision{}, false
	}
	return copyDecision(d), true
}

// Metrics returns a snapshot of coordinator activity. ActiveDecisions is
// computed from live decision states.
func (c *Coordinator) Metrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.metrics
	for _, d := range c.decisions {
		if d.Status == StatusProposed || d.Status == StatusVoting {
			m.ActiveDecisions++
		}
	}
	return m
}

func maxBy(options []Option, score func(*Option) float64) *Option {
	best := &options[0]
	for i := 1; i < len(options); i++ {
		if score(&options[i]) > score(best) {
			best = &options[i]
		}
	}
	return best
}

func copyGroup(g *Group) Group {
	out := *g
	out.Members = append([]string(nil), g.Members...)
	return out
}

func copyDecision(d *Decision) Decision {
	out := *d
	out.Participants = append([]string(nil), d.Participants...)
	out.Options = make([]Option, len(d.Options))
	for i, o := range d.Options {
		out.Options[i] = o
		out.Options[i].Votes = append([]Vote(nil), o.Votes...)
	}
	return out
}
