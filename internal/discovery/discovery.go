// Package discovery keeps an in-memory registry of organisms and the
// neighbor topology between them. It is the bookkeeping a transport
// layer would consume; no sockets live here.
package discovery

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Status describes an organism's presence in the network.
type Status string

const (
	StatusOnline        Status = "online"
	StatusOffline       Status = "offline"
	StatusConnecting    Status = "connecting"
	StatusDisconnecting Status = "disconnecting"
	StatusMaintenance   Status = "maintenance"
	StatusDegraded      Status = "degraded"
)

// Node is one registered organism.
type Node struct {
	OrganismID        string  `json:"organism_id"`
	Address           string  `json:"address,omitempty"`
	Status            Status  `json:"status"`
	LastSeen          int64   `json:"last_seen"`
	ConnectionQuality float64 `json:"connection_quality"`
	TrustLevel        float64 `json:"trust_level"`
}

// TopologyMetrics summarizes the neighbor graph.
type TopologyMetrics struct {
	TotalNodes            int     `json:"total_nodes"`
	TotalConnections      int     `json:"total_connections"`
	NetworkDiameter       int     `json:"network_diameter"`
	ClusteringCoefficient float64 `json:"clustering_coefficient"`
	NetworkDensity        float64 `json:"network_density"`
}

// Stats is the registry-level summary.
type Stats struct {
	TotalOrganisms           int     `json:"total_organisms"`
	OnlineOrganisms          int     `json:"online_organisms"`
	TotalConnections         int     `json:"total_connections"`
	NetworkHealth            float64 `json:"network_health"`
	AverageConnectionQuality float64 `json:"average_connection_quality"`
}

// Registry tracks organisms and their neighbor links. Safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	neighbors map[string]map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:     make(map[string]*Node),
		neighbors: make(map[string]map[string]struct{}),
	}
}

// Register adds an organism or refreshes an existing entry. New entries
// come up online at baseline quality and trust.
func (r *Registry) Register(organismID, address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().Unix()
	if n, ok := r.nodes[organismID]; ok {
		n.Address = address
		n.Status = StatusOnline
		n.LastSeen = now
		return
	}
	r.nodes[organismID] = &Node{
		OrganismID:        organismID,
		Address:           address,
		Status:            StatusOnline,
		LastSeen:          now,
		ConnectionQuality: 0.8,
		TrustLevel:        0.5,
	}
	r.neighbors[organismID] = make(map[string]struct{})
}

// Deregister drops an organism and severs its links.
func (r *Registry) Deregister(organismID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[organismID]; !ok {
		return fmt.Errorf("%w: %s", ErrOrganismNotFound, organismID)
	}
	delete(r.nodes, organismID)
	for peer := range r.neighbors[organismID] {
		delete(r.neighbors[peer], organismID)
	}
	delete(r.neighbors, organismID)
	return nil
}

// Lookup returns a copy of the node, if registered.
func (r *Registry) Lookup(organismID string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[organismID]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// List returns all registered nodes ordered by organism ID.
func (r *Registry) List() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrganismID < out[j].OrganismID })
	return out
}

// MarkStatus sets an organism's presence state.
func (r *Registry) MarkStatus(organismID string, s Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[organismID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrganismNotFound, organismID)
	}
	n.Status = s
	n.LastSeen = time.Now().Unix()
	return nil
}

// Connect re-establishes contact with a known organism, lifting its
// connection quality. Offline organisms must re-register first.
func (r *Registry) Connect(organismID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[organismID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOrganismNotFound, organismID)
	}
	if n.Status == StatusOffline {
		return fmt.Errorf("%w: %s", ErrOrganismOffline, organismID)
	}
	n.Status = StatusOnline
	n.ConnectionQuality = 0.9
	n.LastSeen = time.Now().Unix()
	return nil
}

// Link records an undirected neighbor edge between two organisms.
func (r *Registry) Link(a, b string) error {
	if a == b {
		return fmt.Errorf("cannot link organism %s to itself", a)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range []string{a, b} {
		if _, ok := r.nodes[id]; !ok {
			return fmt.Errorf("%w: %s", ErrOrganismNotFound, id)
		}
	}
	r.neighbors[a][b] = struct{}{}
	r.neighbors[b][a] = struct{}{}
	return nil
}

// Unlink removes the edge between two organisms, if present.
func (r *Registry) Unlink(a, b string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.neighbors[a]; ok {
		delete(set, b)
	}
	if set, ok := r.neighbors[b]; ok {
		delete(set, a)
	}
}

// Neighbors returns an organism's neighbor IDs in sorted order.
func (r *Registry) Neighbors(organismID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.neighbors[organismID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FullMesh links every registered organism to every other one.
func (r *Registry) FullMesh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			r.neighbors[ids[i]][ids[j]] = struct{}{}
			r.neighbors[ids[j]][ids[i]] = struct{}{}
		}
	}
}

// Topology computes graph metrics over the current neighbor sets. The
// diameter is a sqrt-of-nodes approximation standing in for an
// all-pairs walk, which would not scale to large populations.
func (r *Registry) Topology() TopologyMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.nodes)
	edges := 0
	for _, set := range r.neighbors {
		edges += len(set)
	}
	edges /= 2

	maxEdges := 1
	if n > 1 {
		maxEdges = n * (n - 1) / 2
	}

	return TopologyMetrics{
		TotalNodes:            n,
		TotalConnections:      edges,
		NetworkDiameter:       int(math.Sqrt(float64(n))),
		ClusteringCoefficient: r.clusteringLocked(),
		NetworkDensity:        float64(edges) / float64(maxEdges),
	}
}

// clusteringLocked averages the local clustering coefficient over all
// nodes. Nodes with fewer than two neighbors contribute zero.
func (r *Registry) clusteringLocked() float64 {
	if len(r.nodes) == 0 {
		return 0
	}
	total := 0.0
	for id := range r.nodes {
		set := r.neighbors[id]
		if len(set) < 2 {
			continue
		}
		peers := make([]string, 0, len(set))
		for p := range set {
			peers = append(peers, p)
		}
		linked := 0
		for i := 0; i < len(peers); i++ {
			for j := i + 1; j < len(peers); j++ {
				if _, ok := r.neighbors[peers[i]][peers[j]]; ok {
					linked++
				}
			}
		}
		pairs := len(peers) * (len(peers) - 1) / 2
		total += float64(linked) / float64(pairs)
	}
	return total / float64(len(r.nodes))
}

// Stats summarizes registry health: availability averaged with
// connection quality.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.nodes)
	edges := 0
	for _, set := range r.neighbors {
		edges += len(set)
	}
	s := Stats{TotalOrganisms: n, TotalConnections: edges / 2}
	if n == 0 {
		return s
	}

	totalQuality := 0.0
	for _, node := range r.nodes {
		totalQuality += node.ConnectionQuality
		if node.Status == StatusOnline {
			s.OnlineOrganisms++
		}
	}
	availability := float64(s.OnlineOrganisms) / float64(n)
	s.AverageConnectionQuality = totalQuality / float64(n)
	s.NetworkHealth = (availability + s.AverageConnectionQuality) / 2
	return s
}
