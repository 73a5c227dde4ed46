// Package dna implements the genetic substrate of digital organisms: a
// cryptographically keyed byte sequence that mutates, recombines and
// accumulates fitness across generations. A genome's identity is its
// ed25519 keypair; the sequence is derived from the public key at birth
// and rewritten only through the closed set of mutation operators.
package dna

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"time"

	"genesis/internal/keys"
	"genesis/internal/model"
)

// DefaultSpecies labels genomes minted by Generate.
const DefaultSpecies = "TRON"

const baseMutationRate = 0.01

// Genome is the living genetic state of one organism. It is not safe for
// concurrent use; owners serialize access.
type Genome struct {
	Sequence    []byte
	Generation  uint64
	Fitness     float64
	MutationLog model.MutationLog
	CreatedAt   int64
	ParentHash  string
	Meta        model.GenomeMetadata
	Keys        keys.Keypair
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rng
}

// Generate mints a generation-zero genome: a fresh keypair and a 64-byte
// sequence grown from the public key, the wall clock and entropy drawn
// from rng.
func Generate(rng *rand.Rand) (*Genome, error) {
	rng = ensureRNG(rng)
	kp, err := keys.Generate()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var buf [8]byte

	h := sha256.New()
	h.Write(kp.Public)
	binary.LittleEndian.PutUint64(buf[:], uint64(now.UnixNano()))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], rng.Uint64())
	h.Write(buf[:])
	seq := h.Sum(nil)

	// Extend the 32-byte root to 64 bytes, four bytes per round, each
	// round folding the whole sequence so far back into the hash.
	for i := 0; i < 8; i++ {
		round := sha256.New()
		round.Write(seq)
		binary.LittleEndian.PutUint64(buf[:], rng.Uint64())
		round.Write(buf[:])
		seq = append(seq, round.Sum(nil)[:4]...)
	}

	return &Genome{
		Sequence:   seq,
		Generation: 0,
		Fitness:    1.0,
		CreatedAt:  now.Unix(),
		Keys:       kp,
		Meta: model.GenomeMetadata{
			Species:                DefaultSpecies,
			BiologicalAge:          0,
			MutationRate:           baseMutationRate,
			CrossoverCompatibility: 0.8,
			AdaptationScore:        0.5,
			ReproductiveSuccess:    0.0,
			NeuralComplexity:       0.1,
		},
	}, nil
}

// Hash returns the hex SHA-256 identity of the genome, folding sequence,
// generation and public key together. Any mutation changes it.
func (g *Genome) Hash() string {
	h := sha256.New()
	h.Write(g.Sequence)
	var gen [8]byte
	binary.LittleEndian.PutUint64(gen[:], g.Generation)
	h.Write(gen[:])
	h.Write(g.Keys.Public)
	return hex.EncodeToString(h.Sum(nil))
}

// Sign signs data with the genome's current key generation.
func (g *Genome) Sign(data []byte) ([]byte, error) {
	return g.Keys.Sign(data)
}

// VerifySignature reports whether sig was produced over data by this
// genome's current key. Malformed input verifies false.
func (g *Genome) VerifySignature(data, sig []byte) bool {
	return keys.Verify(g.Keys.Public, data, sig)
}

// GeneticDistance measures sequence divergence from other as a fraction of
// the longer sequence: positionwise mismatches over the shared prefix plus
// the length difference. Identical genomes are at distance 0, disjoint
// ones approach 1.
func (g *Genome) GeneticDistance(other *Genome) float64 {
	minLen, maxLen := len(g.Sequence), len(other.Sequence)
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	if maxLen == 0 {
		return 0
	}
	diff := maxLen - minLen
	for i := 0; i < minLen; i++ {
		if g.Sequence[i] != other.Sequence[i] {
			diff++
		}
	}
	return float64(diff) / float64(maxLen)
}

// UpdateFitness folds a performance score into fitness and adaptation as
// exponential moving averages. Fitness is clamped to [0, 2], adaptation
// to [0, 1].
func (g *Genome) UpdateFitness(score float64) {
	g.Fitness = clamp(g.Fitness*0.9+score*0.1, 0, 2)
	g.Meta.AdaptationScore = clamp(g.Meta.AdaptationScore*0.8+score*0.2, 0, 1)
}

// Clone deep-copies the genome, including a fresh guarded buffer for the
// signing key.
func (g *Genome) Clone() (*Genome, error) {
	kp, err := g.Keys.Clone()
	if err != nil {
		return nil, err
	}
	out := *g
	out.Sequence = append([]byte(nil), g.Sequence...)
	out.MutationLog = append(model.MutationLog(nil), g.MutationLog...)
	out.Keys = kp
	return &out, nil
}

// Model projects the genome onto its serializable record. Only public key
// material crosses this boundary; the signing key has no representation
// in the model.
func (g *Genome) Model() model.Genome {
	rec := model.Genome{
		Hash:           g.Hash(),
		Sequence:       append([]byte(nil), g.Sequence...),
		Generation:     g.Generation,
		Fitness:        g.Fitness,
		MutationLog:    append(model.MutationLog(nil), g.MutationLog...),
		PublicKey:      append([]byte(nil), g.Keys.Public...),
		KeyGeneration:  g.Keys.Generation,
		DerivationPath: append([]uint32(nil), g.Keys.Path...),
		CreatedAt:      g.CreatedAt,
		Metadata:       g.Meta,
	}
	if g.ParentHash != "" {
		parent := g.ParentHash
		rec.ParentHash = &parent
	}
	return rec
}

// Destroy releases the genome's guarded signing key.
func (g *Genome) Destroy() {
	g.Keys.Destroy()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
