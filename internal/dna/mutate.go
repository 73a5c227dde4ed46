package dna

import (
	"fmt"
	"math/rand"
	"time"

	"genesis/internal/model"
)

// Mutate validates m against the current sequence and applies it. The check
// happens before any state changes, so a rejected operator leaves sequence,
// log, generation and fitness exactly as they were.
func (g *Genome) Mutate(m model.Mutation) error {
	if err := g.validate(m); err != nil {
		return err
	}
	if err := g.apply(m); err != nil {
		return err
	}

	g.MutationLog = append(g.MutationLog, m)
	g.Generation++
	g.Meta.BiologicalAge++
	g.Fitness *= 0.98
	g.Meta.MutationRate = g.Meta.MutationRate*0.9 + 0.1*baseMutationRate
	g.Meta.AdaptationScore *= 0.95
	return nil
}

func (g *Genome) validate(m model.Mutation) error {
	n := len(g.Sequence)
	switch op := m.(type) {
	case model.PointMutation:
		if op.Position < 0 || op.Position >= n {
			return fmt.Errorf("%w: position %d, sequence length %d", ErrInvalidMutationPosition, op.Position, n)
		}
	case model.Insertion:
		if op.Position < 0 || op.Position > n {
			return fmt.Errorf("%w: position %d, sequence length %d", ErrInvalidMutationPosition, op.Position, n)
		}
	case model.Deletion:
		if op.Position < 0 || op.Position >= n || op.Length < 1 || op.Position+op.Length > n {
			return fmt.Errorf("%w: position %d, length %d, sequence length %d", ErrInvalidMutationPosition, op.Position, op.Length, n)
		}
		if op.Length >= n {
			return fmt.Errorf("%w: deleting %d of %d bytes would empty the sequence", ErrInvalidMutationRange, op.Length, n)
		}
	case model.Duplication:
		return checkRange(op.Start, op.End, n)
	case model.Inversion:
		return checkRange(op.Start, op.End, n)
	case model.Translocation:
		return checkRange(op.FromStart, op.FromEnd, n)
	case model.KeyEvolution:
		// Structurally always valid; derivation failures surface at apply.
	default:
		return fmt.Errorf("unsupported mutation kind %q", m.Kind())
	}
	return nil
}

func checkRange(start, end, n int) error {
	if start < 0 || start >= n || end > n || start >= end {
		return fmt.Errorf("%w: [%d, %d) against sequence length %d", ErrInvalidMutationRange, start, end, n)
	}
	return nil
}

func (g *Genome) apply(m model.Mutation) error {
	switch op := m.(type) {
	case model.PointMutation:
		g.Sequence[op.Position] = op.NewValue
	case model.Insertion:
		g.Sequence = splice(g.Sequence, op.Position, op.Bytes)
	case model.Deletion:
		g.Sequence = append(g.Sequence[:op.Position], g.Sequence[op.Position+op.Length:]...)
	case model.Duplication:
		segment := append([]byte(nil), g.Sequence[op.Start:op.End]...)
		g.Sequence = splice(g.Sequence, min(op.InsertAt, len(g.Sequence)), segment)
	case model.Inversion:
		reverse(g.Sequence[op.Start:op.End])
	case model.Translocation:
		// Excise first, then reinsert; the target position clamps against
		// the shortened sequence.
		segment := append([]byte(nil), g.Sequence[op.FromStart:op.FromEnd]...)
		g.Sequence = append(g.Sequence[:op.FromStart], g.Sequence[op.FromEnd:]...)
		g.Sequence = splice(g.Sequence, min(op.ToPosition, len(g.Sequence)), segment)
	case model.KeyEvolution:
		if err := g.Keys.Evolve(op.NewGeneration, g.Sequence); err != nil {
			return fmt.Errorf("%w: %v", ErrKeyEvolutionFailed, err)
		}
	}
	return nil
}

// RandomMutation draws one operator whose parameters are guaranteed valid
// against the current sequence, weighted uniformly across the seven kinds.
func (g *Genome) RandomMutation(rng *rand.Rand) model.Mutation {
	rng = ensureRNG(rng)
	now := time.Now().Unix()
	n := len(g.Sequence)
	if n == 0 {
		// Sequences never empty through mutation, but a bare genome can
		// still evolve its keys.
		return model.KeyEvolution{
			OldGeneration: g.Keys.Generation,
			NewGeneration: g.Keys.Generation + 1,
			Timestamp:     now,
		}
	}

	switch rng.Intn(7) {
	case 0:
		return g.randomPoint(rng, now)
	case 1:
		bytes := make([]byte, 1+rng.Intn(8))
		rng.Read(bytes)
		return model.Insertion{
			Position:  rng.Intn(n + 1),
			Bytes:     bytes,
			Timestamp: now,
		}
	case 2:
		if n < 2 {
			// A single-byte sequence cannot shrink further.
			return g.randomPoint(rng, now)
		}
		pos := rng.Intn(n)
		length := min(1+rng.Intn(4), n-pos, n-1)
		return model.Deletion{
			Position:  pos,
			Length:    length,
			Timestamp: now,
		}
	case 3:
		start := rng.Intn(n)
		return model.Duplication{
			Start:     start,
			End:       min(start+1+rng.Intn(8), n),
			InsertAt:  rng.Intn(n + 1),
			Timestamp: now,
		}
	case 4:
		start := rng.Intn(n)
		return model.Inversion{
			Start:     start,
			End:       min(start+1+rng.Intn(8), n),
			Timestamp: now,
		}
	case 5:
		start := rng.Intn(n)
		return model.Translocation{
			FromStart:  start,
			FromEnd:    min(start+1+rng.Intn(4), n),
			ToPosition: rng.Intn(n + 1),
			Timestamp:  now,
		}
	default:
		return model.KeyEvolution{
			OldGeneration: g.Keys.Generation,
			NewGeneration: g.Keys.Generation + 1,
			Timestamp:     now,
		}
	}
}

func (g *Genome) randomPoint(rng *rand.Rand, now int64) model.PointMutation {
	pos := rng.Intn(len(g.Sequence))
	return model.PointMutation{
		Position:  pos,
		OldValue:  g.Sequence[pos],
		NewValue:  byte(rng.Intn(256)),
		Timestamp: now,
	}
}

func splice(seq []byte, at int, insert []byte) []byte {
	out := make([]byte, 0, len(seq)+len(insert))
	out = append(out, seq[:at]...)
	out = append(out, insert...)
	out = append(out, seq[at:]...)
	return out
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
