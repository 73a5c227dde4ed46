package dna

import "errors"

var (
	ErrInvalidMutationPosition = errors.New("mutation position outside sequence bounds")
	ErrInvalidMutationRange    = errors.New("mutation range outside sequence bounds")
	ErrCrossoverIncompatible   = errors.New("crossover compatibility below threshold")
	ErrSequenceTooShort        = errors.New("sequence too short for crossover")
	ErrKeyEvolutionFailed      = errors.New("key evolution failed")
)
