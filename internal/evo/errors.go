package evo

import "errors"

var ErrInsufficientFitness = errors.New("fitness below survival threshold")
