package neural

import "errors"

var (
	ErrTooManySynapses = errors.New("synapse limit reached")
	ErrSynapseNotFound = errors.New("synapse not found")
	ErrInvalidMessage  = errors.New("invalid neural message")
	ErrMessageExpired  = errors.New("neural message expired")
)
