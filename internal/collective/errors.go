package collective

import "errors"

var (
	ErrGroupNotFound            = errors.New("group not found")
	ErrDecisionNotFound         = errors.New("decision not found")
	ErrOptionNotFound           = errors.New("option not found")
	ErrDecisionNotVoting        = errors.New("decision is not in voting state")
	ErrNoVotesCast              = errors.New("no votes cast")
	ErrAlgorithmNotImplemented  = errors.New("decision algorithm not implemented")
	ErrInsufficientParticipants = errors.New("insufficient participants")
	ErrConsensusNotReached      = errors.New("consensus threshold not reached")
	ErrQuorumNotMet             = errors.New("quorum not met")
)
