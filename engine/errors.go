package engine

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package matches exactly one of
// these through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state")
)

var (
	ErrInvalidBidSum        = fmt.Errorf("%w: predictions must not add up to the number of cards", ErrValidation)
	ErrInvalidScoreSum      = fmt.Errorf("%w: tricks won must add up to the number of cards", ErrValidation)
	ErrOutOfRange           = fmt.Errorf("%w: value out of range", ErrValidation)
	ErrIncompleteSubmission = fmt.Errorf("%w: a value is required for every player in the round", ErrValidation)
	ErrInvalidRules         = fmt.Errorf("%w: invalid game rules", ErrValidation)
	ErrDuplicatePlayer      = fmt.Errorf("%w: player listed more than once", ErrValidation)

	ErrPlayerDeleted      = fmt.Errorf("%w: deleted players cannot join new games", ErrState)
	ErrGameCompleted      = fmt.Errorf("%w: game is completed", ErrState)
	ErrPredictionsMissing = fmt.Errorf("%w: predictions have not been submitted for this round", ErrState)

	ErrRoundNotFound = fmt.Errorf("%w: round", ErrNotFound)
)

// Constraint names carried by ValidationError.
const (
	ConstraintBidSum   = "bid_sum"
	ConstraintScoreSum = "score_sum"
	ConstraintRange    = "range"
	ConstraintComplete = "complete"
)

// ValidationError describes a rejected bid or score submission with the
// limits that applied to it.
type ValidationError struct {
	Constraint   string
	CardNumber   int
	Sum          int
	PlayerNumber int
	err          error
}

func (e *ValidationError) Error() string {
	switch e.Constraint {
	case ConstraintRange:
		return fmt.Sprintf("player %d: value must be between 0 and %d", e.PlayerNumber, e.CardNumber)
	case ConstraintBidSum:
		return fmt.Sprintf("predictions add up to %d; the total must not equal the %d cards dealt", e.Sum, e.CardNumber)
	case ConstraintScoreSum:
		return fmt.Sprintf("tricks won add up to %d; the total must equal the %d cards dealt", e.Sum, e.CardNumber)
	case ConstraintComplete:
		if e.PlayerNumber > 0 {
			return fmt.Sprintf("player %d is not part of this round or has no value", e.PlayerNumber)
		}
	}
	return e.err.Error()
}

func (e *ValidationError) Unwrap() error { return e.err }
