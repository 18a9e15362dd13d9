package engine

// DefaultCorrectPredictionPoints is the bonus awarded for an exact
// prediction unless a game says otherwise.
const DefaultCorrectPredictionPoints = 5

// Result is one player's prediction and tricks won in a round.
type Result struct {
	Predicted int
	Won       int
}

// RoundMultiplier returns 2 for the final round of a game played with the
// double last round option, 1 otherwise.
func RoundMultiplier(roundNumber, startingCardNumber int, doubleLastRound bool) int {
	if doubleLastRound && IsFinalRound(roundNumber, startingCardNumber) {
		return 2
	}
	return 1
}

// Award is the number of points a result earns: one per trick won plus the
// bonus for an exact prediction, all scaled by the round multiplier.
func Award(predicted, won, bonus, multiplier int) int {
	points := won * multiplier
	if predicted == won {
		points += bonus * multiplier
	}
	return points
}

// Rescore returns the change to a running score when a player's result for
// a round becomes next. A non-nil previous is a result already counted in
// the running score and is taken back out first, so the score always holds
// exactly one award per scored round.
func Rescore(previous *Result, next Result, bonus, multiplier int) int {
	delta := Award(next.Predicted, next.Won, bonus, multiplier)
	if previous != nil {
		delta -= Award(previous.Predicted, previous.Won, bonus, multiplier)
	}
	return delta
}
