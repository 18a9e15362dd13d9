package engine

// NextCardNumber computes the hand size of the round following one dealt
// with current cards. Hands shrink by one down to a single card, then grow
// back by one; the game is over once the size would exceed starting.
func NextCardNumber(current, starting int, descending bool) (next int, nextDescending bool, gameOver bool) {
	nextDescending = descending
	switch {
	case descending && current == 1:
		nextDescending = false
		next = 2
	case descending:
		next = current - 1
	default:
		next = current + 1
	}
	return next, nextDescending, next > starting
}

// TotalRounds is the number of rounds in a game that starts with a hand of
// starting cards.
func TotalRounds(starting int) int {
	if starting < 1 {
		return 0
	}
	return 2*starting - 1
}

// CardNumberForRound returns the hand size of the given 1-based round, or 0
// when the round lies outside the game.
func CardNumberForRound(roundNumber, starting int) int {
	if roundNumber < 1 || roundNumber > TotalRounds(starting) {
		return 0
	}
	if roundNumber <= starting {
		return starting - roundNumber + 1
	}
	return roundNumber - starting + 1
}

// IsFinalRound reports whether roundNumber is the last round of the game.
func IsFinalRound(roundNumber, starting int) bool {
	return roundNumber == TotalRounds(starting)
}
