package engine

import "sort"

// ValidatePredictions checks a full set of bids for a round dealt with
// cardNumber cards. Each bid must lie in [0, cardNumber] and the bids must
// not add up to cardNumber.
func ValidatePredictions(bids map[int]int, cardNumber int) error {
	sum, err := checkRange(bids, cardNumber)
	if err != nil {
		return err
	}
	if sum == cardNumber {
		return &ValidationError{Constraint: ConstraintBidSum, CardNumber: cardNumber, Sum: sum, err: ErrInvalidBidSum}
	}
	return nil
}

// ValidateScores checks a full set of tricks won for a round dealt with
// cardNumber cards. Each value must lie in [0, cardNumber] and the values
// must add up to cardNumber.
func ValidateScores(actuals map[int]int, cardNumber int) error {
	sum, err := checkRange(actuals, cardNumber)
	if err != nil {
		return err
	}
	if sum != cardNumber {
		return &ValidationError{Constraint: ConstraintScoreSum, CardNumber: cardNumber, Sum: sum, err: ErrInvalidScoreSum}
	}
	return nil
}

// RequireParticipants checks that values holds exactly one entry per
// participant player number.
func RequireParticipants(values map[int]int, participants []int) error {
	expected := make(map[int]bool, len(participants))
	for _, n := range participants {
		expected[n] = true
		if _, ok := values[n]; !ok {
			return &ValidationError{Constraint: ConstraintComplete, PlayerNumber: n, err: ErrIncompleteSubmission}
		}
	}
	for _, n := range sortedKeys(values) {
		if !expected[n] {
			return &ValidationError{Constraint: ConstraintComplete, PlayerNumber: n, err: ErrIncompleteSubmission}
		}
	}
	return nil
}

func checkRange(values map[int]int, cardNumber int) (int, error) {
	sum := 0
	for _, n := range sortedKeys(values) {
		v := values[n]
		if v < 0 || v > cardNumber {
			return 0, &ValidationError{Constraint: ConstraintRange, CardNumber: cardNumber, PlayerNumber: n, err: ErrOutOfRange}
		}
		sum += v
	}
	return sum, nil
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
