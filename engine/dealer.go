package engine

import "sort"

// DealerNumber returns the player number of the dealer for a round. The
// dealer also bids first.
func DealerNumber(roundNumber, playerCount int) int {
	if playerCount <= 0 {
		return 0
	}
	return roundNumber%playerCount + 1
}

// BiddingOrder returns the player numbers in the order they bid for a round,
// starting with the dealer and wrapping around.
func BiddingOrder(roundNumber int, playerNumbers []int) []int {
	sorted := append([]int(nil), playerNumbers...)
	sort.Ints(sorted)
	n := len(sorted)
	if n == 0 {
		return sorted
	}
	offset := roundNumber % n
	order := make([]int, 0, n)
	order = append(order, sorted[offset:]...)
	return append(order, sorted[:offset]...)
}
