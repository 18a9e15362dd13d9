package engine

// Suit is the trump suit of a round, stored as its one-letter code.
type Suit string

const (
	Hearts   Suit = "H"
	Clubs    Suit = "C"
	Diamonds Suit = "D"
	Spades   Suit = "S"
	NoTrumps Suit = "N"
)

// FirstTrump is the trump suit of round 1.
const FirstTrump = Hearts

var trumpCycle = map[Suit]Suit{
	Hearts:   Clubs,
	Clubs:    Diamonds,
	Diamonds: Spades,
	Spades:   NoTrumps,
	NoTrumps: Hearts,
}

var suitNames = map[Suit]string{
	Hearts:   "Hearts",
	Clubs:    "Clubs",
	Diamonds: "Diamonds",
	Spades:   "Spades",
	NoTrumps: "No Trumps",
}

// NextTrump returns the trump suit of the round after one played with s.
// An unrecognised suit restarts the cycle.
func NextTrump(s Suit) Suit {
	if next, ok := trumpCycle[s]; ok {
		return next
	}
	return FirstTrump
}

func (s Suit) Valid() bool {
	_, ok := trumpCycle[s]
	return ok
}

func (s Suit) Name() string {
	return suitNames[s]
}
