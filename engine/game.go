package engine

import (
	"fmt"
	"sort"
	"strings"
)

// CardsPerDeck is the size of a standard deck.
const CardsPerDeck = 52

// MaxNumberOfDecks bounds the decks a game may be dealt from.
const MaxNumberOfDecks = 10

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// Rules are the options a game is created with.
type Rules struct {
	Name                    string
	StartingCardNumber      int
	NumberOfDecks           int
	CorrectPredictionPoints int
	DoubleLastRound         bool
}

// Entrant is a player offered for a new game.
type Entrant struct {
	PlayerID  uint
	FirstName string
	LastName  string
	Deleted   bool
}

// Game is the full state of one game. IDs are zero until the game has been
// stored.
type Game struct {
	ID uint
	Rules
	Descending bool
	Status     Status
	Players    []GamePlayer
	Rounds     []Round
}

type GamePlayer struct {
	ID           uint
	PlayerID     uint
	PlayerNumber int
	DisplayName  string
	Score        int
}

type Round struct {
	ID                   uint
	Number               int
	Trump                Suit
	CardNumber           int
	TotalTricksPredicted *int
	Participations       []Participation
}

// ParticipationState tracks how far a player has got through a round.
type ParticipationState int

const (
	NotBid ParticipationState = iota
	Bid
	Scored
)

func (s ParticipationState) String() string {
	switch s {
	case Bid:
		return "bid"
	case Scored:
		return "scored"
	default:
		return "not_bid"
	}
}

// Participation is one player's record for one round. Predicted is
// meaningful once the state is Bid or Scored, Won only once it is Scored.
type Participation struct {
	ID           uint
	PlayerNumber int
	State        ParticipationState
	Predicted    int
	Won          int
}

func (p Participation) Prediction() (int, bool) {
	return p.Predicted, p.State != NotBid
}

func (p Participation) TricksWon() (int, bool) {
	return p.Won, p.State == Scored
}

// Validate checks rules for a game with the given number of players.
func (r Rules) Validate(playerCount int) error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: a name is required", ErrInvalidRules)
	case playerCount < 2:
		return fmt.Errorf("%w: at least two players are required", ErrInvalidRules)
	case r.StartingCardNumber < 1:
		return fmt.Errorf("%w: starting card number must be at least 1", ErrInvalidRules)
	case r.NumberOfDecks < 1 || r.NumberOfDecks > MaxNumberOfDecks:
		return fmt.Errorf("%w: number of decks must be between 1 and %d", ErrInvalidRules, MaxNumberOfDecks)
	case r.CorrectPredictionPoints < 0:
		return fmt.Errorf("%w: correct prediction points must not be negative", ErrInvalidRules)
	case r.StartingCardNumber > CardsPerDeck*r.NumberOfDecks/playerCount:
		return fmt.Errorf("%w: %d players cannot each be dealt %d cards from %d deck(s)",
			ErrInvalidRules, playerCount, r.StartingCardNumber, r.NumberOfDecks)
	}
	return nil
}

// Round returns the round with the given number.
func (g *Game) Round(number int) (*Round, error) {
	for i := range g.Rounds {
		if g.Rounds[i].Number == number {
			return &g.Rounds[i], nil
		}
	}
	return nil, fmt.Errorf("%w %d", ErrRoundNotFound, number)
}

// CurrentRound is the round with the highest number, or nil for a game
// with no rounds.
func (g *Game) CurrentRound() *Round {
	var current *Round
	for i := range g.Rounds {
		if current == nil || g.Rounds[i].Number > current.Number {
			current = &g.Rounds[i]
		}
	}
	return current
}

// Player returns the game player with the given player number.
func (g *Game) Player(number int) (*GamePlayer, bool) {
	for i := range g.Players {
		if g.Players[i].PlayerNumber == number {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// Dealer returns the dealer of the given round.
func (g *Game) Dealer(roundNumber int) (*GamePlayer, bool) {
	return g.Player(DealerNumber(roundNumber, len(g.Players)))
}

func (g *Game) Multiplier(roundNumber int) int {
	return RoundMultiplier(roundNumber, g.StartingCardNumber, g.DoubleLastRound)
}

func (g *Game) IsOngoing() bool {
	return g.Status == StatusOngoing
}

// PlayerNumbers returns the round's participants in player number order.
func (r *Round) PlayerNumbers() []int {
	numbers := make([]int, len(r.Participations))
	for i, p := range r.Participations {
		numbers[i] = p.PlayerNumber
	}
	sort.Ints(numbers)
	return numbers
}

// Complete reports whether every participant has a score recorded.
func (r *Round) Complete() bool {
	if len(r.Participations) == 0 {
		return false
	}
	for _, p := range r.Participations {
		if p.State != Scored {
			return false
		}
	}
	return true
}

func (g Game) clone() Game {
	c := g
	c.Players = append([]GamePlayer(nil), g.Players...)
	c.Rounds = make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		c.Rounds[i] = r
		if r.TotalTricksPredicted != nil {
			total := *r.TotalTricksPredicted
			c.Rounds[i].TotalTricksPredicted = &total
		}
		c.Rounds[i].Participations = append([]Participation(nil), r.Participations...)
	}
	return c
}
