package engine

import "sort"

// Effect is a change a transition asks the storage layer to make. The
// concrete types are RecordPrediction, RecordTotalPredicted,
// RecordTricksWon, AdjustScore, CreateRound and CompleteGame.
type Effect interface {
	effect()
}

type RecordPrediction struct {
	RoundNumber  int
	PlayerNumber int
	Predicted    int
}

type RecordTotalPredicted struct {
	RoundNumber int
	Total       int
}

type RecordTricksWon struct {
	RoundNumber  int
	PlayerNumber int
	Won          int
}

// AdjustScore adds Delta to a player's running score.
type AdjustScore struct {
	PlayerNumber int
	Delta        int
}

// CreateRound adds the next round, with a NotBid participation for every
// player, and stores the new direction of the hand size ramp.
type CreateRound struct {
	Round      Round
	Descending bool
}

type CompleteGame struct{}

func (RecordPrediction) effect()     {}
func (RecordTotalPredicted) effect() {}
func (RecordTricksWon) effect()      {}
func (AdjustScore) effect()          {}
func (CreateRound) effect()          {}
func (CompleteGame) effect()         {}

// NewGame sets up an ongoing game for entrants, numbered 1..N in the order
// given, with round 1 dealt.
func NewGame(rules Rules, entrants []Entrant) (Game, error) {
	if err := rules.Validate(len(entrants)); err != nil {
		return Game{}, err
	}

	seen := make(map[uint]bool, len(entrants))
	roster := make([]Name, len(entrants))
	for i, e := range entrants {
		if seen[e.PlayerID] {
			return Game{}, ErrDuplicatePlayer
		}
		seen[e.PlayerID] = true
		if e.Deleted {
			return Game{}, ErrPlayerDeleted
		}
		roster[i] = Name{First: e.FirstName, Last: e.LastName}
	}
	displayNames := UniqueDisplayNames(roster)

	g := Game{
		Rules:      rules,
		Descending: true,
		Status:     StatusOngoing,
		Players:    make([]GamePlayer, len(entrants)),
	}
	for i, e := range entrants {
		g.Players[i] = GamePlayer{
			PlayerID:     e.PlayerID,
			PlayerNumber: i + 1,
			DisplayName:  displayNames[i],
		}
	}
	g.Rounds = []Round{g.newRound(1, FirstTrump, rules.StartingCardNumber)}
	return g, nil
}

func (g *Game) newRound(number int, trump Suit, cardNumber int) Round {
	r := Round{
		Number:         number,
		Trump:          trump,
		CardNumber:     cardNumber,
		Participations: make([]Participation, len(g.Players)),
	}
	for i, p := range g.Players {
		r.Participations[i] = Participation{PlayerNumber: p.PlayerNumber, State: NotBid}
	}
	return r
}

// SubmitPredictions records every participant's bid for a round. A round
// that has already been scored is rescored straight away against the
// tricks already recorded.
func SubmitPredictions(g Game, roundNumber int, bids map[int]int) (Game, []Effect, error) {
	if !g.IsOngoing() {
		return g, nil, ErrGameCompleted
	}
	g = g.clone()
	round, err := g.Round(roundNumber)
	if err != nil {
		return g, nil, err
	}
	if err := RequireParticipants(bids, round.PlayerNumbers()); err != nil {
		return g, nil, err
	}
	if err := ValidatePredictions(bids, round.CardNumber); err != nil {
		return g, nil, err
	}

	multiplier := g.Multiplier(round.Number)
	var effects []Effect
	total := 0
	for _, i := range participationOrder(round) {
		p := &round.Participations[i]
		predicted := bids[p.PlayerNumber]
		total += predicted

		if p.State == Scored {
			delta := Rescore(&Result{Predicted: p.Predicted, Won: p.Won},
				Result{Predicted: predicted, Won: p.Won}, g.CorrectPredictionPoints, multiplier)
			effects = g.adjust(effects, p.PlayerNumber, delta)
		} else {
			p.State = Bid
		}
		p.Predicted = predicted
		effects = append(effects, RecordPrediction{RoundNumber: round.Number, PlayerNumber: p.PlayerNumber, Predicted: predicted})
	}
	round.TotalTricksPredicted = &total
	effects = append(effects, RecordTotalPredicted{RoundNumber: round.Number, Total: total})
	return g, effects, nil
}

// SubmitScores records the tricks every participant won in a round and
// updates running scores. Scoring the latest round for the first time
// moves the game on to the next round or completes it; resubmitting a
// scored round only corrects the scores.
func SubmitScores(g Game, roundNumber int, actuals map[int]int) (Game, []Effect, error) {
	if !g.IsOngoing() {
		return g, nil, ErrGameCompleted
	}
	g = g.clone()
	round, err := g.Round(roundNumber)
	if err != nil {
		return g, nil, err
	}
	editing := false
	for _, p := range round.Participations {
		if p.State == NotBid {
			return g, nil, ErrPredictionsMissing
		}
		if p.State == Scored {
			editing = true
		}
	}
	if err := RequireParticipants(actuals, round.PlayerNumbers()); err != nil {
		return g, nil, err
	}
	if err := ValidateScores(actuals, round.CardNumber); err != nil {
		return g, nil, err
	}

	multiplier := g.Multiplier(round.Number)
	var effects []Effect
	for _, i := range participationOrder(round) {
		p := &round.Participations[i]
		won := actuals[p.PlayerNumber]

		var previous *Result
		if p.State == Scored {
			previous = &Result{Predicted: p.Predicted, Won: p.Won}
		}
		delta := Rescore(previous, Result{Predicted: p.Predicted, Won: won}, g.CorrectPredictionPoints, multiplier)
		effects = g.adjust(effects, p.PlayerNumber, delta)

		p.Won = won
		p.State = Scored
		effects = append(effects, RecordTricksWon{RoundNumber: round.Number, PlayerNumber: p.PlayerNumber, Won: won})
	}

	if editing || round.Number != g.CurrentRound().Number {
		return g, effects, nil
	}

	next, descending, over := NextCardNumber(round.CardNumber, g.StartingCardNumber, g.Descending)
	if over {
		g.Status = StatusCompleted
		return g, append(effects, CompleteGame{}), nil
	}
	g.Descending = descending
	nextRound := g.newRound(round.Number+1, NextTrump(round.Trump), next)
	g.Rounds = append(g.Rounds, nextRound)
	return g, append(effects, CreateRound{Round: nextRound, Descending: descending}), nil
}

func (g *Game) adjust(effects []Effect, playerNumber, delta int) []Effect {
	if delta == 0 {
		return effects
	}
	if p, ok := g.Player(playerNumber); ok {
		p.Score += delta
	}
	return append(effects, AdjustScore{PlayerNumber: playerNumber, Delta: delta})
}

func participationOrder(r *Round) []int {
	idx := make([]int, len(r.Participations))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return r.Participations[idx[a]].PlayerNumber < r.Participations[idx[b]].PlayerNumber
	})
	return idx
}
