package engine

import "sort"

type Standing struct {
	Rank         int    `json:"rank"`
	PlayerNumber int    `json:"player_number"`
	PlayerID     uint   `json:"player_id"`
	DisplayName  string `json:"display_name"`
	Score        int    `json:"score"`
}

// Standings orders players by score, highest first. Tied players share a
// rank and the next rank skips accordingly (1, 1, 3).
func Standings(players []GamePlayer) []Standing {
	sorted := append([]GamePlayer(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].PlayerNumber < sorted[j].PlayerNumber
	})

	standings := make([]Standing, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		if i > 0 && p.Score == sorted[i-1].Score {
			rank = standings[i-1].Rank
		}
		standings[i] = Standing{
			Rank:         rank,
			PlayerNumber: p.PlayerNumber,
			PlayerID:     p.PlayerID,
			DisplayName:  p.DisplayName,
			Score:        p.Score,
		}
	}
	return standings
}

// Winners returns every player tied on the top score of a completed game,
// and nothing while the game is still being played.
func Winners(g *Game) []Standing {
	if g.Status != StatusCompleted {
		return nil
	}
	var winners []Standing
	for _, s := range Standings(g.Players) {
		if s.Rank != 1 {
			break
		}
		winners = append(winners, s)
	}
	return winners
}

type HistoryEntry struct {
	PlayerNumber int    `json:"player_number"`
	DisplayName  string `json:"display_name"`
	Predicted    *int   `json:"tricks_predicted"`
	Won          *int   `json:"tricks_won"`
	Points       *int   `json:"points"`
	Total        *int   `json:"total"`
}

type RoundHistory struct {
	RoundNumber          int            `json:"round_number"`
	Trump                Suit           `json:"trump_suit"`
	CardNumber           int            `json:"card_number"`
	Multiplier           int            `json:"multiplier"`
	DealerNumber         int            `json:"dealer_number"`
	TotalTricksPredicted *int           `json:"total_tricks_predicted"`
	Entries              []HistoryEntry `json:"entries"`
}

// History rebuilds the points each player earned in each round, and their
// running total after it, from the recorded predictions and tricks.
func History(g *Game) []RoundHistory {
	rounds := append([]Round(nil), g.Rounds...)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })

	totals := make(map[int]int, len(g.Players))
	history := make([]RoundHistory, 0, len(rounds))
	for _, r := range rounds {
		multiplier := g.Multiplier(r.Number)
		h := RoundHistory{
			RoundNumber:          r.Number,
			Trump:                r.Trump,
			CardNumber:           r.CardNumber,
			Multiplier:           multiplier,
			DealerNumber:         DealerNumber(r.Number, len(g.Players)),
			TotalTricksPredicted: r.TotalTricksPredicted,
		}
		for _, i := range participationOrder(&r) {
			p := r.Participations[i]
			entry := HistoryEntry{PlayerNumber: p.PlayerNumber}
			if gp, ok := g.Player(p.PlayerNumber); ok {
				entry.DisplayName = gp.DisplayName
			}
			if predicted, ok := p.Prediction(); ok {
				entry.Predicted = intPtr(predicted)
			}
			if won, ok := p.TricksWon(); ok {
				points := Award(p.Predicted, won, g.CorrectPredictionPoints, multiplier)
				totals[p.PlayerNumber] += points
				entry.Won = intPtr(won)
				entry.Points = intPtr(points)
				entry.Total = intPtr(totals[p.PlayerNumber])
			}
			h.Entries = append(h.Entries, entry)
		}
		history = append(history, h)
	}
	return history
}

func intPtr(v int) *int {
	return &v
}
