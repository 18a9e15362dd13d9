package services

import (
	"context"
	"errors"

	"whatstrumps/engine"
	"whatstrumps/models"

	"gorm.io/gorm"
)

func (s *ServiceSuite) TestCreateGame() {
	game := s.threePlayerGame(3, false)

	s.Equal("Friday", game.Name)
	s.Equal(engine.StatusOngoing, game.Status)
	s.Equal(engine.DefaultCorrectPredictionPoints, game.CorrectPredictionPoints)
	s.Equal(1, game.NumberOfDecks)
	s.Equal(5, game.TotalRounds)

	var names []string
	for _, p := range game.Players {
		names = append(names, p.DisplayName)
	}
	s.Equal([]string{"Alex S.", "Alex J.", "Sam"}, names)
	s.Equal("Alex Smith", game.Players[0].FullName)
	s.Equal("AS", game.Players[0].Initials)

	r := game.CurrentRound
	s.Require().NotNil(r)
	s.Equal(1, r.RoundNumber)
	s.Equal(engine.Hearts, r.TrumpSuit)
	s.Equal("Hearts", r.TrumpName)
	s.Equal(3, r.CardNumber)
	s.Equal(1, r.Multiplier)
	s.Equal(2, r.DealerNumber)
	s.Equal("Alex J.", r.DealerName)
	s.Equal([]int{2, 3, 1}, r.BiddingOrder)
	s.Equal(PhaseBidding, r.Phase)
	s.Nil(r.TotalTricksPredicted)
	s.Empty(game.Winners)
}

func (s *ServiceSuite) TestCreateGameValidation() {
	a := s.newPlayer(s.alice, "Sam", "Lee")
	b := s.newPlayer(s.alice, "Kim", "Park")
	bob := s.register("bob@example.com", "Bob", "Baker")
	theirs := s.newPlayer(bob, "Not", "Yours")

	ctx := context.Background()
	zero := 0
	tests := []struct {
		name string
		req  CreateGameRequest
		want error
	}{
		{"unknown player", CreateGameRequest{Name: "g", PlayerIDs: []uint{a, 999}, StartingRoundCardNumber: 3}, engine.ErrNotFound},
		{"someone else's player", CreateGameRequest{Name: "g", PlayerIDs: []uint{a, theirs}, StartingRoundCardNumber: 3}, engine.ErrNotFound},
		{"duplicate player", CreateGameRequest{Name: "g", PlayerIDs: []uint{a, a}, StartingRoundCardNumber: 3}, engine.ErrDuplicatePlayer},
		{"blank name", CreateGameRequest{Name: "  ", PlayerIDs: []uint{a, b}, StartingRoundCardNumber: 3}, engine.ErrInvalidRules},
		{"too many cards", CreateGameRequest{Name: "g", PlayerIDs: []uint{a, b}, StartingRoundCardNumber: 27}, engine.ErrInvalidRules},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.games.CreateGame(ctx, s.alice, &tt.req)
			s.ErrorIs(err, tt.want)
		})
	}

	// Two decks make room for more cards; a zero bonus is kept.
	game, err := s.games.CreateGame(ctx, s.alice, &CreateGameRequest{
		Name:                    "Big",
		PlayerIDs:               []uint{a, b},
		StartingRoundCardNumber: 27,
		NumberOfDecks:           2,
		CorrectPredictionPoints: &zero,
	})
	s.Require().NoError(err)
	s.Equal(0, game.CorrectPredictionPoints)
	s.Equal(2, game.NumberOfDecks)
}

func (s *ServiceSuite) TestCreateGameRejectsDeletedPlayer() {
	a := s.newPlayer(s.alice, "Sam", "Lee")
	b := s.newPlayer(s.alice, "Kim", "Park")
	s.Require().NoError(s.players.DeletePlayer(s.alice, b))

	_, err := s.games.CreateGame(context.Background(), s.alice, &CreateGameRequest{Name: "g", PlayerIDs: []uint{a, b}, StartingRoundCardNumber: 2})
	s.ErrorIs(err, engine.ErrPlayerDeleted)
}

func (s *ServiceSuite) TestFirstRound() {
	ctx := context.Background()
	game := s.threePlayerGame(3, false)

	_, err := s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 1})
	var verr *engine.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal(engine.ConstraintBidSum, verr.Constraint)
	s.Equal(3, verr.CardNumber)
	s.Equal(3, verr.Sum)

	_, err = s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 1})
	s.ErrorIs(err, engine.ErrPredictionsMissing)

	res, err := s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 2})
	s.Require().NoError(err)
	s.False(res.RoundStarted)
	s.Equal(PhaseScoring, res.Game.CurrentRound.Phase)
	s.Require().NotNil(res.Game.CurrentRound.TotalTricksPredicted)
	s.Equal(4, *res.Game.CurrentRound.TotalTricksPredicted)

	_, err = s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 2})
	s.Require().ErrorAs(err, &verr)
	s.Equal(engine.ConstraintScoreSum, verr.Constraint)

	res, err = s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 1})
	s.Require().NoError(err)
	s.True(res.RoundStarted)
	s.False(res.Completed)
	s.Equal([]int{6, 6, 1}, scoresOf(res.Game))

	next := res.Game.CurrentRound
	s.Equal(2, next.RoundNumber)
	s.Equal(2, next.CardNumber)
	s.Equal(engine.Clubs, next.TrumpSuit)
	s.Equal(PhaseBidding, next.Phase)
	s.Equal(3, next.DealerNumber)

	var ranks []int
	for _, st := range res.Game.Standings {
		ranks = append(ranks, st.Rank)
	}
	s.Equal([]int{1, 1, 3}, ranks)
}

func (s *ServiceSuite) TestFailedSubmissionWritesNothing() {
	ctx := context.Background()
	game := s.threePlayerGame(3, false)

	_, err := s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1})
	s.ErrorIs(err, engine.ErrIncompleteSubmission)
	_, err = s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 9})
	s.ErrorIs(err, engine.ErrOutOfRange)
	_, err = s.games.SubmitPredictions(ctx, s.alice, game.ID, 4, map[int]int{1: 1, 2: 1, 3: 2})
	s.ErrorIs(err, engine.ErrNotFound)

	var recorded int64
	s.Require().NoError(s.db.Model(&models.GamePlayerGameRound{}).
		Where("tricks_predicted IS NOT NULL").Count(&recorded).Error)
	s.Zero(recorded)
}

func (s *ServiceSuite) TestFailedRoundInsertRollsBackScores() {
	ctx := context.Background()
	game := s.threePlayerGame(3, false)
	_, err := s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 2})
	s.Require().NoError(err)

	err = s.db.Callback().Create().Before("gorm:create").Register("fail_round_insert", func(db *gorm.DB) {
		if db.Statement.Table == "game_rounds" {
			db.AddError(errors.New("disk full"))
		}
	})
	s.Require().NoError(err)

	_, err = s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 1})
	s.Require().Error(err)
	s.False(isClientError(err))

	got, err := s.games.GetGame(ctx, s.alice, game.ID)
	s.Require().NoError(err)
	s.Equal([]int{0, 0, 0}, scoresOf(got))
	s.Require().NotNil(got.CurrentRound)
	s.Equal(1, got.CurrentRound.RoundNumber)
	s.Equal(PhaseScoring, got.CurrentRound.Phase)

	var rounds int64
	s.Require().NoError(s.db.Model(&models.GameRound{}).Where("game_id = ?", game.ID).Count(&rounds).Error)
	s.EqualValues(1, rounds)
	rec, err := loadGame(s.db, s.alice, game.ID)
	s.Require().NoError(err)
	s.EqualValues(1, rec.model.Revision)
}

func (s *ServiceSuite) TestFullGame() {
	ctx := context.Background()
	game := s.threePlayerGame(3, true)

	rounds := 0
	var res *TransitionResult
	for {
		r := game.CurrentRound
		rounds++
		_, err := s.games.SubmitPredictions(ctx, s.alice, game.ID, r.RoundNumber, map[int]int{1: r.CardNumber, 2: 0, 3: 1})
		s.Require().NoError(err)
		res, err = s.games.SubmitScores(ctx, s.alice, game.ID, r.RoundNumber, map[int]int{1: r.CardNumber, 2: 0, 3: 0})
		s.Require().NoError(err)
		game = res.Game
		if res.Completed {
			break
		}
		s.Require().True(res.RoundStarted)
	}

	s.Equal(5, rounds)
	s.Equal(engine.StatusCompleted, game.Status)
	s.Equal(PhaseScored, game.CurrentRound.Phase)
	s.Equal([]int{44, 30, 0}, scoresOf(game))
	s.Require().Len(game.Winners, 1)
	s.Equal("Alex S.", game.Winners[0].DisplayName)

	winners, err := s.games.Winners(ctx, s.alice, game.ID)
	s.Require().NoError(err)
	s.Equal(game.Winners, winners)

	_, err = s.games.SubmitScores(ctx, s.alice, game.ID, 5, map[int]int{1: 3, 2: 0, 3: 0})
	s.ErrorIs(err, engine.ErrGameCompleted)

	list, err := s.games.ListGames(ctx, s.alice)
	s.Require().NoError(err)
	s.Empty(list.Ongoing)
	s.Require().Len(list.Completed, 1)
	s.Equal("Alex S.", list.Completed[0].Winner)

	history, err := s.games.History(ctx, s.alice, game.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 5)
	s.Equal(2, history[4].Multiplier)
	s.Require().NotNil(history[4].Entries[0].Points)
	s.Equal(16, *history[4].Entries[0].Points)
}

func (s *ServiceSuite) TestEditingScoredRound() {
	ctx := context.Background()
	game := s.threePlayerGame(3, false)

	_, err := s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 2})
	s.Require().NoError(err)
	_, err = s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 1})
	s.Require().NoError(err)

	res, err := s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 0, 3: 2})
	s.Require().NoError(err)
	s.False(res.RoundStarted)
	s.Equal([]int{6, 0, 7}, scoresOf(res.Game))
	s.Equal(2, res.Game.CurrentRound.RoundNumber)

	var rounds int64
	s.Require().NoError(s.db.Model(&models.GameRound{}).Where("game_id = ?", game.ID).Count(&rounds).Error)
	s.EqualValues(2, rounds)

	// Resubmitting the same values leaves the totals alone.
	res, err = s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 0, 3: 2})
	s.Require().NoError(err)
	s.Equal([]int{6, 0, 7}, scoresOf(res.Game))
}

func (s *ServiceSuite) TestGameVisibility() {
	ctx := context.Background()
	game := s.threePlayerGame(2, false)
	bob := s.register("bob@example.com", "Bob", "Baker")

	_, err := s.games.GetGame(ctx, bob, game.ID)
	s.ErrorIs(err, engine.ErrNotFound)
	_, err = s.games.Standings(ctx, bob, game.ID)
	s.ErrorIs(err, engine.ErrNotFound)
	_, err = s.games.SubmitPredictions(ctx, bob, game.ID, 1, map[int]int{1: 1, 2: 0, 3: 0})
	s.ErrorIs(err, engine.ErrNotFound)

	list, err := s.games.ListGames(ctx, bob)
	s.Require().NoError(err)
	s.Empty(list.Ongoing)

	admin := Actor{UserID: bob.UserID, IsSuperuser: true}
	got, err := s.games.GetGame(ctx, admin, game.ID)
	s.Require().NoError(err)
	s.Equal(game.ID, got.ID)
}

func (s *ServiceSuite) TestStandingsAreCached() {
	ctx := context.Background()
	game := s.threePlayerGame(3, false)
	s.Contains(s.cache.entries, game.ID)
	s.EqualValues(0, s.cache.revisions[game.ID])

	standings, err := s.games.Standings(ctx, s.alice, game.ID)
	s.Require().NoError(err)
	s.Len(standings, 3)
	s.Equal(1, s.cache.hits)

	_, err = s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 0, 2: 0, 3: 0})
	s.Require().NoError(err)
	s.EqualValues(1, s.cache.revisions[game.ID])

	// Readers never fill the cache.
	delete(s.cache.entries, game.ID)
	delete(s.cache.revisions, game.ID)
	standings, err = s.games.Standings(ctx, s.alice, game.ID)
	s.Require().NoError(err)
	s.Len(standings, 3)
	_, err = s.games.GetGame(ctx, s.alice, game.ID)
	s.Require().NoError(err)
	s.Equal(1, s.cache.hits)
	s.NotContains(s.cache.entries, game.ID)
}

func (s *ServiceSuite) TestStaleReadDoesNotOverwriteStandings() {
	ctx := context.Background()
	game := s.threePlayerGame(3, false)

	stale, err := loadGame(s.db, s.alice, game.ID)
	s.Require().NoError(err)

	_, err = s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 2})
	s.Require().NoError(err)
	_, err = s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1, 3: 1})
	s.Require().NoError(err)
	s.EqualValues(2, s.cache.revisions[game.ID])

	// A reader that loaded before both writes finishes last.
	old := s.games.detail(stale)
	s.Equal([]int{0, 0, 0}, scoresOf(old))
	s.games.committed(ctx, stale)

	standings, err := s.games.Standings(ctx, s.alice, game.ID)
	s.Require().NoError(err)
	s.Equal(1, s.cache.hits)
	var sam engine.Standing
	for _, st := range standings {
		if st.PlayerNumber == 3 {
			sam = st
		}
	}
	s.Equal(1, sam.Score)
	s.Equal(3, sam.Rank)
}

func (s *ServiceSuite) TestListGames() {
	first := s.threePlayerGame(3, false)
	second := s.threePlayerGame(2, false)

	list, err := s.games.ListGames(context.Background(), s.alice)
	s.Require().NoError(err)
	s.Require().Len(list.Ongoing, 2)
	s.Equal(second.ID, list.Ongoing[0].ID)
	s.Equal(first.ID, list.Ongoing[1].ID)
	s.Equal(winnerTBC, list.Ongoing[0].Winner)
	s.Equal([]string{"Alex S.", "Alex J.", "Sam"}, list.Ongoing[1].Players)
}

func (s *ServiceSuite) TestGameCallsHonourCancelledContext() {
	game := s.threePlayerGame(2, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.games.CreateGame(ctx, s.alice, &CreateGameRequest{
		Name:                    "Late",
		PlayerIDs:               []uint{game.Players[0].PlayerID, game.Players[1].PlayerID},
		StartingRoundCardNumber: 2,
	})
	s.ErrorIs(err, context.Canceled)
	_, err = s.games.ListGames(ctx, s.alice)
	s.ErrorIs(err, context.Canceled)
	s.ErrorIs(s.games.DeleteGame(ctx, s.alice, game.ID), context.Canceled)

	_, err = s.games.GetGame(context.Background(), s.alice, game.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestDeleteGame() {
	ctx := context.Background()
	game := s.threePlayerGame(3, false)
	bob := s.register("bob@example.com", "Bob", "Baker")

	err := s.games.DeleteGame(ctx, Actor{UserID: bob.UserID, IsSuperuser: true}, game.ID)
	s.ErrorIs(err, ErrNotCreator)
	err = s.games.DeleteGame(ctx, bob, game.ID)
	s.ErrorIs(err, engine.ErrNotFound)

	s.Require().NoError(s.games.DeleteGame(ctx, s.alice, game.ID))
	_, err = s.games.GetGame(ctx, s.alice, game.ID)
	s.ErrorIs(err, engine.ErrNotFound)

	// Players of a deleted game are free again.
	s.NoError(s.players.DeletePlayer(s.alice, game.Players[0].PlayerID))
}
