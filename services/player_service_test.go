package services

import (
	"context"

	"whatstrumps/engine"
	"whatstrumps/models"
)

func (s *ServiceSuite) TestCreatePlayerRequiresNames() {
	_, err := s.players.CreatePlayer(s.alice, &CreatePlayerRequest{FirstName: "  ", LastName: "Lee"})
	s.ErrorIs(err, engine.ErrValidation)
}

func (s *ServiceSuite) TestListPlayersIsScopedToCreator() {
	s.newPlayer(s.alice, "Sam", "Lee")
	bob := s.register("bob@example.com", "Bob", "Baker")

	mine, err := s.players.ListPlayers(s.alice)
	s.Require().NoError(err)
	var names []string
	for _, p := range mine {
		names = append(names, p.FullName)
	}
	s.Equal([]string{"Alice Archer", "Sam Lee"}, names)

	theirs, err := s.players.ListPlayers(bob)
	s.Require().NoError(err)
	s.Require().Len(theirs, 1)
	s.Equal("Bob Baker", theirs[0].FullName)
	s.Equal("BB", theirs[0].Initials)

	all, err := s.players.ListPlayers(Actor{UserID: bob.UserID, IsSuperuser: true})
	s.Require().NoError(err)
	s.Len(all, 3)

	_, err = s.players.GetPlayer(bob, mine[1].ID)
	s.ErrorIs(err, engine.ErrNotFound)
}

func (s *ServiceSuite) TestListPlayersReportsDeletability() {
	s.newPlayer(s.alice, "Sam", "Lee")

	list, err := s.players.ListPlayers(s.alice)
	s.Require().NoError(err)
	s.Require().Len(list, 2)

	own, sam := list[0], list[1]
	s.False(own.IsDeletable)
	s.Equal(reasonOwnPlayer, own.NotDeletableReason)
	s.True(sam.IsDeletable)
	s.Empty(sam.NotDeletableReason)
}

func (s *ServiceSuite) TestDeletePlayer() {
	game := s.threePlayerGame(3, false)
	inGame := game.Players[0].PlayerID
	free := s.newPlayer(s.alice, "Free", "Agent")

	err := s.players.DeletePlayer(s.alice, inGame)
	s.ErrorIs(err, ErrPlayerNotDeletable)
	s.ErrorIs(err, engine.ErrState)

	own, err := s.auth.GetProfile(s.alice.UserID)
	s.Require().NoError(err)
	err = s.players.DeletePlayer(s.alice, own.Player.ID)
	s.ErrorIs(err, ErrPlayerNotDeletable)

	s.Require().NoError(s.players.DeletePlayer(s.alice, free))
	err = s.players.DeletePlayer(s.alice, free)
	s.ErrorIs(err, engine.ErrNotFound)

	list, err := s.players.ListPlayers(s.alice)
	s.Require().NoError(err)
	for _, p := range list {
		s.NotEqual(free, p.ID)
	}

	// Deleted players stay readable.
	p, err := s.players.GetPlayer(s.alice, free)
	s.Require().NoError(err)
	s.True(p.IsDeleted)
}

func (s *ServiceSuite) TestDeletePlayerCreatedBySomeoneElse() {
	sam := s.newPlayer(s.alice, "Sam", "Lee")
	admin := s.register("admin@example.com", "Ada", "Admin")
	admin.IsSuperuser = true

	err := s.players.DeletePlayer(admin, sam)
	s.ErrorIs(err, ErrPlayerNotDeletable)

	err = s.players.DeletePlayer(Actor{UserID: admin.UserID}, sam)
	s.ErrorIs(err, engine.ErrNotFound)
}

func (s *ServiceSuite) TestPlayerCanBeDeletedOnceGamesAreOver() {
	a := s.newPlayer(s.alice, "Sam", "Lee")
	b := s.newPlayer(s.alice, "Kim", "Park")
	ctx := context.Background()
	game, err := s.games.CreateGame(ctx, s.alice, &CreateGameRequest{
		Name:                    "Quick",
		PlayerIDs:               []uint{a, b},
		StartingRoundCardNumber: 1,
	})
	s.Require().NoError(err)

	_, err = s.games.SubmitPredictions(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 1})
	s.Require().NoError(err)
	res, err := s.games.SubmitScores(ctx, s.alice, game.ID, 1, map[int]int{1: 1, 2: 0})
	s.Require().NoError(err)
	s.Require().True(res.Completed)

	list, err := s.players.ListPlayers(s.alice)
	s.Require().NoError(err)
	counts := map[uint]PlayerGameCounts{}
	for _, p := range list {
		counts[p.ID] = p.PlayerGameCounts
	}
	s.Equal(PlayerGameCounts{PlayerID: a, CompletedGames: 1, GamesWon: 1}, counts[a])
	s.Equal(PlayerGameCounts{PlayerID: b, CompletedGames: 1}, counts[b])

	s.Require().NoError(s.players.DeletePlayer(s.alice, b))

	var gp models.GamePlayer
	s.Require().NoError(s.db.Where("player_id = ?", b).First(&gp).Error)
	s.Equal(0, gp.Score)
}
