package services

import (
	"errors"
	"fmt"

	"whatstrumps/engine"
	"whatstrumps/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor is the authenticated user a service call is made for.
type Actor struct {
	UserID      uint
	IsSuperuser bool
}

// ownedBy limits a query to rows created by the actor, unless the actor is
// a superuser.
func ownedBy(actor Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if actor.IsSuperuser {
			return db
		}
		return db.Where("created_by_user_id = ?", actor.UserID)
	}
}

// gameRecord is a stored game together with its engine state and the row
// IDs needed to write effects back.
type gameRecord struct {
	model            models.Game
	state            engine.Game
	gamePlayerIDs    map[int]uint
	roundIDs         map[int]uint
	participationIDs map[participationKey]uint
}

type participationKey struct {
	round  int
	player int
}

func loadGame(db *gorm.DB, actor Actor, gameID uint) (*gameRecord, error) {
	var game models.Game
	err := db.Scopes(ownedBy(actor)).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("player_number") }).
		Preload("Players.Player").
		Preload("Rounds", func(db *gorm.DB) *gorm.DB { return db.Order("round_number") }).
		Preload("Rounds.Participations").
		First(&game, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: game %d", engine.ErrNotFound, gameID)
	}
	if err != nil {
		return nil, err
	}
	return newGameRecord(game), nil
}

func newGameRecord(game models.Game) *gameRecord {
	rec := &gameRecord{
		model:            game,
		gamePlayerIDs:    make(map[int]uint, len(game.Players)),
		roundIDs:         make(map[int]uint, len(game.Rounds)),
		participationIDs: make(map[participationKey]uint),
	}

	status := engine.StatusOngoing
	if !game.IsOngoing {
		status = engine.StatusCompleted
	}
	rec.state = engine.Game{
		ID: game.ID,
		Rules: engine.Rules{
			Name:                    game.Name,
			StartingCardNumber:      game.StartingRoundCardNumber,
			NumberOfDecks:           game.NumberOfDecks,
			CorrectPredictionPoints: game.CorrectPredictionPoints,
			DoubleLastRound:         game.DoubleLastRound,
		},
		Descending: game.IsDescending,
		Status:     status,
	}

	numbers := make(map[uint]int, len(game.Players))
	for _, gp := range game.Players {
		numbers[gp.ID] = gp.PlayerNumber
		rec.gamePlayerIDs[gp.PlayerNumber] = gp.ID
		rec.state.Players = append(rec.state.Players, engine.GamePlayer{
			ID:           gp.ID,
			PlayerID:     gp.PlayerID,
			PlayerNumber: gp.PlayerNumber,
			DisplayName:  gp.UniqueDisplayName,
			Score:        gp.Score,
		})
	}

	for _, r := range game.Rounds {
		rec.roundIDs[r.RoundNumber] = r.ID
		round := engine.Round{
			ID:                   r.ID,
			Number:               r.RoundNumber,
			Trump:                engine.Suit(r.TrumpSuit),
			CardNumber:           r.CardNumber,
			TotalTricksPredicted: r.TotalTricksPredicted,
		}
		for _, p := range r.Participations {
			number := numbers[p.GamePlayerID]
			rec.participationIDs[participationKey{r.RoundNumber, number}] = p.ID
			round.Participations = append(round.Participations, participationFromRow(p, number))
		}
		rec.state.Rounds = append(rec.state.Rounds, round)
	}
	return rec
}

func participationFromRow(row models.GamePlayerGameRound, playerNumber int) engine.Participation {
	p := engine.Participation{ID: row.ID, PlayerNumber: playerNumber, State: engine.NotBid}
	if row.TricksPredicted != nil {
		p.State = engine.Bid
		p.Predicted = *row.TricksPredicted
	}
	if row.TricksPredicted != nil && row.TricksWon != nil {
		p.State = engine.Scored
		p.Won = *row.TricksWon
	}
	return p
}

// apply writes the effects of a transition and bumps the game's revision.
// It must run inside the same transaction the game was loaded in.
func (rec *gameRecord) apply(tx *gorm.DB, effects []engine.Effect) error {
	if len(effects) == 0 {
		return nil
	}
	err := tx.Model(&models.Game{}).Where("id = ?", rec.model.ID).
		Update("revision", gorm.Expr("revision + 1")).Error
	if err != nil {
		return err
	}
	for _, effect := range effects {
		var err error
		switch e := effect.(type) {
		case engine.RecordPrediction:
			err = tx.Model(&models.GamePlayerGameRound{}).
				Where("id = ?", rec.participationIDs[participationKey{e.RoundNumber, e.PlayerNumber}]).
				Update("tricks_predicted", e.Predicted).Error
		case engine.RecordTotalPredicted:
			err = tx.Model(&models.GameRound{}).
				Where("id = ?", rec.roundIDs[e.RoundNumber]).
				Update("total_tricks_predicted", e.Total).Error
		case engine.RecordTricksWon:
			err = tx.Model(&models.GamePlayerGameRound{}).
				Where("id = ?", rec.participationIDs[participationKey{e.RoundNumber, e.PlayerNumber}]).
				Update("tricks_won", e.Won).Error
		case engine.AdjustScore:
			err = tx.Model(&models.GamePlayer{}).
				Where("id = ?", rec.gamePlayerIDs[e.PlayerNumber]).
				Update("score", gorm.Expr("score + ?", e.Delta)).Error
		case engine.CreateRound:
			err = rec.createRound(tx, e)
		case engine.CompleteGame:
			err = tx.Model(&models.Game{}).Where("id = ?", rec.model.ID).
				Update("is_ongoing", false).Error
		default:
			err = fmt.Errorf("unknown effect %T", effect)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (rec *gameRecord) createRound(tx *gorm.DB, e engine.CreateRound) error {
	if err := insertRound(tx, rec.model.ID, e.Round, rec.gamePlayerIDs); err != nil {
		return err
	}
	return tx.Model(&models.Game{}).Where("id = ?", rec.model.ID).
		Update("is_descending", e.Descending).Error
}

func insertRound(tx *gorm.DB, gameID uint, r engine.Round, gamePlayerIDs map[int]uint) error {
	round := models.GameRound{
		GameID:      gameID,
		RoundNumber: r.Number,
		TrumpSuit:   string(r.Trump),
		CardNumber:  r.CardNumber,
	}
	if err := tx.Omit(clause.Associations).Create(&round).Error; err != nil {
		return err
	}

	participations := make([]models.GamePlayerGameRound, 0, len(r.Participations))
	for _, p := range r.Participations {
		participations = append(participations, models.GamePlayerGameRound{
			GameRoundID:  round.ID,
			GamePlayerID: gamePlayerIDs[p.PlayerNumber],
		})
	}
	return tx.Create(&participations).Error
}

// insertGame stores a game just set up by the engine, with its players and
// opening round.
func insertGame(tx *gorm.DB, g engine.Game, createdBy uint) (*models.Game, error) {
	game := models.Game{
		Name:                    g.Name,
		IsOngoing:               true,
		CorrectPredictionPoints: g.CorrectPredictionPoints,
		StartingRoundCardNumber: g.StartingCardNumber,
		IsDescending:            g.Descending,
		NumberOfDecks:           g.NumberOfDecks,
		DoubleLastRound:         g.DoubleLastRound,
		CreatedByUserID:         createdBy,
	}
	if err := tx.Omit(clause.Associations).Create(&game).Error; err != nil {
		return nil, err
	}

	for _, p := range g.Players {
		game.Players = append(game.Players, models.GamePlayer{
			GameID:            game.ID,
			PlayerID:          p.PlayerID,
			PlayerNumber:      p.PlayerNumber,
			UniqueDisplayName: p.DisplayName,
		})
	}
	if err := tx.Omit(clause.Associations).Create(&game.Players).Error; err != nil {
		return nil, err
	}

	gamePlayerIDs := make(map[int]uint, len(game.Players))
	for _, p := range game.Players {
		gamePlayerIDs[p.PlayerNumber] = p.ID
	}
	for _, r := range g.Rounds {
		if err := insertRound(tx, game.ID, r, gamePlayerIDs); err != nil {
			return nil, err
		}
	}
	return &game, nil
}
