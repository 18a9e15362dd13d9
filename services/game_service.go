package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whatstrumps/engine"
	"whatstrumps/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GameService struct {
	db     *gorm.DB
	cache  StandingsCache
	logger *zap.Logger
}

func NewGameService(db *gorm.DB, cache StandingsCache, logger *zap.Logger) *GameService {
	return &GameService{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

type CreateGameRequest struct {
	Name                    string `json:"name" binding:"required,max=255"`
	PlayerIDs               []uint `json:"player_ids" binding:"required,min=2,dive,required"`
	StartingRoundCardNumber int    `json:"starting_round_card_number" binding:"required,min=1,max=260"`
	NumberOfDecks           int    `json:"number_of_decks" binding:"omitempty,min=1,max=10"`
	CorrectPredictionPoints *int   `json:"correct_prediction_points" binding:"omitempty,min=0"`
	DoubleLastRound         bool   `json:"double_last_round"`
}

type GameSummary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	IsOngoing bool      `json:"is_ongoing"`
	Players   []string  `json:"players"`
	Winner    string    `json:"winner"`
	CreatedAt time.Time `json:"created_at"`
}

type GameList struct {
	Ongoing   []GameSummary `json:"ongoing"`
	Completed []GameSummary `json:"completed"`
}

type PlayerInGame struct {
	ID           uint   `json:"id"`
	PlayerID     uint   `json:"player_id"`
	PlayerNumber int    `json:"player_number"`
	DisplayName  string `json:"display_name"`
	FullName     string `json:"full_name"`
	Initials     string `json:"initials"`
	Score        int    `json:"score"`
	IsDeleted    bool   `json:"is_deleted"`
}

type RoundState struct {
	RoundNumber          int         `json:"round_number"`
	TrumpSuit            engine.Suit `json:"trump_suit"`
	TrumpName            string      `json:"trump_name"`
	CardNumber           int         `json:"card_number"`
	Multiplier           int         `json:"multiplier"`
	DealerNumber         int         `json:"dealer_number"`
	DealerName           string      `json:"dealer_name"`
	BiddingOrder         []int       `json:"bidding_order"`
	TotalTricksPredicted *int        `json:"total_tricks_predicted"`
	Phase                string      `json:"phase"`
}

// Round phases as reported to clients.
const (
	PhaseBidding = "bidding"
	PhaseScoring = "scoring"
	PhaseScored  = "scored"
)

type GameDetail struct {
	ID                      uint              `json:"id"`
	Name                    string            `json:"name"`
	Status                  engine.Status     `json:"status"`
	CorrectPredictionPoints int               `json:"correct_prediction_points"`
	StartingRoundCardNumber int               `json:"starting_round_card_number"`
	NumberOfDecks           int               `json:"number_of_decks"`
	DoubleLastRound         bool              `json:"double_last_round"`
	TotalRounds             int               `json:"total_rounds"`
	Players                 []PlayerInGame    `json:"players"`
	CurrentRound            *RoundState       `json:"current_round,omitempty"`
	Standings               []engine.Standing `json:"standings"`
	Winners                 []engine.Standing `json:"winners"`
	CreatedAt               time.Time         `json:"created_at"`
}

// TransitionResult is returned by the bid and score submissions.
type TransitionResult struct {
	Game         *GameDetail `json:"game"`
	RoundStarted bool        `json:"round_started"`
	Completed    bool        `json:"completed"`
}

const winnerTBC = "TBC"

func (s *GameService) CreateGame(ctx context.Context, actor Actor, req *CreateGameRequest) (*GameDetail, error) {
	db := s.db.WithContext(ctx)
	var players []models.Player
	if err := db.Scopes(ownedBy(actor)).Where("id IN ?", req.PlayerIDs).Find(&players).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	entrants := make([]engine.Entrant, 0, len(req.PlayerIDs))
	for _, id := range req.PlayerIDs {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: player %d", engine.ErrNotFound, id)
		}
		entrants = append(entrants, engine.Entrant{
			PlayerID:  p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Deleted:   p.IsDeleted,
		})
	}

	rules := engine.Rules{
		Name:                    strings.TrimSpace(req.Name),
		StartingCardNumber:      req.StartingRoundCardNumber,
		NumberOfDecks:           req.NumberOfDecks,
		CorrectPredictionPoints: engine.DefaultCorrectPredictionPoints,
		DoubleLastRound:         req.DoubleLastRound,
	}
	if rules.NumberOfDecks == 0 {
		rules.NumberOfDecks = 1
	}
	if req.CorrectPredictionPoints != nil {
		rules.CorrectPredictionPoints = *req.CorrectPredictionPoints
	}

	state, err := engine.NewGame(rules, entrants)
	if err != nil {
		return nil, err
	}

	var rec *gameRecord
	err = db.Transaction(func(tx *gorm.DB) error {
		game, err := insertGame(tx, state, actor.UserID)
		if err != nil {
			return err
		}
		rec, err = loadGame(tx, actor, game.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game created",
		zap.Uint("game_id", rec.model.ID),
		zap.Uint("user_id", actor.UserID),
		zap.Int("players", len(entrants)),
		zap.Int("starting_card_number", rules.StartingCardNumber),
	)
	return s.committed(ctx, rec), nil
}

// ListGames returns the actor's games split into ongoing and completed,
// newest first.
func (s *GameService) ListGames(ctx context.Context, actor Actor) (*GameList, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).Scopes(ownedBy(actor)).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("player_number") }).
		Order("created_at DESC, id DESC").
		Find(&games).Error
	if err != nil {
		return nil, err
	}

	list := &GameList{Ongoing: []GameSummary{}, Completed: []GameSummary{}}
	for _, g := range games {
		summary := GameSummary{
			ID:        g.ID,
			Name:      g.Name,
			IsOngoing: g.IsOngoing,
			Winner:    winnerTBC,
			CreatedAt: g.CreatedAt,
		}
		for _, p := range g.Players {
			summary.Players = append(summary.Players, p.UniqueDisplayName)
		}
		if g.IsOngoing {
			list.Ongoing = append(list.Ongoing, summary)
			continue
		}
		rec := newGameRecord(g)
		var names []string
		for _, w := range engine.Winners(&rec.state) {
			names = append(names, w.DisplayName)
		}
		summary.Winner = strings.Join(names, ", ")
		list.Completed = append(list.Completed, summary)
	}
	return list, nil
}

func (s *GameService) GetGame(ctx context.Context, actor Actor, gameID uint) (*GameDetail, error) {
	rec, err := loadGame(s.db.WithContext(ctx), actor, gameID)
	if err != nil {
		return nil, err
	}
	return s.detail(rec), nil
}

// committed builds the detail of a game just written and caches its
// standings under the revision that write produced. rec must have been
// loaded inside the committed transaction.
func (s *GameService) committed(ctx context.Context, rec *gameRecord) *GameDetail {
	d := s.detail(rec)
	s.cache.Set(ctx, rec.model.ID, rec.model.Revision, d.Standings)
	return d
}

func (s *GameService) detail(rec *gameRecord) *GameDetail {
	g := &rec.state
	d := &GameDetail{
		ID:                      g.ID,
		Name:                    g.Name,
		Status:                  g.Status,
		CorrectPredictionPoints: g.CorrectPredictionPoints,
		StartingRoundCardNumber: g.StartingCardNumber,
		NumberOfDecks:           g.NumberOfDecks,
		DoubleLastRound:         g.DoubleLastRound,
		TotalRounds:             engine.TotalRounds(g.StartingCardNumber),
		Standings:               engine.Standings(g.Players),
		Winners:                 engine.Winners(g),
		CreatedAt:               rec.model.CreatedAt,
	}

	for _, gp := range rec.model.Players {
		d.Players = append(d.Players, PlayerInGame{
			ID:           gp.ID,
			PlayerID:     gp.PlayerID,
			PlayerNumber: gp.PlayerNumber,
			DisplayName:  gp.UniqueDisplayName,
			FullName:     gp.Player.FullName(),
			Initials:     gp.Player.Initials(),
			Score:        gp.Score,
			IsDeleted:    gp.Player.IsDeleted,
		})
	}

	if r := g.CurrentRound(); r != nil {
		state := &RoundState{
			RoundNumber:          r.Number,
			TrumpSuit:            r.Trump,
			TrumpName:            r.Trump.Name(),
			CardNumber:           r.CardNumber,
			Multiplier:           g.Multiplier(r.Number),
			DealerNumber:         engine.DealerNumber(r.Number, len(g.Players)),
			BiddingOrder:         engine.BiddingOrder(r.Number, r.PlayerNumbers()),
			TotalTricksPredicted: r.TotalTricksPredicted,
			Phase:                roundPhase(r),
		}
		if dealer, ok := g.Dealer(r.Number); ok {
			state.DealerName = dealer.DisplayName
		}
		d.CurrentRound = state
	}
	return d
}

func roundPhase(r *engine.Round) string {
	if r.Complete() {
		return PhaseScored
	}
	for _, p := range r.Participations {
		if p.State == engine.NotBid {
			return PhaseBidding
		}
	}
	return PhaseScoring
}

// Standings returns the current standings of a game, from the cache when
// possible. A miss reads the database without filling the cache; only
// writers populate it.
func (s *GameService) Standings(ctx context.Context, actor Actor, gameID uint) ([]engine.Standing, error) {
	if err := s.CheckVisible(ctx, actor, gameID); err != nil {
		return nil, err
	}
	if standings, ok := s.cache.Get(ctx, gameID); ok {
		return standings, nil
	}

	var players []models.GamePlayer
	err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("player_number").Find(&players).Error
	if err != nil {
		return nil, err
	}
	gamePlayers := make([]engine.GamePlayer, len(players))
	for i, p := range players {
		gamePlayers[i] = engine.GamePlayer{
			ID:           p.ID,
			PlayerID:     p.PlayerID,
			PlayerNumber: p.PlayerNumber,
			DisplayName:  p.UniqueDisplayName,
			Score:        p.Score,
		}
	}
	return engine.Standings(gamePlayers), nil
}

// Winners returns the players tied on the top score of a completed game.
func (s *GameService) Winners(ctx context.Context, actor Actor, gameID uint) ([]engine.Standing, error) {
	rec, err := loadGame(s.db.WithContext(ctx), actor, gameID)
	if err != nil {
		return nil, err
	}
	return engine.Winners(&rec.state), nil
}

func (s *GameService) History(ctx context.Context, actor Actor, gameID uint) ([]engine.RoundHistory, error) {
	rec, err := loadGame(s.db.WithContext(ctx), actor, gameID)
	if err != nil {
		return nil, err
	}
	return engine.History(&rec.state), nil
}

// CheckVisible reports engine.ErrNotFound unless the actor may see the game.
func (s *GameService) CheckVisible(ctx context.Context, actor Actor, gameID uint) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Game{}).Scopes(ownedBy(actor)).
		Where("id = ?", gameID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: game %d", engine.ErrNotFound, gameID)
	}
	return nil
}

type transition func(g engine.Game, roundNumber int, values map[int]int) (engine.Game, []engine.Effect, error)

func (s *GameService) SubmitPredictions(ctx context.Context, actor Actor, gameID uint, roundNumber int, bids map[int]int) (*TransitionResult, error) {
	return s.run(ctx, actor, gameID, roundNumber, bids, engine.SubmitPredictions, "predictions submitted")
}

func (s *GameService) SubmitScores(ctx context.Context, actor Actor, gameID uint, roundNumber int, actuals map[int]int) (*TransitionResult, error) {
	return s.run(ctx, actor, gameID, roundNumber, actuals, engine.SubmitScores, "scores submitted")
}

// run loads a game, applies a transition and stores its effects in one
// transaction. Nothing is written when the transition fails.
func (s *GameService) run(ctx context.Context, actor Actor, gameID uint, roundNumber int, values map[int]int, fn transition, what string) (*TransitionResult, error) {
	result := &TransitionResult{}
	var rec *gameRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = loadGame(tx, actor, gameID)
		if err != nil {
			return err
		}

		_, effects, err := fn(rec.state, roundNumber, values)
		if err != nil {
			return err
		}
		for _, e := range effects {
			switch e.(type) {
			case engine.CreateRound:
				result.RoundStarted = true
			case engine.CompleteGame:
				result.Completed = true
			}
		}
		if err := rec.apply(tx, effects); err != nil {
			return fmt.Errorf("store round %d of game %d: %w", roundNumber, gameID, err)
		}

		rec, err = loadGame(tx, actor, gameID)
		return err
	})
	if err != nil {
		if !isClientError(err) {
			s.logger.Error(what+" failed", zap.Uint("game_id", gameID), zap.Int("round", roundNumber), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info(what,
		zap.Uint("game_id", gameID),
		zap.Int("round", roundNumber),
		zap.Bool("round_started", result.RoundStarted),
		zap.Bool("completed", result.Completed),
	)
	result.Game = s.committed(ctx, rec)
	return result, nil
}

// DeleteGame removes a game. Only the user who created it may do so.
func (s *GameService) DeleteGame(ctx context.Context, actor Actor, gameID uint) error {
	db := s.db.WithContext(ctx)
	var game models.Game
	err := db.Scopes(ownedBy(actor)).First(&game, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: game %d", engine.ErrNotFound, gameID)
	}
	if err != nil {
		return err
	}
	if game.CreatedByUserID != actor.UserID {
		return ErrNotCreator
	}

	if err := db.Delete(&game).Error; err != nil {
		return err
	}
	s.cache.Invalidate(ctx, gameID)
	s.logger.Info("game deleted", zap.Uint("game_id", gameID), zap.Uint("user_id", actor.UserID))
	return nil
}

func isClientError(err error) bool {
	return errors.Is(err, engine.ErrValidation) || errors.Is(err, engine.ErrNotFound) || errors.Is(err, engine.ErrState)
}
