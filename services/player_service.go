package services

import (
	"errors"
	"fmt"
	"strings"

	"whatstrumps/engine"
	"whatstrumps/models"

	"gorm.io/gorm"
)

type PlayerService struct {
	db    *gorm.DB
	stats *PlayerStats
}

func NewPlayerService(db *gorm.DB, stats *PlayerStats) *PlayerService {
	return &PlayerService{db: db, stats: stats}
}

type CreatePlayerRequest struct {
	FirstName string `json:"first_name" binding:"required,max=255"`
	LastName  string `json:"last_name" binding:"required,max=255"`
}

type PlayerSummary struct {
	models.Player
	FullName string `json:"full_name"`
	Initials string `json:"initials"`
	PlayerGameCounts
	IsDeletable        bool   `json:"is_deletable"`
	NotDeletableReason string `json:"not_deletable_reason,omitempty"`
}

// Reasons a player cannot be deleted.
const (
	reasonNotCreator = "only the user who created a player can delete them"
	reasonOwnPlayer  = "you cannot delete your own player"
	reasonOngoing    = "the player is in an ongoing game"
)

func deleteBlocker(actor Actor, player *models.Player, ongoingGames int) string {
	switch {
	case player.CreatedByUserID != actor.UserID:
		return reasonNotCreator
	case player.UserID != nil && *player.UserID == actor.UserID:
		return reasonOwnPlayer
	case ongoingGames > 0:
		return reasonOngoing
	}
	return ""
}

func (s *PlayerService) CreatePlayer(actor Actor, req *CreatePlayerRequest) (*models.Player, error) {
	player := models.Player{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		CreatedByUserID: actor.UserID,
	}
	if player.FirstName == "" || player.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", engine.ErrValidation)
	}

	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

// ListPlayers returns the players visible to actor that have not been
// deleted, with their game counts.
func (s *PlayerService) ListPlayers(actor Actor) ([]PlayerSummary, error) {
	var players []models.Player
	err := s.db.Scopes(ownedBy(actor)).
		Where("is_deleted = ?", false).
		Order("first_name, last_name").
		Find(&players).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	counts, err := s.stats.GameCounts(ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]PlayerSummary, len(players))
	for i := range players {
		p := &players[i]
		c := counts[p.ID]
		c.PlayerID = p.ID
		reason := deleteBlocker(actor, p, c.OngoingGames)
		summaries[i] = PlayerSummary{
			Player:             *p,
			FullName:           p.FullName(),
			Initials:           p.Initials(),
			PlayerGameCounts:   c,
			IsDeletable:        reason == "",
			NotDeletableReason: reason,
		}
	}
	return summaries, nil
}

func (s *PlayerService) GetPlayer(actor Actor, playerID uint) (*models.Player, error) {
	var player models.Player
	err := s.db.Scopes(ownedBy(actor)).First(&player, playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: player %d", engine.ErrNotFound, playerID)
	}
	return &player, err
}

// DeletePlayer marks a player as deleted. Their past games are untouched.
func (s *PlayerService) DeletePlayer(actor Actor, playerID uint) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var player models.Player
	err := tx.Scopes(ownedBy(actor)).Where("is_deleted = ?", false).First(&player, playerID).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: player %d", engine.ErrNotFound, playerID)
		}
		return err
	}

	var ongoing int64
	err = tx.Model(&models.GamePlayer{}).
		Joins("JOIN games ON games.id = game_players.game_id AND games.deleted_at IS NULL").
		Where("game_players.player_id = ? AND games.is_ongoing = ?", player.ID, true).
		Count(&ongoing).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	if reason := deleteBlocker(actor, &player, int(ongoing)); reason != "" {
		tx.Rollback()
		return fmt.Errorf("%w: %s", ErrPlayerNotDeletable, reason)
	}

	if err := tx.Model(&player).Update("is_deleted", true).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
