package models

import "time"

type GameRound struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	GameID               uint      `json:"game_id" gorm:"not null;uniqueIndex:idx_game_round_number"`
	RoundNumber          int       `json:"round_number" gorm:"not null;uniqueIndex:idx_game_round_number"`
	TrumpSuit            string    `json:"trump_suit" gorm:"size:1;not null;default:'H'"`
	CardNumber           int       `json:"card_number" gorm:"not null"`
	TotalTricksPredicted *int      `json:"total_tricks_predicted"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Relationships
	Participations []GamePlayerGameRound `json:"participations,omitempty" gorm:"foreignKey:GameRoundID"`
}
