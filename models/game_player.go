package models

import "time"

type GamePlayer struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	GameID            uint      `json:"game_id" gorm:"not null;uniqueIndex:idx_game_player_number"`
	PlayerID          uint      `json:"player_id" gorm:"not null;index"`
	PlayerNumber      int       `json:"player_number" gorm:"not null;uniqueIndex:idx_game_player_number"`
	Score             int       `json:"score" gorm:"not null;default:0"`
	UniqueDisplayName string    `json:"unique_display_name" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relationships
	Player Player `json:"player,omitempty"`
}
