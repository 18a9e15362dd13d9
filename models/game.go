package models

import (
	"time"

	"gorm.io/gorm"
)

type Game struct {
	ID                      uint           `json:"id" gorm:"primaryKey"`
	Name                    string         `json:"name" gorm:"not null"`
	IsOngoing               bool           `json:"is_ongoing" gorm:"not null;default:true"`
	CorrectPredictionPoints int            `json:"correct_prediction_points" gorm:"not null"`
	StartingRoundCardNumber int            `json:"starting_round_card_number" gorm:"not null"`
	IsDescending            bool           `json:"is_descending" gorm:"not null;default:true"`
	NumberOfDecks           int            `json:"number_of_decks" gorm:"not null;default:1"`
	DoubleLastRound         bool           `json:"double_last_round" gorm:"not null;default:false"`
	CreatedByUserID         uint           `json:"created_by_user_id" gorm:"not null;index"`
	Revision                int64          `json:"revision" gorm:"not null;default:0"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Players []GamePlayer `json:"players,omitempty" gorm:"foreignKey:GameID"`
	Rounds  []GameRound  `json:"rounds,omitempty" gorm:"foreignKey:GameID"`
}
