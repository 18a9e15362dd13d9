package models

import "time"

// GamePlayerGameRound is one player's bid and tricks won in one round.
// TricksPredicted stays null until the round's bids are in and TricksWon
// until its tricks are recorded.
type GamePlayerGameRound struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	GameRoundID     uint      `json:"game_round_id" gorm:"not null;uniqueIndex:idx_round_game_player"`
	GamePlayerID    uint      `json:"game_player_id" gorm:"not null;uniqueIndex:idx_round_game_player"`
	TricksPredicted *int      `json:"tricks_predicted"`
	TricksWon       *int      `json:"tricks_won"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
