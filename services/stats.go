package services

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// PlayerGameCounts summarises the games a player has been entered into.
type PlayerGameCounts struct {
	PlayerID       uint `db:"player_id" json:"player_id"`
	OngoingGames   int  `db:"ongoing_games" json:"ongoing_games"`
	CompletedGames int  `db:"completed_games" json:"completed_games"`
	GamesWon       int  `db:"games_won" json:"games_won"`
}

// PlayerStats runs aggregate queries over the game tables with sqlx,
// sharing the connection pool of the gorm handle it was built from.
type PlayerStats struct {
	db *sqlx.DB
}

func NewPlayerStats(db *gorm.DB) (*PlayerStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	driver := db.Dialector.Name()
	if driver == "sqlite" {
		driver = "sqlite3"
	}
	return &PlayerStats{db: sqlx.NewDb(sqlDB, driver)}, nil
}

const playerGameCountsQuery = `
SELECT gp.player_id AS player_id,
       SUM(CASE WHEN g.is_ongoing THEN 1 ELSE 0 END) AS ongoing_games,
       SUM(CASE WHEN g.is_ongoing THEN 0 ELSE 1 END) AS completed_games,
       SUM(CASE WHEN NOT g.is_ongoing AND gp.score = (
               SELECT MAX(o.score) FROM game_players o WHERE o.game_id = g.id
           ) THEN 1 ELSE 0 END) AS games_won
FROM game_players gp
JOIN games g ON g.id = gp.game_id AND g.deleted_at IS NULL
WHERE gp.player_id IN (?)
GROUP BY gp.player_id`

// GameCounts returns counts keyed by player ID. Players in no games are
// absent from the map.
func (s *PlayerStats) GameCounts(playerIDs []uint) (map[uint]PlayerGameCounts, error) {
	counts := make(map[uint]PlayerGameCounts, len(playerIDs))
	if len(playerIDs) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(playerGameCountsQuery, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("build game counts query: %w", err)
	}

	var rows []PlayerGameCounts
	if err := s.db.Select(&rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query game counts: %w", err)
	}
	for _, row := range rows {
		counts[row.PlayerID] = row
	}
	return counts, nil
}
