package models

import (
	"time"

	"whatstrumps/engine"
)

// Player is a person who can be entered into games. Players are never
// removed; deleting one only sets IsDeleted so past games stay intact.
type Player struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	FirstName       string    `json:"first_name" gorm:"not null"`
	LastName        string    `json:"last_name" gorm:"not null"`
	UserID          *uint     `json:"user_id" gorm:"uniqueIndex"`
	CreatedByUserID uint      `json:"created_by_user_id" gorm:"not null;index"`
	IsDeleted       bool      `json:"is_deleted" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Player) FullName() string {
	return engine.Name{First: p.FirstName, Last: p.LastName}.Full()
}

func (p *Player) Initials() string {
	return engine.Initials(p.FirstName, p.LastName)
}
