package models

import "time"

// Goal represents a savings goal with a target amount in cents.
type Goal struct {
	Base
	UserID        string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string     `gorm:"not null" json:"name"`
	TargetAmount  int64      `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount int64      `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	IsCompleted   bool       `gorm:"default:false" json:"is_completed"`
}

// Progress returns the completion percentage, capped at 100.
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	pct := float64(g.CurrentAmount) / float64(g.TargetAmount) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
