package models

import "time"

// Subscription represents a recurring charge tracked for a user.
// MonthlyCost is in cents.
type Subscription struct {
	Base
	UserID          string     `gorm:"type:uuid;not null;index" json:"user_id"`
	ServiceName     string     `gorm:"not null" json:"service_name"`
	MonthlyCost     int64      `gorm:"type:bigint;not null" json:"monthly_cost"`
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
}
