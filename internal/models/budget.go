package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget represents a spending plan made up of per-category allocations.
type Budget struct {
	Base
	UserID    string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string       `gorm:"not null" json:"name"`
	Period    BudgetPeriod `gorm:"not null" json:"period"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	IsActive  bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Categories []BudgetCategory `gorm:"foreignKey:BudgetID" json:"categories,omitempty"`
}

// BudgetCategory is a single category allocation within a budget.
// BudgetedAmount is in cents and must be positive; AlertThreshold is the
// spend percentage (0-100) at which the category is flagged.
type BudgetCategory struct {
	Base
	BudgetID       string `gorm:"type:uuid;not null;index" json:"budget_id"`
	CategoryID     string `gorm:"type:uuid;not null" json:"category_id"`
	BudgetedAmount int64  `gorm:"type:bigint;not null" json:"budgeted_amount"`
	AlertThreshold int    `gorm:"not null;default:80" json:"alert_threshold"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
