package models

import (
	"time"

	"finsight/internal/uuid"

	"gorm.io/gorm"
)

// InsightType classifies a generated insight.
type InsightType string

const (
	InsightTypeWarning        InsightType = "warning"
	InsightTypeOpportunity    InsightType = "opportunity"
	InsightTypeTip            InsightType = "tip"
	InsightTypeAlert          InsightType = "alert"
	InsightTypeRecommendation InsightType = "recommendation"
)

// InsightPriority orders insights for display.
type InsightPriority string

const (
	InsightPriorityLow    InsightPriority = "low"
	InsightPriorityMedium InsightPriority = "medium"
	InsightPriorityHigh   InsightPriority = "high"
)

// Weight returns the numeric rank of a priority (high=3, medium=2, low=1).
func (p InsightPriority) Weight() int {
	switch p {
	case InsightPriorityHigh:
		return 3
	case InsightPriorityMedium:
		return 2
	case InsightPriorityLow:
		return 1
	}
	return 0
}

// Insight is a cached, derived row — regenerated when stale, so no Base
// embed and no soft deletes. Dismissal flips a flag, never deletes.
type Insight struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        InsightType     `gorm:"not null" json:"type"`
	Priority    InsightPriority `gorm:"not null" json:"priority"`
	Title       string          `gorm:"not null" json:"title"`
	Message     string          `gorm:"not null" json:"message"`
	ActionLabel string          `json:"action_label,omitempty"`
	ActionURL   string          `json:"action_url,omitempty"`
	Metadata    string          `json:"metadata,omitempty"`
	Rank        int             `gorm:"not null" json:"rank"`
	IsDismissed bool            `gorm:"default:false" json:"is_dismissed"`
	GeneratedAt time.Time       `gorm:"not null;index" json:"generated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (i *Insight) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New()
	}
	return nil
}
