package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"finsight/internal/logger"
	"finsight/internal/models"
)

// auditService records who changed what. Logging is best-effort: a failed
// audit write is logged and swallowed so it never fails the request that
// triggered it.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}

	if changes != nil {
		payload, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Warnw("failed to serialize audit changes",
				"action", action,
				"resource_type", resourceType,
				"error", err,
			)
		} else {
			entry.Changes = string(payload)
		}
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Warnw("failed to write audit log",
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
			"error", err,
		)
	}
}
