package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finsight/internal/errors"
	"finsight/internal/models"
	"finsight/internal/pagination"
)

// subscriptionService tracks recurring charges.
type subscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new SubscriptionServicer.
func NewSubscriptionService(db *gorm.DB) SubscriptionServicer {
	return &subscriptionService{db: db}
}

// CreateSubscription records a recurring charge for the user.
func (s *subscriptionService) CreateSubscription(userID, serviceName string, monthlyCost int64, nextBillingDate *time.Time) (*models.Subscription, error) {
	if serviceName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "service name is required")
	}
	if monthlyCost <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly cost must be greater than zero")
	}

	subscription := &models.Subscription{
		UserID:          userID,
		ServiceName:     serviceName,
		MonthlyCost:     monthlyCost,
		IsActive:        true,
		NextBillingDate: nextBillingDate,
	}

	if err := s.db.Create(subscription).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return subscription, nil
}

// GetUserSubscriptions returns a paginated list of the user's subscriptions.
func (s *subscriptionService) GetUserSubscriptions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Subscription], error) {
	page.Defaults()

	base := s.db.Model(&models.Subscription{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var subscriptions []models.Subscription
	if err := base.Scopes(pagination.Paginate(page)).Order("monthly_cost DESC").Find(&subscriptions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(subscriptions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateSubscription updates a subscription's fields.
func (s *subscriptionService) UpdateSubscription(userID, subscriptionID, serviceName string, monthlyCost *int64, isActive *bool) (*models.Subscription, error) {
	subscription, err := s.getByID(userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if serviceName != "" {
		updates["service_name"] = serviceName
	}
	if monthlyCost != nil {
		if *monthlyCost <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly cost must be greater than zero")
		}
		updates["monthly_cost"] = *monthlyCost
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(subscription).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return subscription, nil
}

// DeleteSubscription soft-deletes a subscription.
func (s *subscriptionService) DeleteSubscription(userID, subscriptionID string) error {
	subscription, err := s.getByID(userID, subscriptionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(subscription).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ActiveSubscriptions returns all active subscriptions for insight rules,
// most expensive first.
func (s *subscriptionService) ActiveSubscriptions(userID string) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("monthly_cost DESC").
		Find(&subscriptions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return subscriptions, nil
}

func (s *subscriptionService) getByID(userID, subscriptionID string) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := s.db.Where("id = ? AND user_id = ?", subscriptionID, userID).First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &subscription, nil
}
