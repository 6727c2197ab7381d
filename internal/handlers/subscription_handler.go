package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finsight/internal/errors"
	"finsight/internal/pagination"
	"finsight/internal/services"
)

// SubscriptionHandler handles recurring-charge requests.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, auditService: auditService}
}

// CreateSubscriptionRequest represents the request payload for creating a subscription
type CreateSubscriptionRequest struct {
	ServiceName     string  `json:"service_name" binding:"required,min=1,max=100"`
	MonthlyCost     int64   `json:"monthly_cost" binding:"required,gt=0"`
	NextBillingDate *string `json:"next_billing_date" binding:"omitempty"`
}

// UpdateSubscriptionRequest represents the request payload for editing a subscription.
type UpdateSubscriptionRequest struct {
	ServiceName string `json:"service_name" binding:"omitempty,min=1,max=100"`
	MonthlyCost *int64 `json:"monthly_cost" binding:"omitempty,gt=0"`
	IsActive    *bool  `json:"is_active" binding:"omitempty"`
}

// CreateSubscription records a new tracked recurring charge.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var nextBillingDate *time.Time
	if req.NextBillingDate != nil {
		parsed, err := parseDate(*req.NextBillingDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid billing date"))
			return
		}
		nextBillingDate = &parsed
	}

	subscription, err := h.subscriptionService.CreateSubscription(userID, req.ServiceName, req.MonthlyCost, nextBillingDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SUBSCRIPTION", "subscription", subscription.ID, c.ClientIP(),
		map[string]interface{}{"service_name": req.ServiceName, "monthly_cost": req.MonthlyCost})

	c.JSON(http.StatusCreated, gin.H{"subscription": subscription})
}

// ListSubscriptions returns the authenticated user's subscriptions.
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	subscriptions, err := h.subscriptionService.GetUserSubscriptions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscriptions)
}

// UpdateSubscription edits a subscription's name, cost, or active flag.
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	subscription, err := h.subscriptionService.UpdateSubscription(userID, subscriptionID, req.ServiceName, req.MonthlyCost, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SUBSCRIPTION", "subscription", subscriptionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"subscription": subscription})
}

// DeleteSubscription removes a tracked subscription.
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	subscriptionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.subscriptionService.DeleteSubscription(userID, subscriptionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_SUBSCRIPTION", "subscription", subscriptionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
