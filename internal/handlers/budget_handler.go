package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finsight/internal/errors"
	"finsight/internal/models"
	"finsight/internal/pagination"
	"finsight/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget
type CreateBudgetRequest struct {
	Name      string  `json:"name" binding:"required,min=1,max=100"`
	Period    string  `json:"period" binding:"required,budget_period"`
	StartDate string  `json:"start_date" binding:"required"`
	EndDate   *string `json:"end_date" binding:"omitempty"`
}

// UpdateBudgetRequest represents the request payload for editing a budget.
type UpdateBudgetRequest struct {
	Name     string  `json:"name" binding:"omitempty,min=1,max=100"`
	EndDate  *string `json:"end_date" binding:"omitempty"`
	IsActive *bool   `json:"is_active" binding:"omitempty"`
}

// AllocationRequest represents the request payload for a category allocation.
type AllocationRequest struct {
	CategoryID     string `json:"category_id" binding:"required,uuid"`
	BudgetedAmount int64  `json:"budgeted_amount" binding:"required,gt=0"`
	AlertThreshold int    `json:"alert_threshold" binding:"omitempty,gte=0,lte=100"`
}

// UpdateAllocationRequest represents the request payload for editing an allocation.
type UpdateAllocationRequest struct {
	BudgetedAmount *int64 `json:"budgeted_amount" binding:"omitempty,gt=0"`
	AlertThreshold *int   `json:"alert_threshold" binding:"omitempty,gte=0,lte=100"`
}

// CreateBudget creates a new budget for the authenticated user.
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid start date"))
		return
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid end date"))
			return
		}
		endDate = &parsed
	}

	budget, err := h.budgetService.CreateBudget(userID, req.Name, models.BudgetPeriod(req.Period), startDate, endDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "period": req.Period})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// ListBudgets returns the authenticated user's budgets.
func (h *BudgetHandler) ListBudgets(c *gin.Context) {
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

	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		isActive = &active
	}

	budgets, err := h.budgetService.GetUserBudgets(userID, page, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budgets)
}

// GetBudget returns a single budget with its allocations.
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget edits a budget's name, end date, or active flag.
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid end date"))
			return
		}
		endDate = &parsed
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, req.Name, endDate, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget removes a budget and its allocations.
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// AddAllocation attaches a category allocation to a budget.
func (h *BudgetHandler) AddAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	allocation, err := h.budgetService.AddAllocation(userID, budgetID, req.CategoryID, req.BudgetedAmount, req.AlertThreshold)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_BUDGET_ALLOCATION", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"category_id": req.CategoryID, "budgeted_amount": req.BudgetedAmount})

	c.JSON(http.StatusCreated, gin.H{"allocation": allocation})
}

// UpdateAllocation edits an existing category allocation.
func (h *BudgetHandler) UpdateAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocationID, err := parsePathID(c, "allocationId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	allocation, err := h.budgetService.UpdateAllocation(userID, budgetID, allocationID, req.BudgetedAmount, req.AlertThreshold)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET_ALLOCATION", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"allocation": allocation})
}

// RemoveAllocation detaches a category allocation from a budget.
func (h *BudgetHandler) RemoveAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocationID, err := parsePathID(c, "allocationId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.RemoveAllocation(userID, budgetID, allocationID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_BUDGET_ALLOCATION", "budget", budgetID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetBudgetProgress returns spending against allocation for the current period.
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}
