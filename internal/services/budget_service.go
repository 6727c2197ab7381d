package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finsight/internal/errors"
	"finsight/internal/models"
	"finsight/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a new, empty budget. Category allocations are added
// separately via AddAllocation.
func (s *budgetService) CreateBudget(
	userID, name string,
	period models.BudgetPeriod,
	startDate time.Time,
	endDate *time.Time,
) (*models.Budget, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}

	budget := &models.Budget{
		UserID:    userID,
		Name:      name,
		Period:    period,
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  true,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user.
func (s *budgetService) GetUserBudgets(
	userID string,
	page pagination.PageRequest,
	isActive *bool,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Categories.Category").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget with its allocations if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Categories.Category").
		Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields.
func (s *budgetService) UpdateBudget(userID, budgetID, name string, endDate *time.Time, isActive *bool) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if endDate != nil {
		updates["end_date"] = endDate
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget and its allocations.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Where("budget_id = ?", budgetID).Delete(&models.BudgetCategory{}).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if txErr := tx.Delete(budget).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
}

// AddAllocation adds a category allocation to a budget.
func (s *budgetService) AddAllocation(userID, budgetID, categoryID string, budgetedAmount int64, alertThreshold int) (*models.BudgetCategory, error) {
	if budgetedAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgeted amount must be greater than zero")
	}
	if alertThreshold < 0 || alertThreshold > 100 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
	}

	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.BudgetCategory{}).
		Where("budget_id = ? AND category_id = ?", budgetID, categoryID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateAllocation
	}

	allocation := &models.BudgetCategory{
		BudgetID:       budgetID,
		CategoryID:     categoryID,
		BudgetedAmount: budgetedAmount,
		AlertThreshold: alertThreshold,
	}

	if err := s.db.Create(allocation).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	allocation.Category = category
	return allocation, nil
}

// getAllocation fetches an allocation, verifying budget ownership.
func (s *budgetService) getAllocation(userID, budgetID, allocationID string) (*models.BudgetCategory, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	var allocation models.BudgetCategory
	if err := s.db.Preload("Category").
		Where("id = ? AND budget_id = ?", allocationID, budgetID).First(&allocation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &allocation, nil
}

// UpdateAllocation updates a budget category allocation.
func (s *budgetService) UpdateAllocation(userID, budgetID, allocationID string, budgetedAmount *int64, alertThreshold *int) (*models.BudgetCategory, error) {
	allocation, err := s.getAllocation(userID, budgetID, allocationID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if budgetedAmount != nil {
		if *budgetedAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgeted amount must be greater than zero")
		}
		updates["budgeted_amount"] = *budgetedAmount
	}
	if alertThreshold != nil {
		if *alertThreshold < 0 || *alertThreshold > 100 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
		}
		updates["alert_threshold"] = *alertThreshold
	}

	if len(updates) > 0 {
		if err := s.db.Model(allocation).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return allocation, nil
}

// RemoveAllocation soft-deletes a budget category allocation.
func (s *budgetService) RemoveAllocation(userID, budgetID, allocationID string) error {
	allocation, err := s.getAllocation(userID, budgetID, allocationID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(allocation).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress calculates per-category spending vs allocation for the
// budget's current period, plus the overall adherence score.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	window := periodWindow(string(budget.Period), time.Now())

	spent, err := spentByCategory(s.db, userID, window)
	if err != nil {
		return nil, err
	}

	progress := &BudgetProgress{
		BudgetID:    budget.ID,
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
		Categories:  make([]CategoryBudgetProgress, 0, len(budget.Categories)),
	}

	for i := range budget.Categories {
		alloc := &budget.Categories[i]
		categorySpent := spent[alloc.CategoryID]

		var percentage float64
		if alloc.BudgetedAmount > 0 {
			percentage = float64(categorySpent) / float64(alloc.BudgetedAmount) * 100
		}

		progress.Categories = append(progress.Categories, CategoryBudgetProgress{
			CategoryID:    alloc.CategoryID,
			CategoryName:  alloc.Category.Name,
			Budgeted:      alloc.BudgetedAmount,
			Spent:         categorySpent,
			Remaining:     alloc.BudgetedAmount - categorySpent,
			Percentage:    percentage,
			OverThreshold: percentage >= float64(alloc.AlertThreshold),
		})
	}

	progress.Adherence = BudgetAdherence(budget.Categories, spent)
	return progress, nil
}

// spentByCategory sums expense transactions per category within the window.
func spentByCategory(db *gorm.DB, userID string, window Window) (map[string]int64, error) {
	type row struct {
		CategoryID string
		Total      int64
	}
	var rows []row

	err := db.Model(&models.Transaction{}).
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ? AND category_id IS NOT NULL AND date >= ? AND date < ?",
			userID, models.TransactionTypeExpense, window.Start, window.End).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.CategoryID] = r.Total
	}
	return result, nil
}
