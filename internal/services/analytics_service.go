package services

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "finsight/internal/errors"
	"finsight/internal/logger"
	"finsight/internal/models"
)

// ComputeIncomeExpense sums income and expense amounts for transactions
// whose date falls inside the window. Adjustment entries are balance
// corrections, not cash flow, and are excluded.
func ComputeIncomeExpense(transactions []models.Transaction, window Window) (income, expenses int64) {
	for i := range transactions {
		t := &transactions[i]
		if !window.Contains(t.Date) {
			continue
		}
		switch t.Type {
		case models.TransactionTypeIncome:
			income += t.Amount
		case models.TransactionTypeExpense:
			expenses += t.Amount
		}
	}
	return income, expenses
}

// SavingsRate returns (income-expenses)/income as a rounded percentage, or 0
// when there is no income. May be negative when expenses exceed income;
// callers clamp for display.
func SavingsRate(income, expenses int64) int {
	if income <= 0 {
		return 0
	}
	return int(math.Round(float64(income-expenses) / float64(income) * 100))
}

// DebtToIncome returns totalDebt/income as a rounded percentage, or 0 when
// there is no income.
func DebtToIncome(totalDebt, income int64) int {
	if income <= 0 {
		return 0
	}
	return int(math.Round(float64(totalDebt) / float64(income) * 100))
}

// EmergencyFundMonths returns how many months of expenses the liquid assets
// cover. Uncapped; 0 when monthly expenses are zero.
func EmergencyFundMonths(liquidAssets, monthlyExpenses int64) float64 {
	if monthlyExpenses <= 0 {
		return 0
	}
	return float64(liquidAssets) / float64(monthlyExpenses)
}

// BudgetAdherence scores how well actual spending stayed within the given
// allocations. Each allocation contributes 100 when within budget, otherwise
// max(0, 100 - overage percentage); the result is the arithmetic mean. An
// empty allocation set is vacuously adherent and scores 100.
func BudgetAdherence(allocations []models.BudgetCategory, spent map[string]int64) float64 {
	if len(allocations) == 0 {
		return 100
	}

	var total float64
	for i := range allocations {
		alloc := &allocations[i]
		categorySpent := spent[alloc.CategoryID]
		if categorySpent <= alloc.BudgetedAmount {
			total += 100
			continue
		}
		overagePct := float64(categorySpent-alloc.BudgetedAmount) / float64(alloc.BudgetedAmount) * 100
		total += math.Max(0, 100-overagePct)
	}
	return total / float64(len(allocations))
}

// PortfolioConcentration returns the largest single position as a percentage
// of total value, and whether the portfolio counts as diversified
// (concentration below 20%). An empty or zero-value portfolio is trivially
// diversified.
func PortfolioConcentration(values []int64) (concentration float64, isDiversified bool) {
	var total, largest int64
	for _, v := range values {
		total += v
		if v > largest {
			largest = v
		}
	}
	if total <= 0 {
		return 0, true
	}
	concentration = float64(largest) / float64(total) * 100
	return concentration, concentration < 20
}

// ComputeHealthScore combines the four metrics into a 0-100 score:
// savings-rate tier (0/10/20/30 at <5/>=5/>=10/>=20), emergency-fund tier
// (0/10/20/25 at <1/>=1/>=3/>=6 months), debt-ratio tier (25/15/5/0 at
// <=20/<=36/<=50/>50), plus round(adherence*0.2), capped at 100.
func ComputeHealthScore(savingsRate, debtRatio int, emergencyFundMonths, adherence float64) int {
	var score int

	switch {
	case savingsRate >= 20:
		score += 30
	case savingsRate >= 10:
		score += 20
	case savingsRate >= 5:
		score += 10
	}

	switch {
	case emergencyFundMonths >= 6:
		score += 25
	case emergencyFundMonths >= 3:
		score += 20
	case emergencyFundMonths >= 1:
		score += 10
	}

	switch {
	case debtRatio <= 20:
		score += 25
	case debtRatio <= 36:
		score += 15
	case debtRatio <= 50:
		score += 5
	}

	score += int(math.Round(adherence * 0.2))

	if score > 100 {
		score = 100
	}
	return score
}

// analyticsService reduces raw records into scalar metrics.
type analyticsService struct {
	db          *gorm.DB
	investments InvestmentServicer
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB, investments InvestmentServicer) AnalyticsServicer {
	return &analyticsService{db: db, investments: investments}
}

// GetHealthScore computes the financial health score for the current
// calendar month.
func (s *analyticsService) GetHealthScore(userID string) (*HealthScore, error) {
	now := time.Now()
	window := CurrentMonth(now)

	income, expenses, err := s.sumIncomeExpense(userID, window)
	if err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	liquid, _, debt := splitBalances(accounts)

	adherence, err := s.averageAdherence(userID, now)
	if err != nil {
		return nil, err
	}

	savingsRate := SavingsRate(income, expenses)
	debtRatio := DebtToIncome(debt, income)
	efMonths := EmergencyFundMonths(liquid, expenses)

	return &HealthScore{
		Score:               ComputeHealthScore(savingsRate, debtRatio, efMonths, adherence),
		SavingsRate:         savingsRate,
		DebtToIncomeRatio:   debtRatio,
		EmergencyFundMonths: efMonths,
		BudgetAdherence:     adherence,
	}, nil
}

// GetDashboard aggregates the landing-page numbers. A portfolio valuation
// failure degrades the investment figure to zero rather than failing the
// dashboard.
func (s *analyticsService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	now := time.Now()
	window := CurrentMonth(now)

	income, expenses, err := s.sumIncomeExpense(userID, window)
	if err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	liquid, _, debt := splitBalances(accounts)

	var investmentValue int64
	if portfolio, pErr := s.investments.GetPortfolio(ctx, userID); pErr != nil {
		logger.Get().Warnw("portfolio valuation unavailable for dashboard", "user_id", userID, "error", pErr)
	} else {
		investmentValue = portfolio.TotalValue
	}

	dashboard := &Dashboard{
		NetWorth:        liquid + investmentValue - debt,
		CashBalance:     liquid,
		InvestmentValue: investmentValue,
		DebtBalance:     debt,
		MonthlyIncome:   income,
		MonthlyExpenses: expenses,
		SavingsRate:     SavingsRate(income, expenses),
	}

	spends, err := s.topCategorySpends(userID, window, 5)
	if err != nil {
		return nil, err
	}
	dashboard.TopCategories = spends

	var goals []models.Goal
	if err := s.db.Where("user_id = ?", userID).Order("created_at").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	dashboard.Goals = make([]GoalProgress, 0, len(goals))
	for i := range goals {
		dashboard.Goals = append(dashboard.Goals, GoalProgress{
			GoalID:   goals[i].ID,
			Name:     goals[i].Name,
			Progress: goals[i].Progress(),
		})
	}

	return dashboard, nil
}

// sumIncomeExpense totals income and expense transactions in the window.
func (s *analyticsService) sumIncomeExpense(userID string, window Window) (income, expenses int64, err error) {
	type row struct {
		Type  models.TransactionType
		Total int64
	}
	var rows []row

	err = s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type IN ? AND date >= ? AND date < ?",
			userID,
			[]models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense},
			window.Start, window.End).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			income = r.Total
		case models.TransactionTypeExpense:
			expenses = r.Total
		}
	}
	return income, expenses, nil
}

// splitBalances partitions active account balances into liquid assets,
// investment cash, and debt. Credit accounts carry negative balances when
// money is owed; the owed portion is reported as positive debt.
func splitBalances(accounts []models.Account) (liquid, investment, debt int64) {
	for i := range accounts {
		a := &accounts[i]
		switch {
		case a.Type == models.AccountTypeCredit:
			if a.Balance < 0 {
				debt += -a.Balance
			}
		case a.Type == models.AccountTypeInvestment:
			investment += a.Balance
		case a.Type.IsLiquid():
			liquid += a.Balance
		}
	}
	return liquid, investment, debt
}

// averageAdherence computes the mean adherence across the user's active
// budgets, each scored over its own current period. No budgets means
// vacuous adherence of 100.
func (s *analyticsService) averageAdherence(userID string, now time.Time) (float64, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Categories").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&budgets).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(budgets) == 0 {
		return 100, nil
	}

	var total float64
	for i := range budgets {
		window := periodWindow(string(budgets[i].Period), now)
		spent, err := spentByCategory(s.db, userID, window)
		if err != nil {
			return 0, err
		}
		total += BudgetAdherence(budgets[i].Categories, spent)
	}
	return total / float64(len(budgets)), nil
}

// topCategorySpends returns the n highest expense categories in the window.
func (s *analyticsService) topCategorySpends(userID string, window Window, n int) ([]CategorySpend, error) {
	var rows []CategorySpend

	err := s.db.Model(&models.Transaction{}).
		Select("transactions.category_id AS category_id, categories.name AS category_name, COALESCE(SUM(transactions.amount), 0) AS amount").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.date >= ? AND transactions.date < ? AND transactions.deleted_at IS NULL",
			userID, models.TransactionTypeExpense, window.Start, window.End).
		Group("transactions.category_id, categories.name").
		Order("amount DESC").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if rows == nil {
		rows = []CategorySpend{}
	}
	return rows, nil
}
