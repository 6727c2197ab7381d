package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"finsight/internal/models"
	"finsight/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// AccountServicer defines the contract for account-related business logic.
// ApplyLedgerEntry and ReverseLedgerEntry are the only balance mutation
// paths; both must run inside the same database transaction as the
// transaction-row write they accompany.
type AccountServicer interface {
	CreateAccount(userID, name string, accountType models.AccountType, description, currency, institution string, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID, name, description, institution string) (*models.Account, error)
	DeactivateAccount(userID, accountID string) error
	AdjustBalance(userID, accountID string, newBalance int64, note string) (*models.Transaction, error)
	ApplyLedgerEntry(tx *gorm.DB, account *models.Account, entry *models.Transaction) error
	ReverseLedgerEntry(tx *gorm.DB, account *models.Account, entry *models.Transaction) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionUpdate holds optional new values for an existing transaction.
// Nil fields are left unchanged.
type TransactionUpdate struct {
	Amount      *int64
	Type        *models.TransactionType
	CategoryID  *string
	Description *string
	Date        *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, accountID string, categoryID *string, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// CategoryBudgetProgress contains spending vs allocation for one category.
type CategoryBudgetProgress struct {
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	Budgeted      int64   `json:"budgeted"`
	Spent         int64   `json:"spent"`
	Remaining     int64   `json:"remaining"`
	Percentage    float64 `json:"percentage"`
	OverThreshold bool    `json:"over_threshold"`
}

// BudgetProgress contains spending vs budget data for a budget's current period.
type BudgetProgress struct {
	BudgetID    string                   `json:"budget_id"`
	PeriodStart time.Time                `json:"period_start"`
	PeriodEnd   time.Time                `json:"period_end"`
	Categories  []CategoryBudgetProgress `json:"categories"`
	Adherence   float64                  `json:"adherence"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, name string, period models.BudgetPeriod, startDate time.Time, endDate *time.Time) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID, name string, endDate *time.Time, isActive *bool) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	AddAllocation(userID, budgetID, categoryID string, budgetedAmount int64, alertThreshold int) (*models.BudgetCategory, error)
	UpdateAllocation(userID, budgetID, allocationID string, budgetedAmount *int64, alertThreshold *int) (*models.BudgetCategory, error)
	RemoveAllocation(userID, budgetID, allocationID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
}

// GoalServicer defines the contract for savings-goal business logic.
type GoalServicer interface {
	CreateGoal(userID, name string, targetAmount int64, targetDate *time.Time) (*models.Goal, error)
	GetUserGoals(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(userID, goalID string) (*models.Goal, error)
	UpdateGoal(userID, goalID, name string, targetAmount *int64, targetDate *time.Time) (*models.Goal, error)
	DeleteGoal(userID, goalID string) error
	Contribute(userID, goalID string, amount int64) (*models.Goal, error)
}

// SubscriptionServicer defines the contract for recurring-charge tracking.
type SubscriptionServicer interface {
	CreateSubscription(userID, serviceName string, monthlyCost int64, nextBillingDate *time.Time) (*models.Subscription, error)
	GetUserSubscriptions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Subscription], error)
	UpdateSubscription(userID, subscriptionID, serviceName string, monthlyCost *int64, isActive *bool) (*models.Subscription, error)
	DeleteSubscription(userID, subscriptionID string) error
	ActiveSubscriptions(userID string) ([]models.Subscription, error)
}

// HoldingSummary is one priced position inside a PortfolioSummary.
type HoldingSummary struct {
	HoldingID    string  `json:"holding_id"`
	Symbol       string  `json:"symbol"`
	Shares       float64 `json:"shares"`
	AvgCostBasis int64   `json:"avg_cost_basis"`
	CurrentPrice int64   `json:"current_price"`
	CurrentValue int64   `json:"current_value"`
	Weight       float64 `json:"weight"`
	Priced       bool    `json:"priced"`
}

// PortfolioSummary contains aggregated portfolio data across all holdings.
// Holdings whose quotes were unavailable are valued at cost basis and
// flagged Priced=false rather than failing the summary.
type PortfolioSummary struct {
	TotalValue    int64            `json:"total_value"`
	TotalCost     int64            `json:"total_cost"`
	TotalGainLoss int64            `json:"total_gain_loss"`
	GainLossPct   float64          `json:"gain_loss_pct"`
	Concentration float64          `json:"concentration"`
	IsDiversified bool             `json:"is_diversified"`
	TopHolding    string           `json:"top_holding,omitempty"`
	Holdings      []HoldingSummary `json:"holdings"`
}

// InvestmentServicer defines the contract for holding-related business logic.
type InvestmentServicer interface {
	CreateHolding(userID, accountID, symbol, name string, shares float64, pricePerShare int64, currency string) (*models.Holding, error)
	GetUserHoldings(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
	GetHoldingByID(userID, holdingID string) (*models.Holding, error)
	RecordPurchase(userID, holdingID string, shares float64, pricePerShare int64) (*models.Holding, error)
	RecordSale(userID, holdingID string, shares float64, pricePerShare int64) (*models.Holding, error)
	DeleteHolding(userID, holdingID string) error
	GetPortfolio(ctx context.Context, userID string) (*PortfolioSummary, error)
}

// HealthScore is the weighted financial health summary for a user.
type HealthScore struct {
	Score               int     `json:"score"`
	SavingsRate         int     `json:"savings_rate"`
	DebtToIncomeRatio   int     `json:"debt_to_income_ratio"`
	EmergencyFundMonths float64 `json:"emergency_fund_months"`
	BudgetAdherence     float64 `json:"budget_adherence"`
}

// CategorySpend is an aggregated spend total for one category.
type CategorySpend struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Amount       int64  `json:"amount"`
}

// GoalProgress summarizes one goal for the dashboard.
type GoalProgress struct {
	GoalID   string  `json:"goal_id"`
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
}

// Dashboard aggregates the landing-page numbers for a user.
type Dashboard struct {
	NetWorth        int64           `json:"net_worth"`
	CashBalance     int64           `json:"cash_balance"`
	InvestmentValue int64           `json:"investment_value"`
	DebtBalance     int64           `json:"debt_balance"`
	MonthlyIncome   int64           `json:"monthly_income"`
	MonthlyExpenses int64           `json:"monthly_expenses"`
	SavingsRate     int             `json:"savings_rate"`
	TopCategories   []CategorySpend `json:"top_categories"`
	Goals           []GoalProgress  `json:"goals"`
}

// AnalyticsServicer reduces raw records into scalar metrics.
type AnalyticsServicer interface {
	GetHealthScore(userID string) (*HealthScore, error)
	GetDashboard(ctx context.Context, userID string) (*Dashboard, error)
}

// InsightServicer evaluates heuristic rules over aggregated metrics and
// manages the 24-hour insight cache.
type InsightServicer interface {
	GetInsights(ctx context.Context, userID string) ([]models.Insight, error)
	GenerateInsights(ctx context.Context, userID string) ([]models.Insight, error)
	DismissInsight(userID, insightID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
