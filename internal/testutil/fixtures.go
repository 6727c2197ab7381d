package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finsight/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates an account of the given type and balance (in cents).
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string, accountType models.AccountType, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     accountType,
		Balance:  balance,
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction dated at the given time.
// The account balance is NOT touched; use the transaction service when the
// ledger effect matters.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, categoryID *string, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        txType,
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        date,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}

// CreateTestBudget creates an active monthly budget.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:    userID,
		Name:      fmt.Sprintf("Test Budget %d", nextID()),
		Period:    models.BudgetPeriodMonthly,
		StartDate: time.Now().AddDate(0, -1, 0),
		IsActive:  true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestAllocation adds a category allocation to a budget.
func CreateTestAllocation(t *testing.T, db *gorm.DB, budgetID, categoryID string, budgetedAmount int64) *models.BudgetCategory {
	t.Helper()

	allocation := &models.BudgetCategory{
		BudgetID:       budgetID,
		CategoryID:     categoryID,
		BudgetedAmount: budgetedAmount,
		AlertThreshold: 80,
	}
	if err := db.Create(allocation).Error; err != nil {
		t.Fatalf("failed to create test allocation: %v", err)
	}
	return allocation
}

// CreateTestGoal creates a savings goal with the given target (in cents).
func CreateTestGoal(t *testing.T, db *gorm.DB, userID string, targetAmount int64) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:       userID,
		Name:         fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount: targetAmount,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestSubscription creates an active subscription with the given
// monthly cost (in cents).
func CreateTestSubscription(t *testing.T, db *gorm.DB, userID string, monthlyCost int64) *models.Subscription {
	t.Helper()

	subscription := &models.Subscription{
		UserID:      userID,
		ServiceName: fmt.Sprintf("Test Service %d", nextID()),
		MonthlyCost: monthlyCost,
		IsActive:    true,
	}
	if err := db.Create(subscription).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}
	return subscription
}

// CreateTestHolding creates a holding with the given shares and per-share
// cost basis (in cents).
func CreateTestHolding(t *testing.T, db *gorm.DB, userID, accountID, symbol string, shares float64, avgCostBasis int64) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		UserID:       userID,
		AccountID:    accountID,
		Symbol:       symbol,
		Name:         symbol,
		Shares:       shares,
		AvgCostBasis: avgCostBasis,
		Currency:     "USD",
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}
