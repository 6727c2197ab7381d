package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"

	// TransactionTypeAdjustment is the synthetic type recorded when a user
	// corrects an account balance directly. Adjustments carry a signed
	// amount and are excluded from income/expense analytics, so the
	// balance invariant holds without skewing the aggregates.
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// Transaction represents a financial transaction in the system.
// Amount is in cents and non-negative for income/expense; adjustment
// amounts carry the signed balance delta.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	// Relationships
	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// BalanceEffect returns the signed effect of this transaction on its
// account's balance, in cents.
func (t *Transaction) BalanceEffect() int64 {
	switch t.Type {
	case TransactionTypeIncome:
		return t.Amount
	case TransactionTypeExpense:
		return -t.Amount
	case TransactionTypeAdjustment:
		return t.Amount
	}
	return 0
}
