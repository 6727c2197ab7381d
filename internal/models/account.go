package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
)

// IsLiquid reports whether balances of this account type count toward
// liquid assets (emergency fund coverage).
func (t AccountType) IsLiquid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCash:
		return true
	}
	return false
}

// Account represents a financial account in the system.
//
// Balance is a running total in cents, mutated only through ledger-entry
// apply/reverse operations on the account service so that it always equals
// the sum of signed transaction effects since account creation.
type Account struct {
	Base
	UserID      string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string      `gorm:"not null" json:"name"`
	Type        AccountType `gorm:"not null" json:"type"`
	Description string      `json:"description"`
	Balance     int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	Currency    string      `gorm:"not null;default:'USD'" json:"currency"`
	Institution string      `json:"institution,omitempty"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
	Holdings     []Holding     `gorm:"foreignKey:AccountID" json:"holdings,omitempty"`
}
