package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finsight/internal/errors"
	"finsight/internal/models"
	"finsight/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account for a user. A non-zero initial balance
// is recorded as an opening adjustment entry so the balance invariant holds
// from the very first row.
func (s *accountService) CreateAccount(
	userID, name string,
	accountType models.AccountType,
	description, currency, institution string,
	initialBalance int64,
) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if currency == "" {
		currency = "USD"
	}

	account := &models.Account{
		UserID:      userID,
		Name:        name,
		Type:        accountType,
		Description: description,
		Currency:    currency,
		Institution: institution,
		IsActive:    true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(account).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		if initialBalance == 0 {
			return nil
		}

		opening := &models.Transaction{
			UserID:      userID,
			AccountID:   account.ID,
			Type:        models.TransactionTypeAdjustment,
			Amount:      initialBalance,
			Description: "Opening balance",
			Date:        time.Now(),
		}
		if txErr := tx.Create(opening).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return s.ApplyLedgerEntry(tx, account, opening)
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetUserAccounts returns a paginated list of active accounts for the user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Where("user_id = ? AND is_active = ?", userID, true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID returns an account by ID if it belongs to the user.
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates an account's descriptive fields.
func (s *accountService) UpdateAccount(userID, accountID, name, description, institution string) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if institution != "" {
		updates["institution"] = institution
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// DeactivateAccount marks an account inactive. Its transactions remain.
func (s *accountService) DeactivateAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	if err := s.db.Model(account).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AdjustBalance corrects an account's balance to newBalance. The delta is
// recorded as a synthetic adjustment transaction rather than silently
// overwriting the running total, so the sum-of-effects invariant is never
// broken by a manual correction.
func (s *accountService) AdjustBalance(userID, accountID string, newBalance int64, note string) (*models.Transaction, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	delta := newBalance - account.Balance
	if delta == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "balance is already at the requested value")
	}

	if note == "" {
		note = "Balance adjustment"
	}

	adjustment := &models.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		Type:        models.TransactionTypeAdjustment,
		Amount:      delta,
		Description: note,
		Date:        time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(adjustment).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return s.ApplyLedgerEntry(tx, account, adjustment)
	})
	if err != nil {
		return nil, err
	}

	return adjustment, nil
}

// ApplyLedgerEntry applies a transaction's signed effect to the account's
// running balance. Must run inside the same database transaction as the
// entry's own write.
func (s *accountService) ApplyLedgerEntry(tx *gorm.DB, account *models.Account, entry *models.Transaction) error {
	return s.applyDelta(tx, account, entry.BalanceEffect())
}

// ReverseLedgerEntry undoes a previously applied transaction's effect.
func (s *accountService) ReverseLedgerEntry(tx *gorm.DB, account *models.Account, entry *models.Transaction) error {
	return s.applyDelta(tx, account, -entry.BalanceEffect())
}

func (s *accountService) applyDelta(tx *gorm.DB, account *models.Account, delta int64) error {
	if delta == 0 {
		return nil
	}

	if err := tx.Model(account).
		Update("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	account.Balance += delta
	return nil
}
