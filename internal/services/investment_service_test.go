package services

import (
	"context"
	"testing"

	"finsight/internal/models"
	"finsight/internal/pagination"
	"finsight/internal/quotes"
	"finsight/internal/testutil"
)

func TestCreateHolding(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)

		holding, err := svc.CreateHolding(user.ID, account.ID, "AAPL", "Apple Inc", 10, 10000, "USD")
		testutil.AssertNoError(t, err)

		if holding.ID == "" {
			t.Fatal("expected non-empty holding ID")
		}
		if holding.Shares != 10 {
			t.Errorf("expected 10 shares, got %f", holding.Shares)
		}
		if holding.AvgCostBasis != 10000 {
			t.Errorf("expected cost basis 10000, got %d", holding.AvgCostBasis)
		}
	})

	t.Run("not_investment_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeChecking, 0)

		_, err := svc.CreateHolding(user.ID, account.ID, "AAPL", "Apple Inc", 10, 10000, "USD")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("zero_shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)

		_, err := svc.CreateHolding(user.ID, account.ID, "AAPL", "Apple Inc", 0, 10000, "USD")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestRecordPurchase(t *testing.T) {
	t.Run("weighted_average_basis", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)

		// 10 shares at $100.
		holding := testutil.CreateTestHolding(t, db, user.ID, account.ID, "AAPL", 10, 10000)

		// Add 10 at $200: basis becomes $150 across 20 shares.
		updated, err := svc.RecordPurchase(user.ID, holding.ID, 10, 20000)
		testutil.AssertNoError(t, err)

		if updated.Shares != 20 {
			t.Errorf("expected 20 shares, got %f", updated.Shares)
		}
		if updated.AvgCostBasis != 15000 {
			t.Errorf("expected cost basis 15000, got %d", updated.AvgCostBasis)
		}
	})

	t.Run("unknown_holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RecordPurchase(user.ID, "00000000-0000-7000-8000-000000000000", 10, 20000)
		testutil.AssertAppError(t, err, "HOLDING_NOT_FOUND")
	})
}

func TestRecordSale(t *testing.T) {
	t.Run("reduces_shares_keeps_basis", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)
		holding := testutil.CreateTestHolding(t, db, user.ID, account.ID, "AAPL", 10, 10000)

		updated, err := svc.RecordSale(user.ID, holding.ID, 4, 25000)
		testutil.AssertNoError(t, err)

		if updated.Shares != 6 {
			t.Errorf("expected 6 shares, got %f", updated.Shares)
		}
		if updated.AvgCostBasis != 10000 {
			t.Errorf("expected basis unchanged at 10000, got %d", updated.AvgCostBasis)
		}
	})

	t.Run("insufficient_shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)
		holding := testutil.CreateTestHolding(t, db, user.ID, account.ID, "AAPL", 10, 10000)

		_, err := svc.RecordSale(user.ID, holding.ID, 11, 25000)
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")
	})
}

func TestGetUserHoldings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	source := quotes.NewStaticSource()
	source.SetPrice("AAPL", 20000)
	acctSvc := NewAccountService(db)
	svc := NewInvestmentService(db, acctSvc, source)
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)
	testutil.CreateTestHolding(t, db, user.ID, account.ID, "AAPL", 5, 15000)

	page, err := svc.GetUserHoldings(context.Background(), user.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)

	if page.TotalItems != 1 {
		t.Fatalf("expected 1 holding, got %d", page.TotalItems)
	}
	if page.Data[0].CurrentPrice != 20000 {
		t.Errorf("expected current price 20000, got %d", page.Data[0].CurrentPrice)
	}
}

func TestGetPortfolio(t *testing.T) {
	t.Run("values_and_concentration", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		source := quotes.NewStaticSource()
		source.SetPrice("AAPL", 10000)
		source.SetPrice("VTI", 10000)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, source)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)

		testutil.CreateTestHolding(t, db, user.ID, account.ID, "AAPL", 8, 5000)
		testutil.CreateTestHolding(t, db, user.ID, account.ID, "VTI", 2, 5000)

		portfolio, err := svc.GetPortfolio(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		if portfolio.TotalValue != 100000 {
			t.Errorf("expected total value 100000, got %d", portfolio.TotalValue)
		}
		if portfolio.TotalCost != 50000 {
			t.Errorf("expected total cost 50000, got %d", portfolio.TotalCost)
		}
		if portfolio.TotalGainLoss != 50000 {
			t.Errorf("expected gain 50000, got %d", portfolio.TotalGainLoss)
		}
		if portfolio.Concentration != 80 {
			t.Errorf("expected concentration 80, got %f", portfolio.Concentration)
		}
		if portfolio.IsDiversified {
			t.Error("expected not diversified")
		}
		if portfolio.TopHolding != "AAPL" {
			t.Errorf("expected top holding AAPL, got %s", portfolio.TopHolding)
		}
	})

	t.Run("unpriced_holding_falls_back_to_cost", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		source := quotes.NewStaticSource()
		source.SetPrice("AAPL", 20000)
		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, source)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)

		testutil.CreateTestHolding(t, db, user.ID, account.ID, "AAPL", 1, 10000)
		// No quote available for this symbol.
		testutil.CreateTestHolding(t, db, user.ID, account.ID, "ZZZZ", 2, 5000)

		portfolio, err := svc.GetPortfolio(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		// AAPL at market ($200) plus ZZZZ at cost ($100).
		if portfolio.TotalValue != 30000 {
			t.Errorf("expected total value 30000, got %d", portfolio.TotalValue)
		}

		for _, h := range portfolio.Holdings {
			switch h.Symbol {
			case "AAPL":
				if !h.Priced {
					t.Error("expected AAPL to be priced")
				}
			case "ZZZZ":
				if h.Priced {
					t.Error("expected ZZZZ to be unpriced")
				}
				if h.CurrentValue != 10000 {
					t.Errorf("expected ZZZZ valued at cost 10000, got %d", h.CurrentValue)
				}
			}
		}
	})

	t.Run("empty_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		acctSvc := NewAccountService(db)
		svc := NewInvestmentService(db, acctSvc, quotes.NewStaticSource())
		user := testutil.CreateTestUser(t, db)

		portfolio, err := svc.GetPortfolio(context.Background(), user.ID)
		testutil.AssertNoError(t, err)

		if portfolio.TotalValue != 0 {
			t.Errorf("expected zero value, got %d", portfolio.TotalValue)
		}
		if !portfolio.IsDiversified {
			t.Error("expected empty portfolio to count as diversified")
		}
	})
}
