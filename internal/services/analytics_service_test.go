package services

import (
	"context"
	"math"
	"testing"
	"time"

	"finsight/internal/models"
	"finsight/internal/quotes"
	"finsight/internal/testutil"
)

func TestComputeIncomeExpense(t *testing.T) {
	now := time.Now()
	window := CurrentMonth(now)
	inWindow := window.Start.Add(24 * time.Hour)

	transactions := []models.Transaction{
		{Type: models.TransactionTypeIncome, Amount: 500000, Date: inWindow},
		{Type: models.TransactionTypeExpense, Amount: 120000, Date: inWindow},
		{Type: models.TransactionTypeExpense, Amount: 30000, Date: inWindow},
		// Adjustments are balance corrections, not cash flow.
		{Type: models.TransactionTypeAdjustment, Amount: 99999, Date: inWindow},
		// Outside the window.
		{Type: models.TransactionTypeIncome, Amount: 700000, Date: window.Start.AddDate(0, -1, 0)},
	}

	income, expenses := ComputeIncomeExpense(transactions, window)
	if income != 500000 {
		t.Errorf("expected income 500000, got %d", income)
	}
	if expenses != 150000 {
		t.Errorf("expected expenses 150000, got %d", expenses)
	}
}

func TestSavingsRate(t *testing.T) {
	if got := SavingsRate(0, 50000); got != 0 {
		t.Errorf("expected 0 with no income, got %d", got)
	}
	if got := SavingsRate(500000, 400000); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
	// Not clamped at this stage.
	if got := SavingsRate(100000, 150000); got != -50 {
		t.Errorf("expected -50, got %d", got)
	}
}

func TestDebtToIncome(t *testing.T) {
	if got := DebtToIncome(100000, 0); got != 0 {
		t.Errorf("expected 0 with no income, got %d", got)
	}
	if got := DebtToIncome(180000, 500000); got != 36 {
		t.Errorf("expected 36, got %d", got)
	}
}

func TestEmergencyFundMonths(t *testing.T) {
	if got := EmergencyFundMonths(100000, 0); got != 0 {
		t.Errorf("expected 0 with no expenses, got %f", got)
	}
	if got := EmergencyFundMonths(900000, 300000); got != 3 {
		t.Errorf("expected 3, got %f", got)
	}
	// Uncapped.
	if got := EmergencyFundMonths(3000000, 100000); got != 30 {
		t.Errorf("expected 30, got %f", got)
	}
}

func TestBudgetAdherence(t *testing.T) {
	t.Run("no_allocations_is_vacuously_adherent", func(t *testing.T) {
		if got := BudgetAdherence(nil, nil); got != 100 {
			t.Errorf("expected 100, got %f", got)
		}
	})

	t.Run("overspend_reduces_score", func(t *testing.T) {
		allocations := []models.BudgetCategory{{CategoryID: "cat-1", BudgetedAmount: 10000}}
		spent := map[string]int64{"cat-1": 12000}
		// 20% over -> 80.
		if got := BudgetAdherence(allocations, spent); got != 80 {
			t.Errorf("expected 80, got %f", got)
		}
	})

	t.Run("within_budget_scores_full", func(t *testing.T) {
		allocations := []models.BudgetCategory{{CategoryID: "cat-1", BudgetedAmount: 10000}}
		spent := map[string]int64{"cat-1": 8000}
		if got := BudgetAdherence(allocations, spent); got != 100 {
			t.Errorf("expected 100, got %f", got)
		}
	})

	t.Run("floor_at_zero", func(t *testing.T) {
		allocations := []models.BudgetCategory{{CategoryID: "cat-1", BudgetedAmount: 10000}}
		spent := map[string]int64{"cat-1": 30000}
		if got := BudgetAdherence(allocations, spent); got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})

	t.Run("mean_across_categories", func(t *testing.T) {
		allocations := []models.BudgetCategory{
			{CategoryID: "cat-1", BudgetedAmount: 10000},
			{CategoryID: "cat-2", BudgetedAmount: 10000},
		}
		spent := map[string]int64{"cat-1": 12000, "cat-2": 5000}
		// (80 + 100) / 2.
		if got := BudgetAdherence(allocations, spent); got != 90 {
			t.Errorf("expected 90, got %f", got)
		}
	})
}

func TestPortfolioConcentration(t *testing.T) {
	t.Run("concentrated", func(t *testing.T) {
		concentration, diversified := PortfolioConcentration([]int64{8000, 2000})
		if concentration != 80 {
			t.Errorf("expected concentration 80, got %f", concentration)
		}
		if diversified {
			t.Error("expected not diversified")
		}
	})

	t.Run("diversified", func(t *testing.T) {
		concentration, diversified := PortfolioConcentration([]int64{1800, 1800, 1800, 1800, 1800, 1000})
		if concentration > 20 {
			t.Errorf("expected concentration <= 20, got %f", concentration)
		}
		if !diversified {
			t.Error("expected diversified")
		}
	})

	t.Run("empty_is_diversified", func(t *testing.T) {
		concentration, diversified := PortfolioConcentration(nil)
		if concentration != 0 || !diversified {
			t.Errorf("expected (0, true), got (%f, %t)", concentration, diversified)
		}
	})
}

func TestComputeHealthScore(t *testing.T) {
	t.Run("capped_at_100", func(t *testing.T) {
		// 30 + 25 + 25 + 20 = 100 exactly; any more must still cap.
		if got := ComputeHealthScore(25, 10, 7, 100); got != 100 {
			t.Errorf("expected 100, got %d", got)
		}
	})

	t.Run("all_zero_inputs", func(t *testing.T) {
		// Zero savings, zero fund, zero debt ratio (tier 25), zero adherence.
		if got := ComputeHealthScore(0, 0, 0, 0); got != 25 {
			t.Errorf("expected 25, got %d", got)
		}
	})

	t.Run("middle_tiers", func(t *testing.T) {
		// savings 10..19 -> 20, fund 3..5 -> 20, debt 21..36 -> 15,
		// adherence 50 -> 10.
		if got := ComputeHealthScore(12, 30, 4, 50); got != 65 {
			t.Errorf("expected 65, got %d", got)
		}
	})
}

func TestGetHealthScore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	source := quotes.NewStaticSource()
	acctSvc := NewAccountService(db)
	invSvc := NewInvestmentService(db, acctSvc, source)
	svc := NewAnalyticsService(db, invSvc)

	user := testutil.CreateTestUser(t, db)
	savings := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeSavings, 900000)
	checking := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeChecking, 100000)
	// $1000 owed on the credit card.
	testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeCredit, -100000)

	incomeCat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
	expenseCat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	now := time.Now()
	window := CurrentMonth(now)
	date := window.Start.Add(time.Hour)

	// $5000 income, $2500 expenses this month.
	testutil.CreateTestTransaction(t, db, user.ID, checking.ID, &incomeCat.ID, models.TransactionTypeIncome, 500000, date)
	testutil.CreateTestTransaction(t, db, user.ID, savings.ID, &expenseCat.ID, models.TransactionTypeExpense, 250000, date)

	score, err := svc.GetHealthScore(user.ID)
	testutil.AssertNoError(t, err)

	// (5000-2500)/5000 = 50%.
	if score.SavingsRate != 50 {
		t.Errorf("expected savings rate 50, got %d", score.SavingsRate)
	}
	// 1000/5000 = 20%.
	if score.DebtToIncomeRatio != 20 {
		t.Errorf("expected debt ratio 20, got %d", score.DebtToIncomeRatio)
	}
	// liquid 10000, monthly expenses 2500 -> 4 months.
	if math.Abs(score.EmergencyFundMonths-4) > 1e-9 {
		t.Errorf("expected 4 emergency fund months, got %f", score.EmergencyFundMonths)
	}
	// No budgets -> vacuous adherence.
	if score.BudgetAdherence != 100 {
		t.Errorf("expected adherence 100, got %f", score.BudgetAdherence)
	}
	// 30 + 20 + 25 + 20 = 95.
	if score.Score != 95 {
		t.Errorf("expected score 95, got %d", score.Score)
	}
}

func TestGetDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	source := quotes.NewStaticSource()
	source.SetPrice("AAPL", 20000)
	acctSvc := NewAccountService(db)
	invSvc := NewInvestmentService(db, acctSvc, source)
	svc := NewAnalyticsService(db, invSvc)

	user := testutil.CreateTestUser(t, db)
	checking := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeChecking, 300000)
	invAcct := testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeInvestment, 0)
	testutil.CreateTestAccount(t, db, user.ID, models.AccountTypeCredit, -50000)

	// 5 shares at $200 current price -> $1000 portfolio.
	testutil.CreateTestHolding(t, db, user.ID, invAcct.ID, "AAPL", 5, 15000)

	expenseCat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	date := CurrentMonth(time.Now()).Start.Add(time.Hour)
	testutil.CreateTestTransaction(t, db, user.ID, checking.ID, &expenseCat.ID, models.TransactionTypeExpense, 40000, date)

	goal := testutil.CreateTestGoal(t, db, user.ID, 100000)
	db.Model(goal).Update("current_amount", 25000)

	dashboard, err := svc.GetDashboard(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	if dashboard.CashBalance != 300000 {
		t.Errorf("expected cash balance 300000, got %d", dashboard.CashBalance)
	}
	if dashboard.InvestmentValue != 100000 {
		t.Errorf("expected investment value 100000, got %d", dashboard.InvestmentValue)
	}
	if dashboard.DebtBalance != 50000 {
		t.Errorf("expected debt 50000, got %d", dashboard.DebtBalance)
	}
	// 3000 + 1000 - 500.
	if dashboard.NetWorth != 350000 {
		t.Errorf("expected net worth 350000, got %d", dashboard.NetWorth)
	}
	if dashboard.MonthlyExpenses != 40000 {
		t.Errorf("expected monthly expenses 40000, got %d", dashboard.MonthlyExpenses)
	}

	if len(dashboard.TopCategories) != 1 {
		t.Fatalf("expected 1 top category, got %d", len(dashboard.TopCategories))
	}
	if dashboard.TopCategories[0].Amount != 40000 {
		t.Errorf("expected top category amount 40000, got %d", dashboard.TopCategories[0].Amount)
	}

	if len(dashboard.Goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(dashboard.Goals))
	}
	if dashboard.Goals[0].Progress != 25 {
		t.Errorf("expected goal progress 25, got %f", dashboard.Goals[0].Progress)
	}
}
