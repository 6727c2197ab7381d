package services

import (
	"testing"

	"finsight/internal/testutil"
)

func TestContribute(t *testing.T) {
	t.Run("partial_contribution", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		updated, err := svc.Contribute(user.ID, goal.ID, 25000)
		testutil.AssertNoError(t, err)

		if updated.CurrentAmount != 25000 {
			t.Errorf("expected current amount 25000, got %d", updated.CurrentAmount)
		}
		if updated.IsCompleted {
			t.Error("expected goal not completed")
		}
		if updated.Progress() != 25 {
			t.Errorf("expected progress 25, got %f", updated.Progress())
		}
	})

	t.Run("reaching_target_completes_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		_, err := svc.Contribute(user.ID, goal.ID, 60000)
		testutil.AssertNoError(t, err)
		updated, err := svc.Contribute(user.ID, goal.ID, 50000)
		testutil.AssertNoError(t, err)

		if !updated.IsCompleted {
			t.Error("expected goal completed")
		}
		// Progress display caps at 100 even when over-funded.
		if updated.Progress() != 100 {
			t.Errorf("expected progress capped at 100, got %f", updated.Progress())
		}
	})

	t.Run("non_positive_contribution", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, 100000)

		_, err := svc.Contribute(user.ID, goal.ID, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestCreateGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db)
	user := testutil.CreateTestUser(t, db)

	t.Run("valid", func(t *testing.T) {
		goal, err := svc.CreateGoal(user.ID, "Emergency fund", 600000, nil)
		testutil.AssertNoError(t, err)
		if goal.ID == "" {
			t.Fatal("expected non-empty goal ID")
		}
	})

	t.Run("zero_target", func(t *testing.T) {
		_, err := svc.CreateGoal(user.ID, "Broken", 0, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
