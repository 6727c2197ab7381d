package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

// accountBalance fetches an account through the API and returns its balance.
func (app *testApp) accountBalance(t *testing.T, token, accountID string) float64 {
	t.Helper()
	rec := app.request("GET", "/api/v1/accounts/"+accountID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account failed: %d %s", rec.Code, rec.Body.String())
	}
	account := parseJSON(t, rec)["account"].(map[string]interface{})
	return account["balance"].(float64)
}

func TestTransactionFlow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "flow@example.com", "password123")

	accountID := app.createAccount(t, token, "Checking", "checking", 100000)
	categoryID := app.createCategory(t, token, "Groceries", "expense")

	today := time.Now().Format("2006-01-02")

	t.Run("expense reduces the account balance", func(t *testing.T) {
		body := fmt.Sprintf(`{"account_id":%q,"category_id":%q,"type":"expense","amount":2500,"description":"weekly shop","date":%q}`,
			accountID, categoryID, today)
		rec := app.request("POST", "/api/v1/transactions", body, token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
		}

		if balance := app.accountBalance(t, token, accountID); balance != 97500 {
			t.Errorf("expected balance 97500 after expense, got %v", balance)
		}
	})

	t.Run("income increases the account balance", func(t *testing.T) {
		body := fmt.Sprintf(`{"account_id":%q,"type":"income","amount":50000,"description":"paycheck","date":%q}`,
			accountID, today)
		rec := app.request("POST", "/api/v1/transactions", body, token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
		}

		if balance := app.accountBalance(t, token, accountID); balance != 147500 {
			t.Errorf("expected balance 147500 after income, got %v", balance)
		}
	})

	t.Run("editing an amount rebalances the account", func(t *testing.T) {
		body := fmt.Sprintf(`{"account_id":%q,"category_id":%q,"type":"expense","amount":10000,"date":%q}`,
			accountID, categoryID, today)
		rec := app.request("POST", "/api/v1/transactions", body, token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
		}
		txID := parseJSON(t, rec)["transaction"].(map[string]interface{})["id"].(string)

		rec = app.request("PUT", "/api/v1/transactions/"+txID, `{"amount":4000}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("update transaction failed: %d %s", rec.Code, rec.Body.String())
		}

		// 147500 - 10000 + 6000 back after the edit
		if balance := app.accountBalance(t, token, accountID); balance != 143500 {
			t.Errorf("expected balance 143500 after edit, got %v", balance)
		}

		rec = app.request("DELETE", "/api/v1/transactions/"+txID, "", token)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete transaction failed: %d %s", rec.Code, rec.Body.String())
		}

		if balance := app.accountBalance(t, token, accountID); balance != 147500 {
			t.Errorf("expected balance restored to 147500 after delete, got %v", balance)
		}
	})

	t.Run("manual adjustment records an adjustment transaction", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/accounts/"+accountID+"/adjust-balance",
			`{"new_balance":150000,"note":"bank statement sync"}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("adjust balance failed: %d %s", rec.Code, rec.Body.String())
		}
		adjustment := parseJSON(t, rec)["adjustment"].(map[string]interface{})
		if adjustment["type"] != "adjustment" {
			t.Errorf("expected adjustment type, got %v", adjustment["type"])
		}
		if adjustment["amount"].(float64) != 2500 {
			t.Errorf("expected adjustment delta 2500, got %v", adjustment["amount"])
		}

		if balance := app.accountBalance(t, token, accountID); balance != 150000 {
			t.Errorf("expected balance 150000 after adjustment, got %v", balance)
		}

		// Adjustments are immutable once recorded.
		txID := adjustment["id"].(string)
		rec = app.request("PUT", "/api/v1/transactions/"+txID, `{"amount":1}`, token)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 editing an adjustment, got %d", rec.Code)
		}
	})

	t.Run("transactions are invisible to other users", func(t *testing.T) {
		otherToken, _ := app.registerUser(t, "other@example.com", "password123")
		rec := app.request("GET", "/api/v1/accounts/"+accountID, "", otherToken)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for another user's account, got %d", rec.Code)
		}

		rec = app.request("GET", "/api/v1/transactions", "", otherToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("list transactions failed: %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if total := result["total_items"].(float64); total != 0 {
			t.Errorf("expected no transactions for the other user, got %v", total)
		}
	})
}
