package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "finsight/internal/errors"
	"finsight/internal/models"
)

type mockInsightService struct {
	getInsightsFn      func(ctx context.Context, userID string) ([]models.Insight, error)
	generateInsightsFn func(ctx context.Context, userID string) ([]models.Insight, error)
	dismissInsightFn   func(userID, insightID string) error
}

func (m *mockInsightService) GetInsights(ctx context.Context, userID string) ([]models.Insight, error) {
	if m.getInsightsFn != nil {
		return m.getInsightsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockInsightService) GenerateInsights(ctx context.Context, userID string) ([]models.Insight, error) {
	if m.generateInsightsFn != nil {
		return m.generateInsightsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockInsightService) DismissInsight(userID, insightID string) error {
	if m.dismissInsightFn != nil {
		return m.dismissInsightFn(userID, insightID)
	}
	return nil
}

func setupInsightRouter(handler *InsightHandler) *gin.Engine {
	r := gin.New()
	uid := "11111111-1111-7111-8111-111111111111"
	r.GET("/insights", injectUserID(uid), handler.ListInsights)
	r.POST("/insights/generate", injectUserID(uid), handler.GenerateInsights)
	r.POST("/insights/:id/dismiss", injectUserID(uid), handler.DismissInsight)
	return r
}

func TestInsightHandler_ListInsights(t *testing.T) {
	t.Run("returns ranked insights", func(t *testing.T) {
		svc := &mockInsightService{
			getInsightsFn: func(_ context.Context, userID string) ([]models.Insight, error) {
				return []models.Insight{
					{ID: "a", UserID: userID, Type: models.InsightTypeAlert, Priority: models.InsightPriorityHigh, Title: "Over budget", Rank: 1},
					{ID: "b", UserID: userID, Type: models.InsightTypeTip, Priority: models.InsightPriorityLow, Title: "Keep it up", Rank: 2},
				}, nil
			},
		}
		handler := NewInsightHandler(svc)
		r := setupInsightRouter(handler)

		rec := doRequest(r, "GET", "/insights", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		insights := result["insights"].([]interface{})
		if len(insights) != 2 {
			t.Fatalf("expected 2 insights, got %d", len(insights))
		}
		first := insights[0].(map[string]interface{})
		if first["title"] != "Over budget" {
			t.Errorf("expected high-priority insight first, got %v", first["title"])
		}
	})

	t.Run("degrades to empty list on failure", func(t *testing.T) {
		svc := &mockInsightService{
			getInsightsFn: func(_ context.Context, _ string) ([]models.Insight, error) {
				return nil, fmt.Errorf("db connection lost")
			},
		}
		handler := NewInsightHandler(svc)
		r := setupInsightRouter(handler)

		rec := doRequest(r, "GET", "/insights", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		insights := result["insights"].([]interface{})
		if len(insights) != 0 {
			t.Errorf("expected empty insight list, got %d", len(insights))
		}
	})
}

func TestInsightHandler_GenerateInsights(t *testing.T) {
	t.Run("returns fresh insights", func(t *testing.T) {
		var calledUserID string
		svc := &mockInsightService{
			generateInsightsFn: func(_ context.Context, userID string) ([]models.Insight, error) {
				calledUserID = userID
				return []models.Insight{
					{ID: "a", UserID: userID, Type: models.InsightTypeWarning, Priority: models.InsightPriorityHigh, Rank: 1},
				}, nil
			},
		}
		handler := NewInsightHandler(svc)
		r := setupInsightRouter(handler)

		rec := doRequest(r, "POST", "/insights/generate", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if calledUserID == "" {
			t.Error("expected user ID to be passed to the service")
		}
	})

	t.Run("propagates generation failure", func(t *testing.T) {
		svc := &mockInsightService{
			generateInsightsFn: func(_ context.Context, _ string) ([]models.Insight, error) {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("rule evaluation failed"))
			},
		}
		handler := NewInsightHandler(svc)
		r := setupInsightRouter(handler)

		rec := doRequest(r, "POST", "/insights/generate", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestInsightHandler_DismissInsight(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		var dismissedID string
		svc := &mockInsightService{
			dismissInsightFn: func(_, insightID string) error {
				dismissedID = insightID
				return nil
			},
		}
		handler := NewInsightHandler(svc)
		r := setupInsightRouter(handler)

		rec := doRequest(r, "POST", "/insights/22222222-2222-7222-8222-222222222222/dismiss", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
		if dismissedID != "22222222-2222-7222-8222-222222222222" {
			t.Errorf("expected insight ID to be passed through, got %q", dismissedID)
		}
	})

	t.Run("returns 400 on malformed ID", func(t *testing.T) {
		handler := NewInsightHandler(&mockInsightService{})
		r := setupInsightRouter(handler)

		rec := doRequest(r, "POST", "/insights/not-a-uuid/dismiss", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 on unknown insight", func(t *testing.T) {
		svc := &mockInsightService{
			dismissInsightFn: func(_, _ string) error {
				return apperrors.ErrInsightNotFound
			},
		}
		handler := NewInsightHandler(svc)
		r := setupInsightRouter(handler)

		rec := doRequest(r, "POST", "/insights/22222222-2222-7222-8222-222222222222/dismiss", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSIGHT_NOT_FOUND")
	})
}
