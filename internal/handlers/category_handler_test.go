package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "finsight/internal/errors"
	"finsight/internal/models"
	"finsight/internal/pagination"
)

type mockCategoryService struct {
	createCategoryFn func(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error)
	updateCategoryFn func(userID, categoryID, name, icon, color string) (*models.Category, error)
	deleteCategoryFn func(userID, categoryID string) error
}

func (m *mockCategoryService) CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, name, categoryType, icon, color)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	resp := pagination.NewPageResponse[models.Category](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	return &models.Category{Base: models.Base{ID: categoryID}, UserID: userID}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID, name, icon, color string) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, name, icon, color)
	}
	return &models.Category{Base: models.Base{ID: categoryID}}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID)
	}
	return nil
}

// recordingAuditService captures Log calls so tests can assert mutations
// were audited.
type recordingAuditService struct {
	actions []string
}

func (m *recordingAuditService) Log(_, action, _, _, _ string, _ map[string]interface{}) {
	m.actions = append(m.actions, action)
}

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	uid := "11111111-1111-7111-8111-111111111111"
	r.POST("/categories", injectUserID(uid), handler.CreateCategory)
	r.PUT("/categories/:id", injectUserID(uid), handler.UpdateCategory)
	r.DELETE("/categories/:id", injectUserID(uid), handler.DeleteCategory)
	return r
}

func TestCategoryHandler_AuditTrail(t *testing.T) {
	categoryID := "22222222-2222-7222-8222-222222222222"

	t.Run("create is audited", func(t *testing.T) {
		audit := &recordingAuditService{}
		handler := NewCategoryHandler(&mockCategoryService{
			createCategoryFn: func(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error) {
				return &models.Category{Base: models.Base{ID: categoryID}, UserID: userID, Name: name, Type: categoryType}, nil
			},
		}, audit)
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"name":"Groceries","type":"expense"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(audit.actions) != 1 || audit.actions[0] != "CREATE_CATEGORY" {
			t.Errorf("expected CREATE_CATEGORY audit entry, got %v", audit.actions)
		}
	})

	t.Run("update and delete are audited", func(t *testing.T) {
		audit := &recordingAuditService{}
		handler := NewCategoryHandler(&mockCategoryService{}, audit)
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+categoryID, `{"name":"Food"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = doRequest(r, "DELETE", "/categories/"+categoryID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}

		if len(audit.actions) != 2 || audit.actions[0] != "UPDATE_CATEGORY" || audit.actions[1] != "DELETE_CATEGORY" {
			t.Errorf("expected UPDATE_CATEGORY then DELETE_CATEGORY, got %v", audit.actions)
		}
	})

	t.Run("failed mutations are not audited", func(t *testing.T) {
		audit := &recordingAuditService{}
		handler := NewCategoryHandler(&mockCategoryService{
			deleteCategoryFn: func(_, _ string) error {
				return apperrors.ErrCategoryInUse
			},
		}, audit)
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+categoryID, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if len(audit.actions) != 0 {
			t.Errorf("expected no audit entries for a failed delete, got %v", audit.actions)
		}
	})
}
