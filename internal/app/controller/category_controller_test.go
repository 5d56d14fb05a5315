package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	"github.com/ksaito/hatchobori-lunch-backend/internal/cache"
	"github.com/ksaito/hatchobori-lunch-backend/internal/db"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCategoryControllerTest(t *testing.T) (*CategoryController, *gin.Engine, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	categoryRepo := repository.NewCategoryRepository(testDB)
	categoryService := service.NewCategoryService(categoryRepo, cache.NewNoop())
	categoryController := NewCategoryController(categoryService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return categoryController, router, testDB
}

func createTestCategory(t *testing.T, testDB *gorm.DB, name, slug string, order int) *model.Category {
	category := &model.Category{Name: name, Slug: slug, DisplayOrder: order}
	require.NoError(t, testDB.Create(category).Error)
	return category
}

func TestCategoryController_GetCategories(t *testing.T) {
	controller, router, testDB := setupCategoryControllerTest(t)

	createTestCategory(t, testDB, "定食", "teishoku", 2)
	createTestCategory(t, testDB, "ラーメン", "ramen", 1)

	router.GET("/categories", controller.GetCategories)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	categories := response["categories"].([]interface{})
	require.Len(t, categories, 2)
	assert.Equal(t, float64(2), response["count"])

	// display_order 昇順で返る
	first := categories[0].(map[string]interface{})
	assert.Equal(t, "ラーメン", first["name"])
}

func TestCategoryController_GetCategories_Empty(t *testing.T) {
	controller, router, _ := setupCategoryControllerTest(t)

	router.GET("/categories", controller.GetCategories)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Empty(t, response["categories"])
	assert.Equal(t, float64(0), response["count"])
}

func TestCategoryController_CreateCategory_Success(t *testing.T) {
	controller, router, _ := setupCategoryControllerTest(t)

	router.POST("/categories", controller.CreateCategory)

	reqBody := CreateCategoryRequest{Name: "カフェ", Slug: "cafe"}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/categories", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	categoryData := response["category"].(map[string]interface{})
	assert.Equal(t, "カフェ", categoryData["name"])
	assert.Equal(t, "cafe", categoryData["slug"])
	assert.Equal(t, float64(1), categoryData["display_order"])
}

func TestCategoryController_CreateCategory_InvalidRequest(t *testing.T) {
	controller, router, testDB := setupCategoryControllerTest(t)

	createTestCategory(t, testDB, "ラーメン", "ramen", 1)

	router.POST("/categories", controller.CreateCategory)

	tests := []struct {
		name       string
		reqBody    map[string]interface{}
		wantStatus int
		wantError  string
	}{
		{
			name:       "Missing name",
			reqBody:    map[string]interface{}{"slug": "cafe"},
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ValidationInvalidInput,
		},
		{
			name:       "Missing slug",
			reqBody:    map[string]interface{}{"name": "カフェ"},
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ValidationInvalidInput,
		},
		{
			name:       "Invalid slug format",
			reqBody:    map[string]interface{}{"name": "カフェ", "slug": "Cafe!"},
			wantStatus: http.StatusBadRequest,
			wantError:  apperrors.ValidationInvalidInput,
		},
		{
			name:       "Duplicate name",
			reqBody:    map[string]interface{}{"name": "ラーメン", "slug": "noodles"},
			wantStatus: http.StatusConflict,
			wantError:  apperrors.CategoryNameExists,
		},
		{
			name:       "Duplicate slug",
			reqBody:    map[string]interface{}{"name": "拉麺", "slug": "ramen"},
			wantStatus: http.StatusConflict,
			wantError:  apperrors.CategorySlugExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tt.reqBody)
			req := httptest.NewRequest(http.MethodPost, "/categories", bytes.NewBuffer(jsonBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			require.NoError(t, err)

			assert.Equal(t, tt.wantError, response["error"])
		})
	}
}

func TestCategoryController_UpdateCategory_Success(t *testing.T) {
	controller, router, testDB := setupCategoryControllerTest(t)

	category := createTestCategory(t, testDB, "ラーメン", "ramen", 1)

	router.PUT("/categories/:id", controller.UpdateCategory)

	reqBody := UpdateCategoryRequest{Name: "拉麺", Slug: "noodles"}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPut, "/categories/"+category.ID, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, true, response["success"])

	var updated model.Category
	require.NoError(t, testDB.First(&updated, "id = ?", category.ID).Error)
	assert.Equal(t, "拉麺", updated.Name)
	assert.Equal(t, "noodles", updated.Slug)
}

func TestCategoryController_UpdateCategory_NotFound(t *testing.T) {
	controller, router, _ := setupCategoryControllerTest(t)

	router.PUT("/categories/:id", controller.UpdateCategory)

	reqBody := UpdateCategoryRequest{Name: "拉麺", Slug: "noodles"}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPut, "/categories/00000000-0000-0000-0000-000000000000", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, apperrors.CategoryNotFound, response["error"])
}

func TestCategoryController_ReorderCategories(t *testing.T) {
	controller, router, testDB := setupCategoryControllerTest(t)

	c1 := createTestCategory(t, testDB, "ラーメン", "ramen", 1)
	c2 := createTestCategory(t, testDB, "定食", "teishoku", 2)
	c3 := createTestCategory(t, testDB, "カフェ", "cafe", 3)

	router.PUT("/categories/order", controller.ReorderCategories)

	reqBody := ReorderCategoriesRequest{CategoryIDs: []string{c3.ID, c1.ID, c2.ID}}
	jsonBody, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPut, "/categories/order", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var categories []model.Category
	require.NoError(t, testDB.Order("display_order ASC").Find(&categories).Error)
	require.Len(t, categories, 3)
	assert.Equal(t, c3.ID, categories[0].ID)
	assert.Equal(t, c1.ID, categories[1].ID)
	assert.Equal(t, c2.ID, categories[2].ID)
}

func TestCategoryController_DeleteCategory_Success(t *testing.T) {
	controller, router, testDB := setupCategoryControllerTest(t)

	category := createTestCategory(t, testDB, "カフェ", "cafe", 1)

	router.DELETE("/categories/:id", controller.DeleteCategory)

	req := httptest.NewRequest(http.MethodDelete, "/categories/"+category.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, testDB.Model(&model.Category{}).Where("id = ?", category.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCategoryController_DeleteCategory_InUse(t *testing.T) {
	controller, router, testDB := setupCategoryControllerTest(t)

	category := createTestCategory(t, testDB, "ラーメン", "ramen", 1)

	restaurantRepo := repository.NewRestaurantRepository(testDB)
	restaurant := &model.Restaurant{Name: "八丁堀ラーメン", IsActive: true}
	require.NoError(t, restaurantRepo.CreateWithCategories(restaurant, []string{category.ID}))

	router.DELETE("/categories/:id", controller.DeleteCategory)

	req := httptest.NewRequest(http.MethodDelete, "/categories/"+category.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, apperrors.CategoryInUse, response["error"])
	assert.Equal(t, float64(1), response["usage_count"])

	// カテゴリー自体は残っている
	var count int64
	require.NoError(t, testDB.Model(&model.Category{}).Where("id = ?", category.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
