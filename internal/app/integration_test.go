package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/controller"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	"github.com/ksaito/hatchobori-lunch-backend/internal/cache"
	"github.com/ksaito/hatchobori-lunch-backend/internal/db"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	restaurantRepo := repository.NewRestaurantRepository(testDB)
	favoriteRepo := repository.NewFavoriteRepository(testDB)

	cacheStore := cache.NewNoop()

	authService := service.NewAuthService(
		userRepo,
		"test-secret",
		15*time.Minute,
		7*24*time.Hour,
	)
	categoryService := service.NewCategoryService(categoryRepo, cacheStore)
	restaurantService := service.NewRestaurantService(restaurantRepo, cacheStore)
	favoriteService := service.NewFavoriteService(favoriteRepo, restaurantRepo)

	authController := controller.NewAuthController(authService)
	categoryController := controller.NewCategoryController(categoryService)
	restaurantController := controller.NewRestaurantController(restaurantService, favoriteService)
	favoriteController := controller.NewFavoriteController(favoriteService)

	authMiddleware := middleware.NewAuthMiddleware("test-secret", userRepo)

	router := gin.New()

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.GET("/me", authMiddleware.Authenticate(), authController.GetMe)
		auth.PUT("/me", authMiddleware.Authenticate(), authController.UpdateMe)
	}

	categories := router.Group("/api/v1/categories")
	{
		categories.GET("", categoryController.GetCategories)
		categories.GET("/usage", categoryController.GetCategoriesWithUsage)
		categories.POST("", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), categoryController.CreateCategory)
		categories.PUT("/order", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), categoryController.ReorderCategories)
		categories.PUT("/:id", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), categoryController.UpdateCategory)
		categories.DELETE("/:id", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), categoryController.DeleteCategory)
	}

	restaurants := router.Group("/api/v1/restaurants")
	{
		restaurants.GET("", authMiddleware.OptionalAuthenticate(), restaurantController.GetRestaurants)
		restaurants.GET("/closed", restaurantController.GetClosedRestaurants)
		restaurants.GET("/:id", authMiddleware.OptionalAuthenticate(), restaurantController.GetRestaurantByID)
		restaurants.POST("", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), restaurantController.CreateRestaurant)
		restaurants.PUT("/:id", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), restaurantController.UpdateRestaurant)
		restaurants.PATCH("/:id/active", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), restaurantController.ToggleActive)
		restaurants.DELETE("/:id", authMiddleware.Authenticate(), authMiddleware.RequireCompanyEmail(), restaurantController.DeleteRestaurant)
	}

	favorites := router.Group("/api/v1/favorites")
	favorites.Use(authMiddleware.Authenticate())
	{
		favorites.GET("", favoriteController.GetFavorites)
		favorites.POST("/toggle", favoriteController.ToggleFavorite)
	}

	return &TestServer{
		Router: router,
		DB:     testDB,
	}
}

func (ts *TestServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonBody)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// registerEditor registers a user and gives them a company email so they can
// edit categories and restaurants.
func (ts *TestServer) registerEditor(t *testing.T, email string) string {
	w := ts.request(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     "編集担当",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeBody(t, w)
	tokens := resp["tokens"].(map[string]interface{})
	token := tokens["access_token"].(string)

	companyEmail := "staff@hatchobori-lunch.jp"
	w = ts.request(t, "PUT", "/api/v1/auth/me", token, map[string]interface{}{
		"name":          "編集担当",
		"company_email": companyEmail,
	})
	require.Equal(t, http.StatusOK, w.Code)

	user := decodeBody(t, w)["user"].(map[string]interface{})
	require.Equal(t, true, user["can_edit"])

	return token
}

func TestRestaurantDirectoryJourney(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	// 1. 編集担当ユーザーを登録して会社メールを設定
	t.Log("Step 1: Register editor")
	token := ts.registerEditor(t, "editor@example.com")

	// 2. カテゴリーを作成
	t.Log("Step 2: Create categories")
	w := ts.request(t, "POST", "/api/v1/categories", token, map[string]string{
		"name": "ラーメン",
		"slug": "ramen",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	ramen := decodeBody(t, w)["category"].(map[string]interface{})
	ramenID := ramen["id"].(string)

	w = ts.request(t, "POST", "/api/v1/categories", token, map[string]string{
		"name": "定食",
		"slug": "teishoku",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	teishoku := decodeBody(t, w)["category"].(map[string]interface{})
	assert.Equal(t, float64(2), teishoku["display_order"])

	// 3. レストランを登録
	t.Log("Step 3: Create restaurant")
	w = ts.request(t, "POST", "/api/v1/restaurants", token, map[string]interface{}{
		"name":         "八丁堀ラーメン",
		"rating":       4.2,
		"price_min":    800,
		"price_max":    1200,
		"distance":     "徒歩3分",
		"address":      "東京都中央区八丁堀1-1-1",
		"category_ids": []string{ramenID},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	restaurant := decodeBody(t, w)["restaurant"].(map[string]interface{})
	restaurantID := restaurant["id"].(string)

	// 4. カテゴリーで絞り込み検索
	t.Log("Step 4: Browse with category filter")
	w = ts.request(t, "GET", "/api/v1/restaurants?category=ramen", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = ts.request(t, "GET", "/api/v1/restaurants?category=teishoku", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	// 5. お気に入りに登録
	t.Log("Step 5: Toggle favorite")
	w = ts.request(t, "POST", "/api/v1/favorites/toggle", token, map[string]string{
		"restaurant_id": restaurantID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["is_favorite"])

	// 6. お気に入りのみで絞り込み
	t.Log("Step 6: Browse favorites only")
	w = ts.request(t, "GET", "/api/v1/restaurants?favorites=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, float64(1), resp["count"])
	first := resp["restaurants"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, first["is_favorite"])

	// 7. 使用中カテゴリーの削除は拒否される
	t.Log("Step 7: Delete of in-use category is blocked")
	w = ts.request(t, "DELETE", "/api/v1/categories/"+ramenID, token, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["usage_count"])

	// 8. 閉店にすると一覧から消えて閉店リストに移る
	t.Log("Step 8: Mark restaurant as closed")
	w = ts.request(t, "PATCH", "/api/v1/restaurants/"+restaurantID+"/active", token, map[string]bool{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, "GET", "/api/v1/restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	w = ts.request(t, "GET", "/api/v1/restaurants/closed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	// 9. 完全削除でお気に入りも消える
	t.Log("Step 9: Delete restaurant permanently")
	w = ts.request(t, "DELETE", "/api/v1/restaurants/"+restaurantID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, "GET", "/api/v1/favorites", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	// 使われなくなったカテゴリーは削除できる
	w = ts.request(t, "DELETE", "/api/v1/categories/"+ramenID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCompanyEmailGate(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	// 会社メールを登録していないユーザー
	w := ts.request(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    "viewer@example.com",
		"password": "password123",
		"name":     "閲覧者",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	tokens := decodeBody(t, w)["tokens"].(map[string]interface{})
	token := tokens["access_token"].(string)

	w = ts.request(t, "POST", "/api/v1/categories", token, map[string]string{
		"name": "ラーメン",
		"slug": "ramen",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.request(t, "POST", "/api/v1/restaurants", token, map[string]interface{}{
		"name":         "八丁堀ラーメン",
		"category_ids": []string{"some-id"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 閲覧とお気に入りは会社メールなしでも使える
	w = ts.request(t, "GET", "/api/v1/restaurants", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, "GET", "/api/v1/favorites", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticationFlow(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	w := ts.request(t, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":    "taro@example.com",
		"password": "password123",
		"name":     "太郎",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.request(t, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    "taro@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decodeBody(t, w)["tokens"].(map[string]interface{})
	accessToken := tokens["access_token"].(string)

	w = ts.request(t, "GET", "/api/v1/auth/me", accessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "taro@example.com", user["email"])
	assert.Equal(t, "太郎", user["name"])
	assert.Equal(t, false, user["can_edit"])
}

func TestUnauthorizedAccess(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/auth/me"},
		{"GET", "/api/v1/favorites"},
		{"GET", "/api/v1/restaurants?favorites=true"},
		{"POST", "/api/v1/categories"},
		{"POST", "/api/v1/restaurants"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := ts.request(t, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
