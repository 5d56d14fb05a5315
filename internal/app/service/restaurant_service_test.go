package service

import (
	"strings"
	"testing"

	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/internal/cache"
	"github.com/ksaito/hatchobori-lunch-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRestaurantServiceTest(t *testing.T) (*gorm.DB, RestaurantService, []string) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	categoryRepo := repository.NewCategoryRepository(testDB)
	names := []struct{ name, slug string }{
		{"ラーメン", "ramen"},
		{"定食", "teishoku"},
	}
	categoryIDs := make([]string, 0, len(names))
	for i, n := range names {
		category := &model.Category{Name: n.name, Slug: n.slug, DisplayOrder: i + 1}
		require.NoError(t, categoryRepo.Create(category))
		categoryIDs = append(categoryIDs, category.ID)
	}

	svc := NewRestaurantService(repository.NewRestaurantRepository(testDB), cache.NewNoop())
	return testDB, svc, categoryIDs
}

func validRestaurantInput(categoryIDs []string) RestaurantInput {
	rating := 4.2
	priceMin := 800
	priceMax := 1200
	return RestaurantInput{
		Name:        "八丁堀ラーメン",
		Rating:      &rating,
		PriceMin:    &priceMin,
		PriceMax:    &priceMax,
		Distance:    "徒歩3分",
		Address:     "東京都中央区八丁堀1-1-1",
		Description: "昔ながらの醤油ラーメン",
		IsActive:    true,
		CategoryIDs: categoryIDs,
	}
}

func TestRestaurantService_CreateRestaurant(t *testing.T) {
	testDB, svc, categoryIDs := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	restaurant, err := svc.CreateRestaurant(validRestaurantInput(categoryIDs))
	require.NoError(t, err)
	assert.NotEmpty(t, restaurant.ID)
	assert.Equal(t, "八丁堀ラーメン", restaurant.Name)
	require.Len(t, restaurant.Categories, 2)
	assert.Equal(t, "ラーメン", restaurant.PrimaryCategoryName())
}

func TestRestaurantService_CreateRestaurant_RequiresCategory(t *testing.T) {
	testDB, svc, _ := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	input := validRestaurantInput(nil)

	_, err := svc.CreateRestaurant(input)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "category_ids")
}

func TestRestaurantService_CreateRestaurant_Validation(t *testing.T) {
	testDB, svc, categoryIDs := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	badRating := 5.5
	negativePrice := -100
	priceMin := 2000
	priceMax := 1000
	badURL := "not-a-url"

	tests := []struct {
		name      string
		mutate    func(*RestaurantInput)
		wantField string
	}{
		{"Empty name", func(in *RestaurantInput) { in.Name = "   " }, "name"},
		{"Name too long", func(in *RestaurantInput) { in.Name = strings.Repeat("あ", 256) }, "name"},
		{"Rating out of range", func(in *RestaurantInput) { in.Rating = &badRating }, "rating"},
		{"Negative price", func(in *RestaurantInput) { in.PriceMin = &negativePrice }, "price_min"},
		{"Min above max", func(in *RestaurantInput) { in.PriceMin = &priceMin; in.PriceMax = &priceMax }, "price_max"},
		{"Distance too long", func(in *RestaurantInput) { in.Distance = strings.Repeat("あ", 51) }, "distance"},
		{"Invalid tabelog URL", func(in *RestaurantInput) { in.TabelogURL = &badURL }, "tabelog_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRestaurantInput(categoryIDs)
			tt.mutate(&input)

			_, err := svc.CreateRestaurant(input)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tt.wantField)
		})
	}
}

func TestRestaurantService_GetRestaurant_NotFound(t *testing.T) {
	testDB, svc, _ := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.GetRestaurant("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestRestaurantService_UpdateRestaurant_ReplacesCategories(t *testing.T) {
	testDB, svc, categoryIDs := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	created, err := svc.CreateRestaurant(validRestaurantInput(categoryIDs))
	require.NoError(t, err)

	input := validRestaurantInput(categoryIDs[1:2])
	input.Name = "八丁堀食堂"

	updated, err := svc.UpdateRestaurant(created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "八丁堀食堂", updated.Name)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, "定食", updated.PrimaryCategoryName())
}

func TestRestaurantService_UpdateRestaurant_NotFound(t *testing.T) {
	testDB, svc, categoryIDs := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.UpdateRestaurant("00000000-0000-0000-0000-000000000000", validRestaurantInput(categoryIDs))
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestRestaurantService_ToggleActive(t *testing.T) {
	testDB, svc, categoryIDs := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	restaurant, err := svc.CreateRestaurant(validRestaurantInput(categoryIDs))
	require.NoError(t, err)

	require.NoError(t, svc.ToggleActive(restaurant.ID, false))

	assert.Empty(t, svc.ListActive())
	closed := svc.ListClosed()
	require.Len(t, closed, 1)
	assert.Equal(t, restaurant.ID, closed[0].ID)

	// 再オープン
	require.NoError(t, svc.ToggleActive(restaurant.ID, true))
	assert.Len(t, svc.ListActive(), 1)
	assert.Empty(t, svc.ListClosed())
}

func TestRestaurantService_ToggleActive_NotFound(t *testing.T) {
	testDB, svc, _ := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	err := svc.ToggleActive("00000000-0000-0000-0000-000000000000", false)
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestRestaurantService_DeletePermanently(t *testing.T) {
	testDB, svc, categoryIDs := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	restaurant, err := svc.CreateRestaurant(validRestaurantInput(categoryIDs))
	require.NoError(t, err)

	user := &model.User{Email: "taro@example.com", PasswordHash: "x", Name: "太郎"}
	require.NoError(t, testDB.Create(user).Error)
	require.NoError(t, testDB.Create(&model.Favorite{
		UserID:       user.ID,
		RestaurantID: restaurant.ID,
	}).Error)

	require.NoError(t, svc.DeletePermanently(restaurant.ID))

	_, err = svc.GetRestaurant(restaurant.ID)
	assert.ErrorIs(t, err, ErrRestaurantNotFound)

	// 関連データも残らない
	var linkCount, favoriteCount int64
	require.NoError(t, testDB.Model(&model.RestaurantCategory{}).
		Where("restaurant_id = ?", restaurant.ID).Count(&linkCount).Error)
	require.NoError(t, testDB.Model(&model.Favorite{}).
		Where("restaurant_id = ?", restaurant.ID).Count(&favoriteCount).Error)
	assert.Zero(t, linkCount)
	assert.Zero(t, favoriteCount)
}

func TestRestaurantService_DeletePermanently_NotFound(t *testing.T) {
	testDB, svc, _ := setupRestaurantServiceTest(t)
	defer db.CleanupTestDB(testDB)

	err := svc.DeletePermanently("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}
