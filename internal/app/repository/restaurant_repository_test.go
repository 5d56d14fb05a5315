package repository

import (
	"testing"

	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRestaurantTest(t *testing.T) (*gorm.DB, RestaurantRepository, CategoryRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	return testDB, NewRestaurantRepository(testDB), NewCategoryRepository(testDB)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestRestaurantRepository_CreateWithCategories(t *testing.T) {
	testDB, repo, categoryRepo := setupRestaurantTest(t)
	defer db.CleanupTestDB(testDB)

	ramen := createCategory(t, categoryRepo, "ラーメン", "ramen", 1)
	teishoku := createCategory(t, categoryRepo, "定食", "teishoku", 2)

	restaurant := &model.Restaurant{
		Name:     "八丁堀ラーメン",
		Rating:   floatPtr(4.2),
		PriceMin: intPtr(800),
		PriceMax: intPtr(1200),
		Distance: "徒歩3分",
		IsActive: true,
	}

	err := repo.CreateWithCategories(restaurant, []string{teishoku.ID, ramen.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, restaurant.ID)

	found, err := repo.FindByID(restaurant.ID)
	require.NoError(t, err)
	require.Len(t, found.Categories, 2)

	// リンクは選択順で返る。先頭が主カテゴリ
	assert.Equal(t, teishoku.ID, found.Categories[0].CategoryID)
	assert.Equal(t, ramen.ID, found.Categories[1].CategoryID)
	assert.Equal(t, "定食", found.PrimaryCategoryName())
	assert.Equal(t, []string{"teishoku", "ramen"}, found.CategorySlugs())
}

func TestRestaurantRepository_FindActive_ExcludesClosed(t *testing.T) {
	testDB, repo, categoryRepo := setupRestaurantTest(t)
	defer db.CleanupTestDB(testDB)

	ramen := createCategory(t, categoryRepo, "ラーメン", "ramen", 1)

	open := &model.Restaurant{Name: "営業中の店", Rating: floatPtr(4.0), IsActive: true}
	closed := &model.Restaurant{Name: "閉店した店", Rating: floatPtr(4.8), IsActive: false}
	require.NoError(t, repo.CreateWithCategories(open, []string{ramen.ID}))
	require.NoError(t, repo.CreateWithCategories(closed, []string{ramen.ID}))

	active, err := repo.FindActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)

	closedList, err := repo.FindClosed()
	require.NoError(t, err)
	require.Len(t, closedList, 1)
	assert.Equal(t, closed.ID, closedList[0].ID)
}

func TestRestaurantRepository_FindActive_OrderedByRating(t *testing.T) {
	testDB, repo, categoryRepo := setupRestaurantTest(t)
	defer db.CleanupTestDB(testDB)

	ramen := createCategory(t, categoryRepo, "ラーメン", "ramen", 1)

	low := &model.Restaurant{Name: "評価低め", Rating: floatPtr(3.1), IsActive: true}
	high := &model.Restaurant{Name: "評価高め", Rating: floatPtr(4.6), IsActive: true}
	require.NoError(t, repo.CreateWithCategories(low, []string{ramen.ID}))
	require.NoError(t, repo.CreateWithCategories(high, []string{ramen.ID}))

	active, err := repo.FindActive()
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, high.ID, active[0].ID)
	assert.Equal(t, low.ID, active[1].ID)
}

func TestRestaurantRepository_UpdateWithCategories_ReplacesLinks(t *testing.T) {
	testDB, repo, categoryRepo := setupRestaurantTest(t)
	defer db.CleanupTestDB(testDB)

	ramen := createCategory(t, categoryRepo, "ラーメン", "ramen", 1)
	teishoku := createCategory(t, categoryRepo, "定食", "teishoku", 2)
	curry := createCategory(t, categoryRepo, "カレー", "curry", 3)

	restaurant := &model.Restaurant{Name: "八丁堀ラーメン", IsActive: true}
	require.NoError(t, repo.CreateWithCategories(restaurant, []string{ramen.ID, teishoku.ID}))

	updated := &model.Restaurant{
		ID:       restaurant.ID,
		Name:     "八丁堀カレー",
		IsActive: true,
	}
	require.NoError(t, repo.UpdateWithCategories(updated, []string{curry.ID}))

	found, err := repo.FindByID(restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "八丁堀カレー", found.Name)
	require.Len(t, found.Categories, 1)
	assert.Equal(t, curry.ID, found.Categories[0].CategoryID)

	// 旧リンクは残らない
	var linkCount int64
	require.NoError(t, testDB.Model(&model.RestaurantCategory{}).
		Where("restaurant_id = ?", restaurant.ID).Count(&linkCount).Error)
	assert.Equal(t, int64(1), linkCount)
}

func TestRestaurantRepository_UpdateWithCategories_NotFound(t *testing.T) {
	testDB, repo, categoryRepo := setupRestaurantTest(t)
	defer db.CleanupTestDB(testDB)

	ramen := createCategory(t, categoryRepo, "ラーメン", "ramen", 1)

	missing := &model.Restaurant{
		ID:       "00000000-0000-0000-0000-000000000000",
		Name:     "存在しない店",
		IsActive: true,
	}
	err := repo.UpdateWithCategories(missing, []string{ramen.ID})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRestaurantRepository_SetActive(t *testing.T) {
	testDB, repo, categoryRepo := setupRestaurantTest(t)
	defer db.CleanupTestDB(testDB)

	ramen := createCategory(t, categoryRepo, "ラーメン", "ramen", 1)
	restaurant := &model.Restaurant{Name: "八丁堀ラーメン", IsActive: true}
	require.NoError(t, repo.CreateWithCategories(restaurant, []string{ramen.ID}))

	rows, err := repo.SetActive(restaurant.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	found, err := repo.FindByID(restaurant.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	rows, err = repo.SetActive("00000000-0000-0000-0000-000000000000", true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestRestaurantRepository_DeleteCascade(t *testing.T) {
	testDB, repo, categoryRepo := setupRestaurantTest(t)
	defer db.CleanupTestDB(testDB)

	ramen := createCategory(t, categoryRepo, "ラーメン", "ramen", 1)
	restaurant := &model.Restaurant{Name: "八丁堀ラーメン", IsActive: true}
	require.NoError(t, repo.CreateWithCategories(restaurant, []string{ramen.ID}))

	user := &model.User{Email: "taro@example.com", PasswordHash: "x", Name: "太郎"}
	require.NoError(t, testDB.Create(user).Error)
	favoriteRepo := NewFavoriteRepository(testDB)
	require.NoError(t, favoriteRepo.Create(&model.Favorite{
		UserID:       user.ID,
		RestaurantID: restaurant.ID,
	}))

	rows, err := repo.DeleteCascade(restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	_, err = repo.FindByID(restaurant.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var linkCount, favoriteCount int64
	require.NoError(t, testDB.Model(&model.RestaurantCategory{}).
		Where("restaurant_id = ?", restaurant.ID).Count(&linkCount).Error)
	require.NoError(t, testDB.Model(&model.Favorite{}).
		Where("restaurant_id = ?", restaurant.ID).Count(&favoriteCount).Error)
	assert.Zero(t, linkCount)
	assert.Zero(t, favoriteCount)

	// カテゴリー自体は消えない
	_, err = categoryRepo.FindByID(ramen.ID)
	assert.NoError(t, err)

	rows, err = repo.DeleteCascade(restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}
