package db

import (
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Category{},
		&model.Restaurant{},
		&model.RestaurantCategory{},
		&model.Favorite{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds the starter category set if no categories exist yet.
func Seed() error {
	var count int64
	if err := DB.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Categories already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding default categories...")

	// 八丁堀ランチの定番ジャンル
	defaults := []model.Category{
		{Name: "ラーメン", Slug: "ramen", DisplayOrder: 1},
		{Name: "定食", Slug: "teishoku", DisplayOrder: 2},
		{Name: "カレー", Slug: "curry", DisplayOrder: 3},
		{Name: "寿司・海鮮", Slug: "sushi", DisplayOrder: 4},
		{Name: "カフェ", Slug: "cafe", DisplayOrder: 5},
		{Name: "中華", Slug: "chinese", DisplayOrder: 6},
		{Name: "イタリアン", Slug: "italian", DisplayOrder: 7},
	}

	if err := DB.Create(&defaults).Error; err != nil {
		logger.Error("Failed to seed default categories", err)
		return err
	}

	logger.Info("Default categories seeded successfully", map[string]interface{}{
		"count": len(defaults),
	})
	return nil
}
