package repository

import (
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
	"gorm.io/gorm"
)

type RestaurantRepository interface {
	FindActive() ([]model.Restaurant, error)
	FindClosed() ([]model.Restaurant, error)
	FindByID(id string) (*model.Restaurant, error)
	CreateWithCategories(restaurant *model.Restaurant, categoryIDs []string) error
	UpdateWithCategories(restaurant *model.Restaurant, categoryIDs []string) error
	SetActive(id string, isActive bool) (int64, error)
	DeleteCascade(id string) (int64, error)
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

// preloadCategories loads category links in insertion order so the first
// entry is the primary category.
func preloadCategories(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("restaurant_categories.position ASC")
		}).
		Preload("Categories.Category")
}

func (r *restaurantRepository) FindActive() ([]model.Restaurant, error) {
	var restaurants []model.Restaurant
	err := preloadCategories(r.db).
		Where("is_active = ?", true).
		Order("rating DESC").
		Find(&restaurants).Error
	if err != nil {
		logger.Error("Failed to find active restaurants in database", err)
		return nil, err
	}
	return restaurants, nil
}

func (r *restaurantRepository) FindClosed() ([]model.Restaurant, error) {
	var restaurants []model.Restaurant
	err := preloadCategories(r.db).
		Where("is_active = ?", false).
		Order("updated_at DESC").
		Find(&restaurants).Error
	if err != nil {
		logger.Error("Failed to find closed restaurants in database", err)
		return nil, err
	}
	return restaurants, nil
}

func (r *restaurantRepository) FindByID(id string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	err := preloadCategories(r.db).
		Where("id = ?", id).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// CreateWithCategories inserts the restaurant and its category links in one
// transaction.
func (r *restaurantRepository) CreateWithCategories(restaurant *model.Restaurant, categoryIDs []string) error {
	logger.Debug("Creating restaurant in database", map[string]interface{}{
		"name":       restaurant.Name,
		"categories": len(categoryIDs),
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(restaurant).Error; err != nil {
			logger.Error("Failed to create restaurant in database", err, map[string]interface{}{
				"name": restaurant.Name,
			})
			return err
		}

		links := buildCategoryLinks(restaurant.ID, categoryIDs)
		if err := tx.Create(&links).Error; err != nil {
			logger.Error("Failed to create restaurant category links", err, map[string]interface{}{
				"restaurant_id": restaurant.ID,
			})
			return err
		}
		return nil
	})
}

// UpdateWithCategories saves the restaurant fields and replaces its full
// category-link set (delete all, then insert) in one transaction.
func (r *restaurantRepository) UpdateWithCategories(restaurant *model.Restaurant, categoryIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Restaurant
		if err := tx.Where("id = ?", restaurant.ID).First(&existing).Error; err != nil {
			return err
		}

		restaurant.CreatedAt = existing.CreatedAt
		if err := tx.Save(restaurant).Error; err != nil {
			logger.Error("Failed to update restaurant in database", err, map[string]interface{}{
				"restaurant_id": restaurant.ID,
			})
			return err
		}

		if err := tx.Where("restaurant_id = ?", restaurant.ID).
			Delete(&model.RestaurantCategory{}).Error; err != nil {
			return err
		}

		links := buildCategoryLinks(restaurant.ID, categoryIDs)
		if err := tx.Create(&links).Error; err != nil {
			logger.Error("Failed to replace restaurant category links", err, map[string]interface{}{
				"restaurant_id": restaurant.ID,
			})
			return err
		}
		return nil
	})
}

func buildCategoryLinks(restaurantID string, categoryIDs []string) []model.RestaurantCategory {
	links := make([]model.RestaurantCategory, 0, len(categoryIDs))
	for i, categoryID := range categoryIDs {
		links = append(links, model.RestaurantCategory{
			RestaurantID: restaurantID,
			CategoryID:   categoryID,
			Position:     i,
		})
	}
	return links
}

func (r *restaurantRepository) SetActive(id string, isActive bool) (int64, error) {
	result := r.db.Model(&model.Restaurant{}).
		Where("id = ?", id).
		Update("is_active", isActive)
	if result.Error != nil {
		logger.Error("Failed to update restaurant active state", result.Error, map[string]interface{}{
			"restaurant_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteCascade permanently removes the restaurant together with its
// category links and favorites in one transaction.
func (r *restaurantRepository) DeleteCascade(id string) (int64, error) {
	var rowsAffected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", id).Delete(&model.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&model.RestaurantCategory{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&model.Restaurant{})
		if result.Error != nil {
			return result.Error
		}
		rowsAffected = result.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to delete restaurant from database", err, map[string]interface{}{
			"restaurant_id": id,
		})
		return 0, err
	}
	return rowsAffected, nil
}
