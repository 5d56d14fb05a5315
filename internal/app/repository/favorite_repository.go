package repository

import (
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	Find(userID, restaurantID string) (*model.Favorite, error)
	Create(favorite *model.Favorite) error
	Delete(userID, restaurantID string) (int64, error)
	ListRestaurantIDs(userID string) ([]string, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Find(userID, restaurantID string) (*model.Favorite, error) {
	var favorite model.Favorite
	err := r.db.Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		First(&favorite).Error
	if err != nil {
		return nil, err
	}
	return &favorite, nil
}

func (r *favoriteRepository) Create(favorite *model.Favorite) error {
	if err := r.db.Create(favorite).Error; err != nil {
		logger.Error("Failed to create favorite in database", err, map[string]interface{}{
			"user_id":       favorite.UserID,
			"restaurant_id": favorite.RestaurantID,
		})
		return err
	}
	return nil
}

func (r *favoriteRepository) Delete(userID, restaurantID string) (int64, error) {
	result := r.db.Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).
		Delete(&model.Favorite{})
	if result.Error != nil {
		logger.Error("Failed to delete favorite from database", result.Error, map[string]interface{}{
			"user_id":       userID,
			"restaurant_id": restaurantID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *favoriteRepository) ListRestaurantIDs(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Pluck("restaurant_id", &ids).Error
	if err != nil {
		logger.Error("Failed to list favorite restaurant IDs", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return ids, nil
}
