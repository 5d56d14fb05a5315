package service

import (
	"errors"

	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
	"gorm.io/gorm"
)

type FavoriteService interface {
	ToggleFavorite(userID, restaurantID string) (bool, error)
	ListFavoriteRestaurantIDs(userID string) []string
}

type favoriteService struct {
	favoriteRepo   repository.FavoriteRepository
	restaurantRepo repository.RestaurantRepository
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	restaurantRepo repository.RestaurantRepository,
) FavoriteService {
	return &favoriteService{
		favoriteRepo:   favoriteRepo,
		restaurantRepo: restaurantRepo,
	}
}

// ToggleFavorite adds or removes the favorite for (user, restaurant) and
// reports the resulting state: true when the favorite now exists.
func (s *favoriteService) ToggleFavorite(userID, restaurantID string) (bool, error) {
	if _, err := s.restaurantRepo.FindByID(restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot toggle favorite: restaurant not found", map[string]interface{}{
				"user_id":       userID,
				"restaurant_id": restaurantID,
			})
			return false, ErrRestaurantNotFound
		}
		return false, err
	}

	existing, err := s.favoriteRepo.Find(userID, restaurantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing favorite", err, map[string]interface{}{
			"user_id":       userID,
			"restaurant_id": restaurantID,
		})
		return false, err
	}

	if existing != nil {
		if _, err := s.favoriteRepo.Delete(userID, restaurantID); err != nil {
			return false, err
		}
		logger.Info("Favorite removed", map[string]interface{}{
			"user_id":       userID,
			"restaurant_id": restaurantID,
		})
		return false, nil
	}

	favorite := &model.Favorite{
		UserID:       userID,
		RestaurantID: restaurantID,
	}
	if err := s.favoriteRepo.Create(favorite); err != nil {
		// 二重クリック競合: 複合主キーが弾いた場合は追加済みとして扱う
		if _, ok := apperrors.UniqueViolationTarget(err); ok {
			logger.Warn("Favorite already exists, treating as added", map[string]interface{}{
				"user_id":       userID,
				"restaurant_id": restaurantID,
			})
			return true, nil
		}
		return false, err
	}

	logger.Info("Favorite added", map[string]interface{}{
		"user_id":       userID,
		"restaurant_id": restaurantID,
	})
	return true, nil
}

// ListFavoriteRestaurantIDs returns the restaurant IDs the user has
// favorited. Degrades to an empty list on failure.
func (s *favoriteService) ListFavoriteRestaurantIDs(userID string) []string {
	ids, err := s.favoriteRepo.ListRestaurantIDs(userID)
	if err != nil {
		return []string{}
	}
	return ids
}
