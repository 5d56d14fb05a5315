package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
)

type FavoriteController struct {
	favoriteService service.FavoriteService
}

func NewFavoriteController(favoriteService service.FavoriteService) *FavoriteController {
	return &FavoriteController{
		favoriteService: favoriteService,
	}
}

type ToggleFavoriteRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
}

// GetFavorites returns the restaurant IDs the user has marked as favorite
// GET /api/v1/favorites
func (ctrl *FavoriteController) GetFavorites(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "ログインが必要です")
		return
	}

	restaurantIDs := ctrl.favoriteService.ListFavoriteRestaurantIDs(userID)

	log.Info("Favorites fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(restaurantIDs),
	})

	c.JSON(http.StatusOK, gin.H{
		"restaurant_ids": restaurantIDs,
		"count":          len(restaurantIDs),
	})
}

// ToggleFavorite adds or removes a favorite and returns the new state
// POST /api/v1/favorites/toggle
func (ctrl *FavoriteController) ToggleFavorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "ログインが必要です")
		return
	}

	var req ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid toggle favorite request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	isFavorite, err := ctrl.favoriteService.ToggleFavorite(userID, req.RestaurantID)
	if err != nil {
		if errors.Is(err, service.ErrRestaurantNotFound) {
			log.Warn("Restaurant not found for favorite toggle", map[string]interface{}{
				"user_id":       userID,
				"restaurant_id": req.RestaurantID,
			})
			apperrors.NotFound(c, apperrors.RestaurantNotFound, "レストランが見つかりませんでした")
			return
		}
		log.Error("Failed to toggle favorite", err, map[string]interface{}{
			"user_id":       userID,
			"restaurant_id": req.RestaurantID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "toggle favorite")
		return
	}

	log.Info("Favorite toggled successfully", map[string]interface{}{
		"user_id":       userID,
		"restaurant_id": req.RestaurantID,
		"is_favorite":   isFavorite,
	})

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"is_favorite": isFavorite,
	})
}
