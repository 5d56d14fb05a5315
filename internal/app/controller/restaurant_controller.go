package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
)

type RestaurantController struct {
	restaurantService service.RestaurantService
	favoriteService   service.FavoriteService
}

func NewRestaurantController(restaurantService service.RestaurantService, favoriteService service.FavoriteService) *RestaurantController {
	return &RestaurantController{
		restaurantService: restaurantService,
		favoriteService:   favoriteService,
	}
}

type RestaurantRequest struct {
	Name         string   `json:"name" binding:"required"`
	Rating       *float64 `json:"rating"`
	PriceMin     *int     `json:"price_min"`
	PriceMax     *int     `json:"price_max"`
	Distance     string   `json:"distance"`
	Address      string   `json:"address"`
	TabelogURL   *string  `json:"tabelog_url"`
	WebsiteURL   *string  `json:"website_url"`
	GoogleMapURL *string  `json:"google_map_url"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url"`
	IsActive     *bool    `json:"is_active"`
	CategoryIDs  []string `json:"category_ids" binding:"required"`
}

type ToggleActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (req *RestaurantRequest) toInput() service.RestaurantInput {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	return service.RestaurantInput{
		Name:         req.Name,
		Rating:       req.Rating,
		PriceMin:     req.PriceMin,
		PriceMax:     req.PriceMax,
		Distance:     req.Distance,
		Address:      req.Address,
		TabelogURL:   req.TabelogURL,
		WebsiteURL:   req.WebsiteURL,
		GoogleMapURL: req.GoogleMapURL,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		IsActive:     isActive,
		CategoryIDs:  req.CategoryIDs,
	}
}

// GetRestaurants returns active restaurants, filtered by the query parameters:
//   - query:     partial match on name or primary category (case-insensitive)
//   - category:  category slug ("all" or empty matches everything)
//   - favorites: "true" limits to the authenticated user's favorites
//
// GET /api/v1/restaurants
func (ctrl *RestaurantController) GetRestaurants(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	favoritesOnly, _ := strconv.ParseBool(c.DefaultQuery("favorites", "false"))
	opts := service.FilterOptions{
		Query:         c.Query("query"),
		CategorySlug:  c.Query("category"),
		FavoritesOnly: favoritesOnly,
	}

	userID, authenticated := middleware.GetUserID(c)
	if opts.FavoritesOnly && !authenticated {
		apperrors.Unauthorized(c, "ログインが必要です")
		return
	}

	restaurants := ctrl.restaurantService.ListActive()

	favoriteIDs := map[string]bool{}
	if authenticated {
		for _, id := range ctrl.favoriteService.ListFavoriteRestaurantIDs(userID) {
			favoriteIDs[id] = true
		}
	}

	filtered := service.FilterRestaurants(restaurants, opts, favoriteIDs)
	for i := range filtered {
		filtered[i].IsFavorite = favoriteIDs[filtered[i].ID]
	}

	log.Info("Restaurants fetched successfully", map[string]interface{}{
		"count":          len(filtered),
		"query":          opts.Query,
		"category":       opts.CategorySlug,
		"favorites_only": opts.FavoritesOnly,
	})

	c.JSON(http.StatusOK, gin.H{
		"restaurants": filtered,
		"count":       len(filtered),
	})
}

// GetClosedRestaurants returns restaurants marked as closed
// GET /api/v1/restaurants/closed
func (ctrl *RestaurantController) GetClosedRestaurants(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	restaurants := ctrl.restaurantService.ListClosed()

	log.Info("Closed restaurants fetched successfully", map[string]interface{}{
		"count": len(restaurants),
	})

	c.JSON(http.StatusOK, gin.H{
		"restaurants": restaurants,
		"count":       len(restaurants),
	})
}

// GetRestaurantByID returns a restaurant by ID
// GET /api/v1/restaurants/:id
func (ctrl *RestaurantController) GetRestaurantByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	restaurantID := c.Param("id")

	restaurant, err := ctrl.restaurantService.GetRestaurant(restaurantID)
	if err != nil {
		if errors.Is(err, service.ErrRestaurantNotFound) {
			log.Warn("Restaurant not found", map[string]interface{}{
				"restaurant_id": restaurantID,
			})
			apperrors.NotFound(c, apperrors.RestaurantNotFound, "レストランが見つかりませんでした")
			return
		}
		log.Error("Failed to fetch restaurant", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get restaurant")
		return
	}

	if userID, ok := middleware.GetUserID(c); ok {
		for _, id := range ctrl.favoriteService.ListFavoriteRestaurantIDs(userID) {
			if id == restaurant.ID {
				restaurant.IsFavorite = true
				break
			}
		}
	}

	log.Info("Restaurant fetched successfully", map[string]interface{}{
		"restaurant_id": restaurant.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant,
	})
}

// CreateRestaurant registers a new restaurant with at least one category
// POST /api/v1/restaurants
func (ctrl *RestaurantController) CreateRestaurant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid restaurant creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	restaurant, err := ctrl.restaurantService.CreateRestaurant(req.toInput())
	if err != nil {
		ctrl.respondRestaurantError(c, err, "create restaurant", map[string]interface{}{
			"name": req.Name,
		})
		return
	}

	log.Info("Restaurant created successfully", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"name":          restaurant.Name,
		"categories":    len(restaurant.Categories),
	})

	c.JSON(http.StatusCreated, gin.H{
		"restaurant": restaurant,
	})
}

// UpdateRestaurant replaces a restaurant's fields and category links
// PUT /api/v1/restaurants/:id
func (ctrl *RestaurantController) UpdateRestaurant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	restaurantID := c.Param("id")

	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid restaurant update request", map[string]interface{}{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	restaurant, err := ctrl.restaurantService.UpdateRestaurant(restaurantID, req.toInput())
	if err != nil {
		ctrl.respondRestaurantError(c, err, "update restaurant", map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return
	}

	log.Info("Restaurant updated successfully", map[string]interface{}{
		"restaurant_id": restaurant.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant,
	})
}

// ToggleActive switches a restaurant between open and closed
// PATCH /api/v1/restaurants/:id/active
func (ctrl *RestaurantController) ToggleActive(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	restaurantID := c.Param("id")

	var req ToggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid toggle active request", map[string]interface{}{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	if err := ctrl.restaurantService.ToggleActive(restaurantID, req.IsActive); err != nil {
		ctrl.respondRestaurantError(c, err, "update restaurant", map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return
	}

	log.Info("Restaurant active state updated", map[string]interface{}{
		"restaurant_id": restaurantID,
		"is_active":     req.IsActive,
	})

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"is_active": req.IsActive,
	})
}

// DeleteRestaurant permanently removes a restaurant and its related data
// DELETE /api/v1/restaurants/:id
func (ctrl *RestaurantController) DeleteRestaurant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	restaurantID := c.Param("id")

	if err := ctrl.restaurantService.DeletePermanently(restaurantID); err != nil {
		ctrl.respondRestaurantError(c, err, "delete restaurant", map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return
	}

	log.Info("Restaurant deleted permanently", map[string]interface{}{
		"restaurant_id": restaurantID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

func (ctrl *RestaurantController) respondRestaurantError(c *gin.Context, err error, context string, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Warn("Restaurant validation failed", map[string]interface{}{
			"fields": validationErr.Fields,
		})
		apperrors.RespondWithValidationError(c, validationErr.Fields)
	case errors.Is(err, service.ErrRestaurantNotFound):
		log.Warn("Restaurant not found", fields)
		apperrors.NotFound(c, apperrors.RestaurantNotFound, "レストランが見つかりませんでした")
	default:
		log.Error("Restaurant operation failed", err, fields)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}
