package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
)

type ExtractController struct {
	extractService service.ExtractService
}

func NewExtractController(extractService service.ExtractService) *ExtractController {
	return &ExtractController{
		extractService: extractService,
	}
}

type ExtractRestaurantRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExtractRestaurant extracts restaurant fields from a tabelog page
// POST /api/v1/restaurants/extract
func (ctrl *ExtractController) ExtractRestaurant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ExtractRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid extract request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	result, err := ctrl.extractService.ExtractFromTabelog(req.URL)
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			apperrors.RespondWithValidationError(c, validationErr.Fields)
		case errors.Is(err, service.ErrAINotConfigured):
			log.Warn("Extraction requested but AI is not configured", nil)
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.ChatNotConfigured, "抽出機能は現在利用できません")
		case errors.Is(err, service.ErrExtractPageUnavailable):
			log.Warn("Failed to fetch tabelog page", map[string]interface{}{
				"url":   req.URL,
				"error": err.Error(),
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.ExtractFetchFailed, "食べログページの取得に失敗しました。URLを確認してもう一度お試しください")
		default:
			log.Error("Failed to extract restaurant", err, map[string]interface{}{
				"url": req.URL,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.ExtractFailed, "情報の抽出中にエラーが発生しました")
		}
		return
	}

	log.Info("Restaurant extracted successfully", map[string]interface{}{
		"url":  req.URL,
		"name": result.Restaurant.Name,
	})

	c.JSON(http.StatusOK, gin.H{
		"restaurant":           result.Restaurant,
		"matched_category_ids": result.MatchedCategoryIDs,
		"tabelog_url":          result.TabelogURL,
	})
}
