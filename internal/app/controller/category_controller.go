package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/service"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type ReorderCategoriesRequest struct {
	CategoryIDs []string `json:"category_ids"`
}

// GetCategories returns all categories in display order
// GET /api/v1/categories
func (ctrl *CategoryController) GetCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories := ctrl.categoryService.ListCategories()

	log.Info("Categories fetched successfully", map[string]interface{}{
		"count": len(categories),
	})

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategoriesWithUsage returns all categories with restaurant counts
// GET /api/v1/categories/usage
func (ctrl *CategoryController) GetCategoriesWithUsage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories := ctrl.categoryService.ListCategoriesWithUsage()

	log.Info("Categories with usage fetched successfully", map[string]interface{}{
		"count": len(categories),
	})

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// CreateCategory creates a new category at the end of the display order
// POST /api/v1/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid category creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	category, err := ctrl.categoryService.CreateCategory(req.Name, req.Slug)
	if err != nil {
		ctrl.respondCategoryError(c, err, "create category", map[string]interface{}{
			"name": req.Name,
			"slug": req.Slug,
		})
		return
	}

	log.Info("Category created successfully", map[string]interface{}{
		"category_id":   category.ID,
		"name":          category.Name,
		"slug":          category.Slug,
		"display_order": category.DisplayOrder,
	})

	c.JSON(http.StatusCreated, gin.H{
		"category": category,
	})
}

// UpdateCategory renames a category
// PUT /api/v1/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	categoryID := c.Param("id")

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid category update request", map[string]interface{}{
			"category_id": categoryID,
			"error":       err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	if err := ctrl.categoryService.UpdateCategory(categoryID, req.Name, req.Slug); err != nil {
		ctrl.respondCategoryError(c, err, "update category", map[string]interface{}{
			"category_id": categoryID,
			"name":        req.Name,
			"slug":        req.Slug,
		})
		return
	}

	log.Info("Category updated successfully", map[string]interface{}{
		"category_id": categoryID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// ReorderCategories replaces the display order of all listed categories.
// The order of IDs in the request becomes the new display order.
// PUT /api/v1/categories/order
func (ctrl *CategoryController) ReorderCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ReorderCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid category reorder request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "入力内容が正しくありません")
		return
	}

	if err := ctrl.categoryService.ReorderCategories(req.CategoryIDs); err != nil {
		log.Error("Failed to reorder categories", err, map[string]interface{}{
			"count": len(req.CategoryIDs),
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update category order")
		return
	}

	log.Info("Categories reordered successfully", map[string]interface{}{
		"count": len(req.CategoryIDs),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// DeleteCategory deletes an unused category
// DELETE /api/v1/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	categoryID := c.Param("id")

	if err := ctrl.categoryService.DeleteCategory(categoryID); err != nil {
		var inUseErr *service.CategoryInUseError
		if errors.As(err, &inUseErr) {
			log.Warn("Category deletion blocked: still in use", map[string]interface{}{
				"category_id": categoryID,
				"usage_count": inUseErr.UsageCount,
			})
			c.JSON(http.StatusConflict, gin.H{
				"error":       apperrors.CategoryInUse,
				"message":     "このカテゴリーを使用しているレストランがあるため削除できません",
				"usage_count": inUseErr.UsageCount,
			})
			return
		}
		ctrl.respondCategoryError(c, err, "delete category", map[string]interface{}{
			"category_id": categoryID,
		})
		return
	}

	log.Info("Category deleted successfully", map[string]interface{}{
		"category_id": categoryID,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// respondCategoryError maps service errors to HTTP responses.
func (ctrl *CategoryController) respondCategoryError(c *gin.Context, err error, context string, fields map[string]interface{}) {
	log := middleware.GetLoggerFromContext(c)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Warn("Category validation failed", map[string]interface{}{
			"fields": validationErr.Fields,
		})
		apperrors.RespondWithValidationError(c, validationErr.Fields)
	case errors.Is(err, service.ErrCategoryNotFound):
		log.Warn("Category not found", fields)
		apperrors.NotFound(c, apperrors.CategoryNotFound, "カテゴリーが見つかりませんでした")
	case errors.Is(err, service.ErrCategoryNameTaken):
		log.Warn("Category name already exists", fields)
		apperrors.Conflict(c, apperrors.CategoryNameExists, "このカテゴリー名は既に使用されています")
	case errors.Is(err, service.ErrCategorySlugTaken):
		log.Warn("Category slug already exists", fields)
		apperrors.Conflict(c, apperrors.CategorySlugExists, "この識別名は既に使用されています")
	case errors.Is(err, service.ErrCategoryDuplicate):
		log.Warn("Duplicate category", fields)
		apperrors.Conflict(c, apperrors.CategoryDuplicate, "同じ名前または識別名のカテゴリーが既に存在します")
	default:
		log.Error("Category operation failed", err, fields)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
	}
}
