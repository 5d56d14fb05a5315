package repository

import (
	"strings"

	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	FindAll() ([]model.Category, error)
	FindAllWithUsage() ([]model.CategoryWithUsage, error)
	FindByID(id string) (*model.Category, error)
	MaxDisplayOrder() (int, error)
	Create(category *model.Category) error
	Update(id, name, slug string) (int64, error)
	UpdateDisplayOrders(ids []string) error
	CountUsage(id string) (int64, error)
	Delete(id string) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) FindAll() ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.Order("display_order ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to find categories in database", err)
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) FindAllWithUsage() ([]model.CategoryWithUsage, error) {
	var results []model.CategoryWithUsage
	err := r.db.Model(&model.Category{}).
		Select("categories.*, count(restaurant_categories.restaurant_id) AS usage_count").
		Joins("LEFT JOIN restaurant_categories ON restaurant_categories.category_id = categories.id").
		Group("categories.id").
		Order("categories.display_order ASC").
		Scan(&results).Error
	if err != nil {
		logger.Error("Failed to find categories with usage in database", err)
		return nil, err
	}
	return results, nil
}

func (r *categoryRepository) FindByID(id string) (*model.Category, error) {
	var category model.Category
	if err := r.db.Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) MaxDisplayOrder() (int, error) {
	var max *int
	err := r.db.Model(&model.Category{}).
		Select("MAX(display_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *categoryRepository) Create(category *model.Category) error {
	logger.Debug("Creating category in database", map[string]interface{}{
		"name": category.Name,
		"slug": category.Slug,
	})

	if err := r.db.Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, map[string]interface{}{
			"name": category.Name,
			"slug": category.Slug,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) Update(id, name, slug string) (int64, error) {
	result := r.db.Model(&model.Category{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name": name,
			"slug": slug,
		})
	if result.Error != nil {
		logger.Error("Failed to update category in database", result.Error, map[string]interface{}{
			"category_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateDisplayOrders assigns display_order = position for every id, in the
// given order, as a single CASE-based UPDATE. Readers never observe a
// partially applied permutation. An empty list is a no-op.
func (r *categoryRepository) UpdateDisplayOrders(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(ids)*2+1)
	sb.WriteString("UPDATE categories SET display_order = CASE id ")
	for i, id := range ids {
		sb.WriteString("WHEN ? THEN ? ")
		args = append(args, id, i)
	}
	sb.WriteString("END WHERE id IN (?)")
	args = append(args, ids)

	if err := r.db.Exec(sb.String(), args...).Error; err != nil {
		logger.Error("Failed to update category display orders", err, map[string]interface{}{
			"count": len(ids),
		})
		return err
	}
	return nil
}

func (r *categoryRepository) CountUsage(id string) (int64, error) {
	var count int64
	err := r.db.Model(&model.RestaurantCategory{}).
		Where("category_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *categoryRepository) Delete(id string) (int64, error) {
	result := r.db.Where("id = ?", id).Delete(&model.Category{})
	if result.Error != nil {
		logger.Error("Failed to delete category from database", result.Error, map[string]interface{}{
			"category_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
