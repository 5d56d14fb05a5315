package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/internal/cache"
	apperrors "github.com/ksaito/hatchobori-lunch-backend/internal/errors"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryNameTaken = errors.New("category name already in use")
	ErrCategorySlugTaken = errors.New("category slug already in use")
	ErrCategoryDuplicate = errors.New("category name or slug already in use")
)

// CategoryInUseError blocks deletion of a category that restaurants still
// reference. Carries the reference count for the UI.
type CategoryInUseError struct {
	UsageCount int64
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category is used by %d restaurants", e.UsageCount)
}

const (
	categoryNameMaxLength = 15
	categorySlugMaxLength = 30
)

// 小文字英数字をハイフン区切り。先頭・末尾のハイフンは不可
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CategoryService interface {
	ListCategories() []model.Category
	ListCategoriesWithUsage() []model.CategoryWithUsage
	CreateCategory(name, slug string) (*model.Category, error)
	UpdateCategory(id, name, slug string) error
	ReorderCategories(ids []string) error
	DeleteCategory(id string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	cache        cache.Store
}

func NewCategoryService(categoryRepo repository.CategoryRepository, cacheStore cache.Store) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		cache:        cacheStore,
	}
}

// ListCategories returns all categories in display order. The read path
// degrades to an empty list on storage failure instead of failing the page.
func (s *categoryService) ListCategories() []model.Category {
	if data, ok := s.cache.Get(cache.TagCategories, "all"); ok {
		var cached []model.Category
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	categories, err := s.categoryRepo.FindAll()
	if err != nil {
		logger.Error("Failed to fetch categories, returning empty list", err)
		return []model.Category{}
	}

	if data, err := json.Marshal(categories); err == nil {
		s.cache.Set(cache.TagCategories, "all", data)
	}
	return categories
}

// ListCategoriesWithUsage returns categories annotated with the count of
// restaurants referencing each. Degrades to an empty list on failure.
func (s *categoryService) ListCategoriesWithUsage() []model.CategoryWithUsage {
	if data, ok := s.cache.Get(cache.TagCategories, "usage"); ok {
		var cached []model.CategoryWithUsage
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	categories, err := s.categoryRepo.FindAllWithUsage()
	if err != nil {
		logger.Error("Failed to fetch categories with usage, returning empty list", err)
		return []model.CategoryWithUsage{}
	}

	if data, err := json.Marshal(categories); err == nil {
		s.cache.Set(cache.TagCategories, "usage", data)
	}
	return categories
}

func (s *categoryService) CreateCategory(name, slug string) (*model.Category, error) {
	name, slug, err := validateCategoryInput(name, slug)
	if err != nil {
		return nil, err
	}

	// 表示順は既存の最大値 + 1（カテゴリーがなければ 1）
	maxOrder, err := s.categoryRepo.MaxDisplayOrder()
	if err != nil {
		logger.Error("Failed to determine max display order", err)
		return nil, err
	}

	category := &model.Category{
		Name:         name,
		Slug:         slug,
		DisplayOrder: maxOrder + 1,
	}

	if err := s.categoryRepo.Create(category); err != nil {
		return nil, mapCategoryDuplicateError(err)
	}

	logger.Info("Category created successfully", map[string]interface{}{
		"category_id":   category.ID,
		"name":          category.Name,
		"display_order": category.DisplayOrder,
	})

	s.cache.Invalidate(cache.TagCategories)
	return category, nil
}

func (s *categoryService) UpdateCategory(id, name, slug string) error {
	name, slug, err := validateCategoryInput(name, slug)
	if err != nil {
		return err
	}

	rows, err := s.categoryRepo.Update(id, name, slug)
	if err != nil {
		return mapCategoryDuplicateError(err)
	}
	if rows == 0 {
		logger.Warn("Category not found for update", map[string]interface{}{
			"category_id": id,
		})
		return ErrCategoryNotFound
	}

	logger.Info("Category updated successfully", map[string]interface{}{
		"category_id": id,
		"name":        name,
	})

	s.cache.Invalidate(cache.TagCategories)
	return nil
}

// ReorderCategories persists a full reordering: each category's display
// order becomes its index in ids. An empty list is a no-op.
func (s *categoryService) ReorderCategories(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.categoryRepo.UpdateDisplayOrders(ids); err != nil {
		return err
	}

	logger.Info("Category order updated successfully", map[string]interface{}{
		"count": len(ids),
	})

	s.cache.Invalidate(cache.TagCategories)
	return nil
}

func (s *categoryService) DeleteCategory(id string) error {
	usage, err := s.categoryRepo.CountUsage(id)
	if err != nil {
		logger.Error("Failed to count category usage", err, map[string]interface{}{
			"category_id": id,
		})
		return err
	}
	if usage > 0 {
		logger.Warn("Category deletion blocked by existing references", map[string]interface{}{
			"category_id": id,
			"usage_count": usage,
		})
		return &CategoryInUseError{UsageCount: usage}
	}

	rows, err := s.categoryRepo.Delete(id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCategoryNotFound
	}

	logger.Info("Category deleted successfully", map[string]interface{}{
		"category_id": id,
	})

	s.cache.Invalidate(cache.TagCategories)
	return nil
}

func validateCategoryInput(name, slug string) (string, string, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)

	fields := map[string]string{}
	if name == "" {
		fields["name"] = "カテゴリー名を入力してください"
	} else if utf8.RuneCountInString(name) > categoryNameMaxLength {
		fields["name"] = "カテゴリー名は15文字以内で入力してください"
	}

	if slug == "" {
		fields["slug"] = "識別名を入力してください"
	} else if utf8.RuneCountInString(slug) > categorySlugMaxLength {
		fields["slug"] = "識別名は30文字以内で入力してください"
	} else if !slugPattern.MatchString(slug) {
		fields["slug"] = "識別名は小文字の英数字とハイフンのみ使用できます（先頭・末尾のハイフンは不可）"
	}

	if len(fields) > 0 {
		return "", "", newValidationError(fields)
	}
	return name, slug, nil
}

// mapCategoryDuplicateError converts a unique-constraint violation into the
// matching sentinel, based on which constraint fired.
func mapCategoryDuplicateError(err error) error {
	target, ok := apperrors.UniqueViolationTarget(err)
	if !ok {
		return err
	}
	switch target {
	case apperrors.ConstraintCategoryName:
		return ErrCategoryNameTaken
	case apperrors.ConstraintCategorySlug:
		return ErrCategorySlugTaken
	default:
		return ErrCategoryDuplicate
	}
}
