package service

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/internal/cache"
	"github.com/ksaito/hatchobori-lunch-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

const (
	restaurantNameMaxLength = 255
	distanceMaxLength       = 50
)

// RestaurantInput carries the full editable field set of a restaurant.
type RestaurantInput struct {
	Name         string
	Rating       *float64
	PriceMin     *int
	PriceMax     *int
	Distance     string
	Address      string
	TabelogURL   *string
	WebsiteURL   *string
	GoogleMapURL *string
	Description  string
	ImageURL     string
	IsActive     bool
	CategoryIDs  []string
}

type RestaurantService interface {
	ListActive() []model.Restaurant
	ListClosed() []model.Restaurant
	GetRestaurant(id string) (*model.Restaurant, error)
	CreateRestaurant(input RestaurantInput) (*model.Restaurant, error)
	UpdateRestaurant(id string, input RestaurantInput) (*model.Restaurant, error)
	ToggleActive(id string, isActive bool) error
	DeletePermanently(id string) error
}

type restaurantService struct {
	restaurantRepo repository.RestaurantRepository
	cache          cache.Store
}

func NewRestaurantService(restaurantRepo repository.RestaurantRepository, cacheStore cache.Store) RestaurantService {
	return &restaurantService{
		restaurantRepo: restaurantRepo,
		cache:          cacheStore,
	}
}

// ListActive returns the main feed in rating order. Degrades to an empty
// list on storage failure.
func (s *restaurantService) ListActive() []model.Restaurant {
	return s.listCached("active", s.restaurantRepo.FindActive)
}

// ListClosed returns the closed-restaurants feed.
func (s *restaurantService) ListClosed() []model.Restaurant {
	return s.listCached("closed", s.restaurantRepo.FindClosed)
}

func (s *restaurantService) listCached(key string, fetch func() ([]model.Restaurant, error)) []model.Restaurant {
	if data, ok := s.cache.Get(cache.TagRestaurants, key); ok {
		var cached []model.Restaurant
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	restaurants, err := fetch()
	if err != nil {
		logger.Error("Failed to fetch restaurants, returning empty list", err, map[string]interface{}{
			"feed": key,
		})
		return []model.Restaurant{}
	}

	if data, err := json.Marshal(restaurants); err == nil {
		s.cache.Set(cache.TagRestaurants, key, data)
	}
	return restaurants
}

func (s *restaurantService) GetRestaurant(id string) (*model.Restaurant, error) {
	restaurant, err := s.restaurantRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return restaurant, nil
}

// CreateRestaurant inserts a restaurant with its category links in one
// transaction. At least one category is required.
func (s *restaurantService) CreateRestaurant(input RestaurantInput) (*model.Restaurant, error) {
	if err := validateRestaurantInput(&input); err != nil {
		return nil, err
	}

	restaurant := restaurantFromInput(&input)
	if err := s.restaurantRepo.CreateWithCategories(restaurant, input.CategoryIDs); err != nil {
		return nil, err
	}

	logger.Info("Restaurant created successfully", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"name":          restaurant.Name,
		"categories":    len(input.CategoryIDs),
	})

	s.cache.Invalidate(cache.TagRestaurants)
	s.cache.Invalidate(cache.TagCategories) // 使用数が変わる
	return s.GetRestaurant(restaurant.ID)
}

// UpdateRestaurant saves the field set and replaces the full category-link
// set in one transaction.
func (s *restaurantService) UpdateRestaurant(id string, input RestaurantInput) (*model.Restaurant, error) {
	if err := validateRestaurantInput(&input); err != nil {
		return nil, err
	}

	restaurant := restaurantFromInput(&input)
	restaurant.ID = id
	if err := s.restaurantRepo.UpdateWithCategories(restaurant, input.CategoryIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}

	logger.Info("Restaurant updated successfully", map[string]interface{}{
		"restaurant_id": id,
		"name":          restaurant.Name,
	})

	s.cache.Invalidate(cache.TagRestaurants)
	s.cache.Invalidate(cache.TagCategories)
	return s.GetRestaurant(id)
}

// ToggleActive switches a restaurant between the main feed and the closed
// feed.
func (s *restaurantService) ToggleActive(id string, isActive bool) error {
	rows, err := s.restaurantRepo.SetActive(id, isActive)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRestaurantNotFound
	}

	logger.Info("Restaurant active state toggled", map[string]interface{}{
		"restaurant_id": id,
		"is_active":     isActive,
	})

	s.cache.Invalidate(cache.TagRestaurants)
	return nil
}

// DeletePermanently removes the restaurant and cascades through category
// links and favorites. Irreversible.
func (s *restaurantService) DeletePermanently(id string) error {
	rows, err := s.restaurantRepo.DeleteCascade(id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRestaurantNotFound
	}

	logger.Info("Restaurant deleted permanently", map[string]interface{}{
		"restaurant_id": id,
	})

	s.cache.Invalidate(cache.TagRestaurants)
	s.cache.Invalidate(cache.TagCategories)
	return nil
}

func restaurantFromInput(input *RestaurantInput) *model.Restaurant {
	return &model.Restaurant{
		Name:         input.Name,
		Rating:       input.Rating,
		PriceMin:     input.PriceMin,
		PriceMax:     input.PriceMax,
		Distance:     input.Distance,
		Address:      input.Address,
		TabelogURL:   input.TabelogURL,
		WebsiteURL:   input.WebsiteURL,
		GoogleMapURL: input.GoogleMapURL,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		IsActive:     input.IsActive,
	}
}

func validateRestaurantInput(input *RestaurantInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Distance = strings.TrimSpace(input.Distance)

	fields := map[string]string{}

	if input.Name == "" {
		fields["name"] = "店名は必須です"
	} else if utf8.RuneCountInString(input.Name) > restaurantNameMaxLength {
		fields["name"] = "店名は255文字以内で入力してください"
	}

	if input.Rating != nil && (*input.Rating < 0 || *input.Rating > 5) {
		fields["rating"] = "評価は0.0〜5.0の範囲で入力してください"
	}

	if input.PriceMin != nil && *input.PriceMin < 0 {
		fields["price_min"] = "最低価格は0円以上で入力してください"
	}
	if input.PriceMax != nil && *input.PriceMax < 0 {
		fields["price_max"] = "最高価格は0円以上で入力してください"
	}
	if input.PriceMin != nil && input.PriceMax != nil && *input.PriceMin > *input.PriceMax {
		fields["price_max"] = "最高価格は最低価格以上で入力してください"
	}

	if utf8.RuneCountInString(input.Distance) > distanceMaxLength {
		fields["distance"] = "距離は50文字以内で入力してください"
	}

	for field, value := range map[string]*string{
		"tabelog_url":    input.TabelogURL,
		"website_url":    input.WebsiteURL,
		"google_map_url": input.GoogleMapURL,
	} {
		if value != nil && *value != "" && !isValidURL(*value) {
			fields[field] = "有効なURLを入力してください"
		}
	}

	if len(input.CategoryIDs) == 0 {
		fields["category_ids"] = "カテゴリを最低1つ選択してください"
	}

	if len(fields) > 0 {
		return newValidationError(fields)
	}
	return nil
}

func isValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
