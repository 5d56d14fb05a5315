package service

import (
	"strings"

	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
)

// CategorySlugAll matches every restaurant regardless of its categories.
const CategorySlugAll = "all"

// FilterOptions are the criteria for narrowing a restaurant list.
type FilterOptions struct {
	Query         string // 店名または主カテゴリ名の部分一致（大文字小文字の区別なし）
	CategorySlug  string // "all" または空で全件
	FavoritesOnly bool
}

// FilterRestaurants returns the subset of restaurants matching all three
// predicates, preserving the original relative order. Pure function, no I/O.
//
// The text match only looks at the primary category by design, while the
// slug match checks every linked category.
func FilterRestaurants(restaurants []model.Restaurant, opts FilterOptions, favoriteIDs map[string]bool) []model.Restaurant {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	filtered := make([]model.Restaurant, 0, len(restaurants))
	for _, restaurant := range restaurants {
		if !matchesQuery(&restaurant, query) {
			continue
		}
		if !matchesCategorySlug(&restaurant, opts.CategorySlug) {
			continue
		}
		if opts.FavoritesOnly && !favoriteIDs[restaurant.ID] {
			continue
		}
		filtered = append(filtered, restaurant)
	}
	return filtered
}

func matchesQuery(restaurant *model.Restaurant, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(restaurant.Name), query) {
		return true
	}
	return strings.Contains(strings.ToLower(restaurant.PrimaryCategoryName()), query)
}

func matchesCategorySlug(restaurant *model.Restaurant, slug string) bool {
	if slug == "" || slug == CategorySlugAll {
		return true
	}
	for _, rc := range restaurant.Categories {
		if rc.Category.Slug == slug {
			return true
		}
	}
	return false
}
