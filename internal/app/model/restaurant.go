package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UncategorizedLabel is shown as the primary category of a restaurant
// with no category links.
const UncategorizedLabel = "未分類"

type Restaurant struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Rating       *float64  `gorm:"type:numeric(2,1)" json:"rating"` // 0.0〜5.0
	PriceMin     *int      `json:"price_min"`                       // 円
	PriceMax     *int      `json:"price_max"`
	Distance     string    `gorm:"type:varchar(50)" json:"distance"` // 例: "徒歩3分"
	Address      string    `json:"address"`
	TabelogURL   *string   `json:"tabelog_url"`
	WebsiteURL   *string   `json:"website_url"`
	GoogleMapURL *string   `json:"google_map_url"`
	Description  string    `gorm:"type:text" json:"description"`
	ImageURL     string    `json:"image_url"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"` // false = 閉店
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Category links in insertion order. Loaded with Preload.
	Categories []RestaurantCategory `gorm:"foreignKey:RestaurantID" json:"categories,omitempty"`

	// IsFavorite is filled per-request for the authenticated user.
	IsFavorite bool `gorm:"-" json:"is_favorite"`
}

func (Restaurant) TableName() string {
	return "restaurants"
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// PrimaryCategoryName returns the name of the first linked category,
// or the uncategorized label when the restaurant has no links.
func (r *Restaurant) PrimaryCategoryName() string {
	if len(r.Categories) == 0 {
		return UncategorizedLabel
	}
	return r.Categories[0].Category.Name
}

// CategorySlugs returns the slugs of all linked categories.
func (r *Restaurant) CategorySlugs() []string {
	slugs := make([]string, 0, len(r.Categories))
	for _, rc := range r.Categories {
		slugs = append(slugs, rc.Category.Slug)
	}
	return slugs
}

// RestaurantCategory links a restaurant to a category.
// position は選択順を保持する（0始まり）。先頭が主カテゴリ
type RestaurantCategory struct {
	RestaurantID string     `gorm:"type:uuid;primaryKey" json:"restaurant_id"`
	CategoryID   string     `gorm:"type:uuid;primaryKey" json:"category_id"`
	Position     int        `gorm:"not null;default:0" json:"position"`
	Restaurant   Restaurant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Category     Category   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"category"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (RestaurantCategory) TableName() string {
	return "restaurant_categories"
}
