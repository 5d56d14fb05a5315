package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups restaurants for filtering on the top page.
// 表示名（name）とURL識別名（slug）はそれぞれ全体で一意
type Category struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(15);uniqueIndex:idx_categories_name;not null" json:"name"`
	Slug         string    `gorm:"type:varchar(30);uniqueIndex:idx_categories_slug;not null" json:"slug"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"` // 昇順で表示。連番である必要はない
	CreatedAt    time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CategoryWithUsage annotates a category with the number of restaurants
// linked to it. Used to gate deletion.
type CategoryWithUsage struct {
	Category
	UsageCount int64 `json:"usage_count"`
}
