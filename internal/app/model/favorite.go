package model

import (
	"time"
)

// Favorite marks a restaurant as a favorite of a user.
// 複合主キーで (user, restaurant) の組み合わせは1行まで
type Favorite struct {
	UserID       string     `gorm:"type:uuid;primaryKey" json:"user_id"`
	RestaurantID string     `gorm:"type:uuid;primaryKey" json:"restaurant_id"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Restaurant   Restaurant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}
