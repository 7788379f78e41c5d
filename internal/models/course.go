package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Course struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL    string          `gorm:"size:512" json:"image_url"`
	Category    string          `gorm:"size:100;index" json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Lessons []Lesson `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// Lesson order_number is unique within its course; the index enforces it on write.
type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;uniqueIndex:idx_lessons_course_order" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	VideoURL    string    `gorm:"size:512;not null" json:"video_url"`
	Notes       string    `gorm:"type:text" json:"notes"`
	OrderNumber int       `gorm:"not null;uniqueIndex:idx_lessons_course_order" json:"order_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}
