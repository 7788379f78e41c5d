package models

import "time"

// Enrollment exists only because an order reached SUCCESS. One per
// (user, course) and one per order.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	OrderID   uint      `gorm:"not null;uniqueIndex" json:"order_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"course,omitempty"`
	Order  Order  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

type Progress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"user_id"`
	LessonID    uint      `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	IsCompleted bool      `gorm:"not null;default:true" json:"is_completed"`
	CompletedAt time.Time `json:"completed_at"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Lesson Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Progress) TableName() string {
	return "progress"
}
