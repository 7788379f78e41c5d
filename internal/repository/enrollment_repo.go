package repository

import (
	"coursecms/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateIfAbsent inserts e unless a row with the same (user, course) or order
// already exists. It reports whether a row was inserted.
func (r *EnrollmentRepository) CreateIfAbsent(e *models.Enrollment) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *EnrollmentRepository) GetByUserCourse(userID, courseID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) GetByOrderID(orderID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	err := r.db.Where("order_id = ?", orderID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) Exists(userID, courseID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.Enrollment{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&n).Error
	return n > 0, err
}

// ListByUser returns the user's enrollments newest first with the course loaded.
func (r *EnrollmentRepository) ListByUser(userID uint) ([]models.Enrollment, error) {
	var list []models.Enrollment
	err := r.db.Preload("Course").Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}

func (r *EnrollmentRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Enrollment{}).Count(&n).Error
	return n, err
}
