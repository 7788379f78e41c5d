package repository

import (
	"coursecms/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// CreateIfAbsent reports false when the (user, lesson) row already exists.
func (r *ProgressRepository) CreateIfAbsent(p *models.Progress) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CompletedLessonIDs returns the set of lessons the user finished in a course.
func (r *ProgressRepository) CompletedLessonIDs(userID, courseID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND is_completed = ?", userID, courseID, true).
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *ProgressRepository) CountCompleted(userID, courseID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Progress{}).
		Where("user_id = ? AND course_id = ? AND is_completed = ?", userID, courseID, true).
		Count(&n).Error
	return n, err
}
