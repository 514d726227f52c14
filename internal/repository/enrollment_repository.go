package repository

import (
	"context"
	"learning_dropout_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) BulkInsert(enrollments []model.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(enrollments, 500).Error
}

// CountByCourse 课程总报名数，可能大于有事件记录的学习者数
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID uint) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
