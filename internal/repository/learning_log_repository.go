package repository

import (
	"context"
	"learning_dropout_backend/internal/model"

	"gorm.io/gorm"
)

type LearningLogRepository struct {
	DB *gorm.DB
}

func NewLearningLogRepository(db *gorm.DB) *LearningLogRepository {
	return &LearningLogRepository{DB: db}
}

// GetEventsByCourse 按时间升序取一门课程的全部进度事件
// 终态归并依赖这个顺序，同一时刻的事件用自增 ID 兜底定序
func (r *LearningLogRepository) GetEventsByCourse(ctx context.Context, courseID uint) ([]model.LearningLog, error) {
	var logs []model.LearningLog
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("logged_at ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// BulkInsert 批量写入事件日志（演示数据灌入用）
func (r *LearningLogRepository) BulkInsert(logs []model.LearningLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(logs, 500).Error
}
