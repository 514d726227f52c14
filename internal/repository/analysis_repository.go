package repository

import (
	"context"
	"learning_dropout_backend/internal/model"

	"gorm.io/gorm"
)

type AnalysisRepository struct {
	DB *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{DB: db}
}

// SegmentCount 集合方式聚合出的分段计数行
type SegmentCount struct {
	SegmentStart int
	SegmentEnd   int
	ReachedCount int
	DropoutCount int
}

// 集合方式的分段聚合，与内存流式分桶语义一致：
//   - segment_series 递归生成分段边界
//   - cohort 取每个学习者的最大进度与时间线上最后一条事件的离段标记
//   - reached 统计 max_progress >= 边界的学习者数（LEFT JOIN 保证空段计 0）
//   - dropped 统计终态落在 [start, start+width) 且标记离段的学习者数
const aggregateSegmentsSQL = `
WITH RECURSIVE segment_series AS (
    SELECT 0 AS segment_start
    UNION ALL
    SELECT segment_start + @width FROM segment_series WHERE segment_start + @width < 100
),
ranked_events AS (
    SELECT user_id,
           is_dropout,
           ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY logged_at DESC, id DESC) AS rn
    FROM learning_logs
    WHERE course_id = @course_id
),
cohort AS (
    SELECT m.user_id, m.max_progress, t.is_dropout
    FROM (
        SELECT user_id, MAX(progress_percent) AS max_progress
        FROM learning_logs
        WHERE course_id = @course_id
        GROUP BY user_id
    ) m
    JOIN ranked_events t ON t.user_id = m.user_id AND t.rn = 1
),
reached AS (
    SELECT s.segment_start, COUNT(c.user_id) AS reached_count
    FROM segment_series s
    LEFT JOIN cohort c ON c.max_progress >= s.segment_start
    GROUP BY s.segment_start
),
dropped AS (
    SELECT s.segment_start, COUNT(c.user_id) AS dropout_count
    FROM segment_series s
    LEFT JOIN cohort c
        ON c.is_dropout = TRUE
       AND c.max_progress >= s.segment_start
       AND c.max_progress < s.segment_start + @width
    GROUP BY s.segment_start
)
SELECT s.segment_start,
       s.segment_start + @width AS segment_end,
       r.reached_count,
       d.dropout_count
FROM segment_series s
JOIN reached r ON r.segment_start = s.segment_start
JOIN dropped d ON d.segment_start = s.segment_start
ORDER BY s.segment_start`

// AggregateSegments SQL 策略：在数据库内完成分段计数
func (r *AnalysisRepository) AggregateSegments(ctx context.Context, courseID uint, bandWidth int) ([]SegmentCount, error) {
	var counts []SegmentCount
	err := r.DB.WithContext(ctx).Raw(aggregateSegmentsSQL, map[string]interface{}{
		"width":     bandWidth,
		"course_id": courseID,
	}).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// ReplaceGeneration 原子替换课程的分析代次：同一事务内删旧插新
// 事务失败整体回滚，读者不会看到新旧代次混合的结果
func (r *AnalysisRepository) ReplaceGeneration(ctx context.Context, courseID uint, segments []model.DropoutAnalysis) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&model.DropoutAnalysis{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.Create(&segments).Error
	})
}

// GetLatestGeneration 读取当前代次，无分析结果时返回空切片
func (r *AnalysisRepository) GetLatestGeneration(ctx context.Context, courseID uint) ([]model.DropoutAnalysis, error) {
	var segments []model.DropoutAnalysis
	err := r.DB.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("segment_start ASC").
		Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}
