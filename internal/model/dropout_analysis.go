package model

import "time"

type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// Color 图表用的风险配色
func (r RiskLevel) Color() string {
	switch r {
	case RiskCritical:
		return "#dc3545"
	case RiskHigh:
		return "#fd7e14"
	case RiskMedium:
		return "#ffc107"
	case RiskLow:
		return "#28a745"
	default:
		return "#6c757d"
	}
}

// DropoutAnalysis 构成一次分析代次的单个进度分段
// 同一 generation_id 的所有行在一个事务内整体替换旧代次
type DropoutAnalysis struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	CourseID     uint      `gorm:"index:idx_analysis_course_segment;not null" json:"courseId"`
	GenerationID string    `gorm:"size:36;index;not null" json:"generationId"`
	SegmentStart int       `gorm:"index:idx_analysis_course_segment;not null" json:"segmentStart"`
	SegmentEnd   int       `gorm:"not null" json:"segmentEnd"`
	ReachedCount int       `gorm:"default:0" json:"reachedCount"`
	DropoutCount int       `gorm:"default:0" json:"dropoutCount"`
	DropoutRate  float64   `gorm:"default:0" json:"dropoutRate"`
	DropoutShare float64   `gorm:"default:0" json:"dropoutShare"`
	RiskLevel    RiskLevel `gorm:"size:20" json:"riskLevel"`
	AnalyzedAt   time.Time `json:"analyzedAt"`
}

func (DropoutAnalysis) TableName() string {
	return "dropout_analyses"
}

// Label 形如 "10-20%" 的分段标签
func (a *DropoutAnalysis) Label() string {
	return segmentLabel(a.SegmentStart, a.SegmentEnd)
}
