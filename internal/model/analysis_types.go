package model

import "fmt"

func segmentLabel(start, end int) string {
	return fmt.Sprintf("%d-%d%%", start, end)
}

// CohortRecord 由事件日志归并出的学习者终态，每学习者每课程一条
type CohortRecord struct {
	UserID        uint    `json:"userId"`
	MaxProgress   float64 `json:"maxProgress"`
	IsDropped     bool    `json:"isDropped"`
	DropoutReason string  `json:"dropoutReason"` // 离段才有意义，缺失时为 ReasonUnknown
}

// ReasonUnknown 终止事件未携带离段原因时的兜底值
const ReasonUnknown = "unknown"

// Completed 进度到 100 即视为完课，与 IsDropped 无关
func (c *CohortRecord) Completed() bool {
	return c.MaxProgress >= 100
}

// DangerZone 需要干预的高离段率分段
type DangerZone struct {
	Segment        string    `json:"segment"`
	SegmentStart   int       `json:"segmentStart"`
	DropoutRate    float64   `json:"dropoutRate"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	DropoutCount   int       `json:"dropoutCount"`
	Recommendation string    `json:"recommendation"`
}

// ReasonBucket 离段原因直方图中的一项
type ReasonBucket struct {
	Reason     string  `json:"reason"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CourseSummary 单课程整体统计，一次分析运行的汇总产物
type CourseSummary struct {
	CourseID            uint              `json:"courseId"`
	CourseTitle         string            `json:"courseTitle"`
	TotalEnrollments    int               `json:"totalEnrollments"`
	TotalDropouts       int               `json:"totalDropouts"`
	OverallDropoutRate  float64           `json:"overallDropoutRate"`
	CompletionRate      float64           `json:"completionRate"`
	AverageDropoutPoint float64           `json:"averageDropoutPoint"`
	PeakDropoutSegment  string            `json:"peakDropoutSegment"`
	PeakDropoutRate     float64           `json:"peakDropoutRate"`
	Segments            []DropoutAnalysis `json:"segments"`
	DangerZones         []DangerZone      `json:"dangerZones"`
	DropoutReasons      []ReasonBucket    `json:"dropoutReasons"`
}

// ChartDataset Chart.js 数据集
type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     []string  `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth"`
}

// ChartData Chart.js 渲染用的分段图表数据
type ChartData struct {
	CourseID      uint           `json:"courseId"`
	Labels        []string       `json:"labels"`
	Datasets      []ChartDataset `json:"datasets"`
	DropoutRates  []float64      `json:"dropoutRates"`
	DropoutCounts []int          `json:"dropoutCounts"`
}
