package service

import (
	"learning_dropout_backend/internal/config"
	"learning_dropout_backend/internal/model"
	"learning_dropout_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *DropoutService {
	t.Helper()
	engine, err := NewDropoutService(config.AnalysisConfig{
		BandWidth:       10,
		DangerThreshold: 15.0,
		ReasonTopK:      5,
		Strategy:        "stream",
	})
	require.NoError(t, err)
	return engine
}

var testBase = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func event(userID uint, progress float64, minuteOffset int) model.LearningLog {
	return model.LearningLog{
		UserID:          userID,
		CourseID:        1,
		ProgressPercent: progress,
		LoggedAt:        testBase.Add(time.Duration(minuteOffset) * time.Minute),
	}
}

func dropoutEvent(userID uint, progress float64, minuteOffset int, reason string) model.LearningLog {
	log := event(userID, progress, minuteOffset)
	log.IsDropout = true
	if reason != "" {
		log.DropoutReason = &reason
	}
	return log
}

func TestNewDropoutServiceRejectsInvalidConfig(t *testing.T) {
	_, err := NewDropoutService(config.AnalysisConfig{BandWidth: 7, Strategy: "stream", ReasonTopK: 5})
	assert.Error(t, err)

	_, err = NewDropoutService(config.AnalysisConfig{BandWidth: 10, Strategy: "batch", ReasonTopK: 5})
	assert.Error(t, err)
}

func TestResolveCohortLastEventWins(t *testing.T) {
	engine := newTestEngine(t)

	logs := []model.LearningLog{
		// 用户 1：中途标记离段后又恢复学习，终态不算离段
		dropoutEvent(1, 30, 0, "内容太难"),
		event(1, 45, 10),
		// 用户 2：最后一条事件带离段标记
		event(2, 10, 1),
		dropoutEvent(2, 22, 20, "时间不够"),
		// 用户 3：离段但未填原因
		dropoutEvent(3, 55, 5, ""),
	}

	cohort, err := engine.ResolveCohort(logs)
	require.NoError(t, err)
	require.Len(t, cohort, 3)

	assert.Equal(t, uint(1), cohort[0].UserID)
	assert.False(t, cohort[0].IsDropped)
	assert.Equal(t, 45.0, cohort[0].MaxProgress)
	assert.Empty(t, cohort[0].DropoutReason)

	assert.True(t, cohort[1].IsDropped)
	assert.Equal(t, 22.0, cohort[1].MaxProgress)
	assert.Equal(t, "时间不够", cohort[1].DropoutReason)

	assert.True(t, cohort[2].IsDropped)
	assert.Equal(t, model.ReasonUnknown, cohort[2].DropoutReason)
}

func TestResolveCohortKeepsMaxProgressOnRegression(t *testing.T) {
	engine := newTestEngine(t)

	// 进度回退（重看前面章节）不应降低终态最大进度
	logs := []model.LearningLog{
		event(1, 60, 0),
		dropoutEvent(1, 35, 10, "失去兴趣"),
	}

	cohort, err := engine.ResolveCohort(logs)
	require.NoError(t, err)
	require.Len(t, cohort, 1)
	assert.Equal(t, 60.0, cohort[0].MaxProgress)
	assert.True(t, cohort[0].IsDropped)
}

func TestResolveCohortValidation(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ResolveCohort([]model.LearningLog{event(1, 120, 0)})
	assert.ErrorIs(t, err, util.ErrInvalidProgressEvent)

	_, err = engine.ResolveCohort([]model.LearningLog{event(1, -5, 0)})
	assert.ErrorIs(t, err, util.ErrInvalidProgressEvent)

	bad := event(1, 50, 0)
	bad.WatchDurationSec = -30
	_, err = engine.ResolveCohort([]model.LearningLog{bad})
	assert.ErrorIs(t, err, util.ErrInvalidProgressEvent)
}

func TestResolveCohortEmptyInput(t *testing.T) {
	engine := newTestEngine(t)

	cohort, err := engine.ResolveCohort(nil)
	require.NoError(t, err)
	assert.Empty(t, cohort)
}

func TestBucketCohortCounts(t *testing.T) {
	engine := newTestEngine(t)

	cohort := []model.CohortRecord{
		{UserID: 1, MaxProgress: 5, IsDropped: true, DropoutReason: "内容太难"},
		{UserID: 2, MaxProgress: 20, IsDropped: true, DropoutReason: "时间不够"}, // 落在 20-30 段
		{UserID: 3, MaxProgress: 47, IsDropped: false},
		{UserID: 4, MaxProgress: 100, IsDropped: false},
		{UserID: 5, MaxProgress: 100, IsDropped: true, DropoutReason: "其他"}, // 满进度离段不落入任何分段
	}

	counts := engine.BucketCohort(cohort)
	require.Len(t, counts, 10)

	// reached 随分段起点单调不增
	assert.Equal(t, 5, counts[0].ReachedCount)
	assert.Equal(t, 4, counts[1].ReachedCount) // 10-20
	assert.Equal(t, 4, counts[2].ReachedCount) // 20-30：进度恰为 20 算已到达
	assert.Equal(t, 3, counts[4].ReachedCount) // 40-50
	assert.Equal(t, 2, counts[9].ReachedCount) // 90-100
	for i := 1; i < len(counts); i++ {
		assert.LessOrEqual(t, counts[i].ReachedCount, counts[i-1].ReachedCount)
	}

	assert.Equal(t, 1, counts[0].DropoutCount)
	assert.Equal(t, 1, counts[2].DropoutCount)
	total := 0
	for _, c := range counts {
		total += c.DropoutCount
	}
	assert.Equal(t, 2, total) // 用户 5 不计入任何分段
}

func TestDeriveSegmentsRatesAndShares(t *testing.T) {
	engine := newTestEngine(t)

	cohort := []model.CohortRecord{
		{UserID: 1, MaxProgress: 5, IsDropped: true, DropoutReason: "a"},
		{UserID: 2, MaxProgress: 8, IsDropped: true, DropoutReason: "b"},
		{UserID: 3, MaxProgress: 15, IsDropped: true, DropoutReason: "c"},
		{UserID: 4, MaxProgress: 60, IsDropped: false},
		{UserID: 5, MaxProgress: 100, IsDropped: false},
		{UserID: 6, MaxProgress: 100, IsDropped: false},
	}

	segments := engine.AnalyzeSegments(cohort)
	require.Len(t, segments, 10)

	// 0-10 段：6 人到达，2 人离段
	assert.Equal(t, util.Round2(2.0/6.0*100), segments[0].DropoutRate)
	assert.Equal(t, util.Round2(2.0/3.0*100), segments[0].DropoutShare)
	assert.Equal(t, model.RiskCritical, segments[0].RiskLevel)

	// 10-20 段：4 人到达，1 人离段 → 25%
	assert.Equal(t, 25.0, segments[1].DropoutRate)
	assert.Equal(t, model.RiskCritical, segments[1].RiskLevel)

	// 无离段的分段风险为 low，占比为 0
	assert.Equal(t, 0.0, segments[5].DropoutRate)
	assert.Equal(t, model.RiskLow, segments[5].RiskLevel)

	shareSum := 0.0
	for _, seg := range segments {
		shareSum += seg.DropoutShare
	}
	assert.InDelta(t, 100.0, shareSum, 0.1)
}

func TestDeriveSegmentsZeroReached(t *testing.T) {
	engine := newTestEngine(t)

	segments := engine.AnalyzeSegments(nil)
	require.Len(t, segments, 10)
	for _, seg := range segments {
		assert.Equal(t, 0.0, seg.DropoutRate)
		assert.Equal(t, 0.0, seg.DropoutShare)
		assert.Equal(t, model.RiskLow, seg.RiskLevel)
	}
}

func TestAnalyzeSegmentsIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	cohort := []model.CohortRecord{
		{UserID: 1, MaxProgress: 33, IsDropped: true, DropoutReason: "x"},
		{UserID: 2, MaxProgress: 77, IsDropped: false},
		{UserID: 3, MaxProgress: 12, IsDropped: true, DropoutReason: "y"},
	}

	first := engine.AnalyzeSegments(cohort)
	second := engine.AnalyzeSegments(cohort)
	assert.Equal(t, first, second)
}

func TestClassifyRiskBoundaries(t *testing.T) {
	cases := []struct {
		rate float64
		want model.RiskLevel
	}{
		{0, model.RiskLow},
		{9.99, model.RiskLow},
		{10, model.RiskMedium}, // 边界归入更高一级
		{14.99, model.RiskMedium},
		{15, model.RiskHigh},
		{19.99, model.RiskHigh},
		{20, model.RiskCritical},
		{85.5, model.RiskCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyRisk(c.rate), "rate=%v", c.rate)
	}
}

func TestDangerZonesFilterAndOrder(t *testing.T) {
	engine := newTestEngine(t)

	segments := []model.DropoutAnalysis{
		{SegmentStart: 0, SegmentEnd: 10, DropoutRate: 25.0, DropoutCount: 5, RiskLevel: model.RiskCritical},
		{SegmentStart: 10, SegmentEnd: 20, DropoutRate: 8.0, DropoutCount: 1, RiskLevel: model.RiskLow},
		{SegmentStart: 20, SegmentEnd: 30, DropoutRate: 18.0, DropoutCount: 3, RiskLevel: model.RiskHigh},
		{SegmentStart: 30, SegmentEnd: 40, DropoutRate: 25.0, DropoutCount: 4, RiskLevel: model.RiskCritical},
	}

	zones := engine.DangerZones(segments, 15.0)
	require.Len(t, zones, 3)

	// 离段率降序，同率按分段起点升序
	assert.Equal(t, 0, zones[0].SegmentStart)
	assert.Equal(t, 30, zones[1].SegmentStart)
	assert.Equal(t, 20, zones[2].SegmentStart)

	assert.Equal(t, "0-10%", zones[0].Segment)
	assert.NotEmpty(t, zones[0].Recommendation)
	assert.NotEqual(t, genericRecommendation, zones[0].Recommendation)
}

func TestDangerZonesDefaultThreshold(t *testing.T) {
	engine := newTestEngine(t)

	segments := []model.DropoutAnalysis{
		{SegmentStart: 0, SegmentEnd: 10, DropoutRate: 16.0, RiskLevel: model.RiskHigh},
		{SegmentStart: 10, SegmentEnd: 20, DropoutRate: 14.0, RiskLevel: model.RiskMedium},
	}

	// threshold < 0 表示未指定，落回配置阈值 15.0
	zones := engine.DangerZones(segments, -1)
	require.Len(t, zones, 1)
	assert.Equal(t, 16.0, zones[0].DropoutRate)

	// 显式传 0 返回全部分段，而不是落回默认阈值
	zones = engine.DangerZones(segments, 0)
	assert.Len(t, zones, 2)
}

func TestApplyConfigHotUpdate(t *testing.T) {
	engine := newTestEngine(t)

	engine.ApplyConfig(config.AnalysisConfig{DangerThreshold: 25.0, ReasonTopK: 3})
	assert.Equal(t, 25.0, engine.DangerThreshold())
	assert.Equal(t, 3, engine.ReasonTopK())

	// 零值不覆盖现有配置
	engine.ApplyConfig(config.AnalysisConfig{})
	assert.Equal(t, 25.0, engine.DangerThreshold())
	assert.Equal(t, 3, engine.ReasonTopK())

	// band_width 不支持热更新
	engine.ApplyConfig(config.AnalysisConfig{BandWidth: 20})
	assert.Equal(t, 10, engine.BandWidth())
}

func TestAggregateReasonsOrdering(t *testing.T) {
	engine := newTestEngine(t)

	cohort := []model.CohortRecord{
		{UserID: 1, IsDropped: true, DropoutReason: "时间不够"},
		{UserID: 2, IsDropped: true, DropoutReason: "内容太难"},
		{UserID: 3, IsDropped: true, DropoutReason: "时间不够"},
		{UserID: 4, IsDropped: true, DropoutReason: ""},
		{UserID: 5, IsDropped: false},
		{UserID: 6, IsDropped: true, DropoutReason: model.ReasonUnknown},
	}

	buckets := engine.AggregateReasons(cohort)
	require.Len(t, buckets, 3)

	// 同次数按原因字典序，"unknown" 在中文原因之前
	assert.Equal(t, model.ReasonUnknown, buckets[0].Reason)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 40.0, buckets[0].Percentage)

	assert.Equal(t, "时间不够", buckets[1].Reason)
	assert.Equal(t, 2, buckets[1].Count)
	assert.Equal(t, "内容太难", buckets[2].Reason)
}

func TestTopReasons(t *testing.T) {
	engine := newTestEngine(t)

	buckets := []model.ReasonBucket{
		{Reason: "a", Count: 5},
		{Reason: "b", Count: 4},
		{Reason: "c", Count: 3},
		{Reason: "d", Count: 2},
		{Reason: "e", Count: 1},
		{Reason: "f", Count: 1},
	}

	top := engine.TopReasons(buckets, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Reason)

	// k <= 0 用配置默认值 5
	top = engine.TopReasons(buckets, 0)
	assert.Len(t, top, 5)

	// k 超过桶数时原样返回
	top = engine.TopReasons(buckets, 100)
	assert.Len(t, top, 6)
}

func TestSummarize(t *testing.T) {
	engine := newTestEngine(t)

	course := &model.Course{Title: "Go 入门"}
	course.ID = 7

	cohort := []model.CohortRecord{
		{UserID: 1, MaxProgress: 10, IsDropped: true, DropoutReason: "内容太难"},
		{UserID: 2, MaxProgress: 30, IsDropped: true, DropoutReason: "时间不够"},
		{UserID: 3, MaxProgress: 100, IsDropped: false},
		{UserID: 4, MaxProgress: 55, IsDropped: false},
	}
	segments := engine.AnalyzeSegments(cohort)
	zones := engine.DangerZones(segments, -1)
	reasons := engine.AggregateReasons(cohort)

	summary := engine.Summarize(course, 4, cohort, segments, zones, reasons)

	assert.Equal(t, uint(7), summary.CourseID)
	assert.Equal(t, "Go 入门", summary.CourseTitle)
	assert.Equal(t, 4, summary.TotalEnrollments)
	assert.Equal(t, 2, summary.TotalDropouts)
	assert.Equal(t, 50.0, summary.OverallDropoutRate)
	assert.Equal(t, 50.0, summary.CompletionRate)
	assert.Equal(t, 20.0, summary.AverageDropoutPoint)
	assert.NotEqual(t, "N/A", summary.PeakDropoutSegment)
	assert.Greater(t, summary.PeakDropoutRate, 0.0)
	assert.Len(t, summary.DropoutReasons, 2)
}

func TestSummarizeEmptyCourse(t *testing.T) {
	engine := newTestEngine(t)

	segments := engine.AnalyzeSegments(nil)
	summary := engine.Summarize(nil, 0, nil, segments, nil, nil)

	assert.Equal(t, 0, summary.TotalDropouts)
	assert.Equal(t, 0.0, summary.OverallDropoutRate)
	assert.Equal(t, 0.0, summary.CompletionRate)
	assert.Equal(t, 0.0, summary.AverageDropoutPoint)
	assert.Equal(t, "0-10%", summary.PeakDropoutSegment)
}

func TestEarlyBandDropoutTenPercent(t *testing.T) {
	engine := newTestEngine(t)

	// 100 名学习者：10 人在 [0,10) 离段，其余 90 人完课
	cohort := make([]model.CohortRecord, 0, 100)
	for i := 0; i < 10; i++ {
		cohort = append(cohort, model.CohortRecord{
			UserID:        uint(i + 1),
			MaxProgress:   float64(i),
			IsDropped:     true,
			DropoutReason: "内容太难",
		})
	}
	for i := 10; i < 100; i++ {
		cohort = append(cohort, model.CohortRecord{UserID: uint(i + 1), MaxProgress: 100})
	}

	segments := engine.AnalyzeSegments(cohort)
	require.Len(t, segments, 10)
	assert.Equal(t, 100, segments[0].ReachedCount)
	assert.Equal(t, 10, segments[0].DropoutCount)
	assert.Equal(t, 10.0, segments[0].DropoutRate)
	assert.Equal(t, model.RiskMedium, segments[0].RiskLevel)
}

func TestEmptyCourseProducesZeroedOutputs(t *testing.T) {
	engine := newTestEngine(t)

	cohort, err := engine.ResolveCohort(nil)
	require.NoError(t, err)

	segments := engine.AnalyzeSegments(cohort)
	require.Len(t, segments, 10)
	for _, seg := range segments {
		assert.Equal(t, 0, seg.ReachedCount)
		assert.Equal(t, 0, seg.DropoutCount)
		assert.Equal(t, 0.0, seg.DropoutRate)
	}

	assert.Empty(t, engine.DangerZones(segments, -1))

	reasons := engine.AggregateReasons(cohort)
	assert.Empty(t, reasons)

	summary := engine.Summarize(nil, 0, cohort, segments, nil, reasons)
	assert.Equal(t, 0, summary.TotalEnrollments)
	assert.Equal(t, 0, summary.TotalDropouts)
	assert.Equal(t, 0.0, summary.OverallDropoutRate)
	assert.Equal(t, 0.0, summary.CompletionRate)
	assert.Equal(t, 0.0, summary.AverageDropoutPoint)
}

func TestSingleCompletedLearnerFullCompletionRate(t *testing.T) {
	engine := newTestEngine(t)

	logs := []model.LearningLog{
		event(1, 40, 0),
		event(1, 100, 60),
	}
	cohort, err := engine.ResolveCohort(logs)
	require.NoError(t, err)
	require.Len(t, cohort, 1)
	assert.True(t, cohort[0].Completed())

	segments := engine.AnalyzeSegments(cohort)
	summary := engine.Summarize(nil, 1, cohort, segments, nil, nil)

	assert.Equal(t, 0, summary.TotalDropouts)
	assert.Equal(t, 0.0, summary.AverageDropoutPoint)
	assert.Equal(t, 100.0, summary.CompletionRate)
	assert.Equal(t, 0.0, summary.OverallDropoutRate)
}

func TestFinalBandTotalDropout(t *testing.T) {
	engine := newTestEngine(t)

	// 5 人全部在 [90,100) 离段
	cohort := make([]model.CohortRecord, 0, 5)
	for i := 0; i < 5; i++ {
		cohort = append(cohort, model.CohortRecord{
			UserID:        uint(i + 1),
			MaxProgress:   90 + float64(i),
			IsDropped:     true,
			DropoutReason: "失去兴趣",
		})
	}

	segments := engine.AnalyzeSegments(cohort)
	last := segments[9]
	assert.Equal(t, 5, last.ReachedCount)
	assert.Equal(t, 5, last.DropoutCount)
	assert.Equal(t, 100.0, last.DropoutRate)
	assert.Equal(t, model.RiskCritical, last.RiskLevel)

	zones := engine.DangerZones(segments, -1)
	require.NotEmpty(t, zones)
	assert.Equal(t, 90, zones[0].SegmentStart)
	assert.Equal(t, 100.0, zones[0].DropoutRate)
	assert.Equal(t, segmentRecommendations[90], zones[0].Recommendation)
}

func TestDangerZonesHighThresholdSingleZone(t *testing.T) {
	engine := newTestEngine(t)

	rates := []float64{30, 10, 5, 0, 0, 0, 0, 0, 0, 0}
	segments := make([]model.DropoutAnalysis, 0, len(rates))
	for i, rate := range rates {
		segments = append(segments, model.DropoutAnalysis{
			SegmentStart: i * 10,
			SegmentEnd:   (i + 1) * 10,
			DropoutRate:  rate,
			RiskLevel:    ClassifyRisk(rate),
		})
	}

	zones := engine.DangerZones(segments, 25)
	require.Len(t, zones, 1)
	assert.Equal(t, 0, zones[0].SegmentStart)
	assert.Equal(t, 30.0, zones[0].DropoutRate)
}

func TestChartData(t *testing.T) {
	engine := newTestEngine(t)

	cohort := []model.CohortRecord{
		{UserID: 1, MaxProgress: 25, IsDropped: true, DropoutReason: "x"},
		{UserID: 2, MaxProgress: 80, IsDropped: false},
	}
	segments := engine.AnalyzeSegments(cohort)

	chart := engine.ChartData(7, segments)
	assert.Equal(t, uint(7), chart.CourseID)
	require.Len(t, chart.Labels, 10)
	assert.Equal(t, "0-10%", chart.Labels[0])
	assert.Equal(t, "90-100%", chart.Labels[9])
	require.Len(t, chart.Datasets, 1)
	assert.Len(t, chart.Datasets[0].Data, 10)
	assert.Len(t, chart.Datasets[0].BackgroundColor, 10)
	assert.Equal(t, segments[2].RiskLevel.Color(), chart.Datasets[0].BackgroundColor[2])
}
