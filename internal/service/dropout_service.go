package service

import (
	"fmt"
	"learning_dropout_backend/internal/config"
	"learning_dropout_backend/internal/model"
	"learning_dropout_backend/internal/repository"
	"learning_dropout_backend/internal/util"
	"sort"
	"sync"
)

// 风险分级阈值，降序匹配，边界值归入更高一级
var riskThresholds = []struct {
	level model.RiskLevel
	min   float64
}{
	{model.RiskCritical, 20},
	{model.RiskHigh, 15},
	{model.RiskMedium, 10},
}

// 各分段的干预建议（默认 10% 宽度，键为 segment_start）
var segmentRecommendations = map[int]string{
	0:  "改进课程介绍与预览，明确先修知识要求",
	10: "调整前期难度，补充基础概念资料",
	20: "增加中期自测题，强化实操示例",
	30: "发送学习提醒，设置里程碑奖励",
	40: "推送过半祝贺消息，预告后半部分内容",
	50: "接入学习社区，提供一对一答疑机会",
	60: "引入项目作业，增加实战应用案例",
	70: "展示结课证书预览，引导撰写课程评价",
	80: "冲刺阶段鼓励，提供复习指南",
	90: "准备完课祝贺，推荐后续课程",
}

const genericRecommendation = "需要检查该区间的内容质量"

// DropoutService 离段分析引擎：终态归并、分段计数、风险分级、
// 危险区间提取、原因聚合与课程汇总，全部为纯内存计算
type DropoutService struct {
	mu              sync.RWMutex
	bandWidth       int
	dangerThreshold float64
	reasonTopK      int
}

func NewDropoutService(cfg config.AnalysisConfig) (*DropoutService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DropoutService{
		bandWidth:       cfg.BandWidth,
		dangerThreshold: cfg.DangerThreshold,
		reasonTopK:      cfg.ReasonTopK,
	}, nil
}

// ApplyConfig 热更新阈值类参数；band_width 影响存量代次的分段结构，
// 变更后需要重启并重算，因此这里不接受
func (s *DropoutService) ApplyConfig(cfg config.AnalysisConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.DangerThreshold > 0 {
		s.dangerThreshold = cfg.DangerThreshold
	}
	if cfg.ReasonTopK > 0 {
		s.reasonTopK = cfg.ReasonTopK
	}
}

func (s *DropoutService) BandWidth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bandWidth
}

func (s *DropoutService) DangerThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dangerThreshold
}

func (s *DropoutService) ReasonTopK() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reasonTopK
}

// ResolveCohort 把按时间升序的事件日志归并为每学习者一条终态记录。
// 是否离段只看时间线上最后一条事件的显式标记，
// 不能用「进度未到 100」推断——学习者可能仍在学习中。
func (s *DropoutService) ResolveCohort(logs []model.LearningLog) ([]model.CohortRecord, error) {
	records := make(map[uint]*model.CohortRecord)
	order := make([]uint, 0)

	for i := range logs {
		log := &logs[i]
		if log.ProgressPercent < 0 || log.ProgressPercent > 100 {
			return nil, fmt.Errorf("%w: user %d progress %.1f out of range",
				util.ErrInvalidProgressEvent, log.UserID, log.ProgressPercent)
		}
		if log.WatchDurationSec < 0 {
			return nil, fmt.Errorf("%w: user %d negative watch duration %d",
				util.ErrInvalidProgressEvent, log.UserID, log.WatchDurationSec)
		}

		rec, ok := records[log.UserID]
		if !ok {
			rec = &model.CohortRecord{UserID: log.UserID}
			records[log.UserID] = rec
			order = append(order, log.UserID)
		}

		if log.ProgressPercent > rec.MaxProgress {
			rec.MaxProgress = log.ProgressPercent
		}

		// 输入有序，循环结束时留下的就是最后一条事件的终态
		rec.IsDropped = log.IsDropout
		if log.IsDropout {
			if log.DropoutReason != nil && *log.DropoutReason != "" {
				rec.DropoutReason = *log.DropoutReason
			} else {
				rec.DropoutReason = model.ReasonUnknown
			}
		} else {
			rec.DropoutReason = ""
		}
	}

	cohort := make([]model.CohortRecord, 0, len(order))
	for _, userID := range order {
		cohort = append(cohort, *records[userID])
	}
	return cohort, nil
}

// BucketCohort 流式策略：一趟遍历完成分段计数
func (s *DropoutService) BucketCohort(cohort []model.CohortRecord) []repository.SegmentCount {
	width := s.BandWidth()
	numSegments := 100 / width

	counts := make([]repository.SegmentCount, numSegments)
	for i := range counts {
		counts[i].SegmentStart = i * width
		counts[i].SegmentEnd = (i + 1) * width
	}

	for i := range cohort {
		rec := &cohort[i]
		for seg := 0; seg < numSegments; seg++ {
			if rec.MaxProgress >= float64(counts[seg].SegmentStart) {
				counts[seg].ReachedCount++
			}
		}
		if rec.IsDropped {
			// 进度恰为 100 的离段者不落入任何分段（分段覆盖 [0,100)）
			idx := int(rec.MaxProgress) / width
			if rec.MaxProgress < 100 && idx < numSegments {
				counts[idx].DropoutCount++
			}
		}
	}
	return counts
}

// DeriveSegments 由分段计数派生比率、占比与风险级别。
// 两种计数策略共用该函数，保证派生指标必然一致。
func (s *DropoutService) DeriveSegments(counts []repository.SegmentCount) []model.DropoutAnalysis {
	totalSegmentDropouts := 0
	for _, c := range counts {
		totalSegmentDropouts += c.DropoutCount
	}

	segments := make([]model.DropoutAnalysis, 0, len(counts))
	for _, c := range counts {
		rate := 0.0
		if c.ReachedCount > 0 {
			rate = util.Round2(float64(c.DropoutCount) / float64(c.ReachedCount) * 100)
		}
		share := 0.0
		if totalSegmentDropouts > 0 {
			share = util.Round2(float64(c.DropoutCount) / float64(totalSegmentDropouts) * 100)
		}

		segments = append(segments, model.DropoutAnalysis{
			SegmentStart: c.SegmentStart,
			SegmentEnd:   c.SegmentEnd,
			ReachedCount: c.ReachedCount,
			DropoutCount: c.DropoutCount,
			DropoutRate:  rate,
			DropoutShare: share,
			RiskLevel:    ClassifyRisk(rate),
		})
	}
	return segments
}

// AnalyzeSegments 流式策略的完整分段分析
func (s *DropoutService) AnalyzeSegments(cohort []model.CohortRecord) []model.DropoutAnalysis {
	return s.DeriveSegments(s.BucketCohort(cohort))
}

// ClassifyRisk 离段率到风险级别的纯函数
func ClassifyRisk(rate float64) model.RiskLevel {
	for _, t := range riskThresholds {
		if rate >= t.min {
			return t.level
		}
	}
	return model.RiskLow
}

// DangerZones 过滤离段率达到阈值的分段，按离段率降序排列。
// threshold < 0 表示未指定，使用配置的默认阈值；
// 显式传 0 则返回全部分段
func (s *DropoutService) DangerZones(segments []model.DropoutAnalysis, threshold float64) []model.DangerZone {
	if threshold < 0 {
		threshold = s.DangerThreshold()
	}

	zones := make([]model.DangerZone, 0)
	for i := range segments {
		seg := &segments[i]
		if seg.DropoutRate < threshold {
			continue
		}
		zones = append(zones, model.DangerZone{
			Segment:        seg.Label(),
			SegmentStart:   seg.SegmentStart,
			DropoutRate:    seg.DropoutRate,
			RiskLevel:      seg.RiskLevel,
			DropoutCount:   seg.DropoutCount,
			Recommendation: recommendationFor(seg.SegmentStart),
		})
	}

	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].DropoutRate != zones[j].DropoutRate {
			return zones[i].DropoutRate > zones[j].DropoutRate
		}
		return zones[i].SegmentStart < zones[j].SegmentStart
	})
	return zones
}

func recommendationFor(segmentStart int) string {
	if rec, ok := segmentRecommendations[segmentStart]; ok {
		return rec
	}
	// 非默认分段宽度才会走到这里
	return genericRecommendation
}

// AggregateReasons 离段原因直方图，按次数降序、同次数按原因字典序
func (s *DropoutService) AggregateReasons(cohort []model.CohortRecord) []model.ReasonBucket {
	counts := make(map[string]int)
	totalDropouts := 0
	for i := range cohort {
		if !cohort[i].IsDropped {
			continue
		}
		totalDropouts++
		reason := cohort[i].DropoutReason
		if reason == "" {
			reason = model.ReasonUnknown
		}
		counts[reason]++
	}

	buckets := make([]model.ReasonBucket, 0, len(counts))
	for reason, count := range counts {
		pct := 0.0
		if totalDropouts > 0 {
			pct = util.Round2(float64(count) / float64(totalDropouts) * 100)
		}
		buckets = append(buckets, model.ReasonBucket{
			Reason:     reason,
			Count:      count,
			Percentage: pct,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Reason < buckets[j].Reason
	})
	return buckets
}

// TopReasons 原因分布的 Top-K 切片，k <= 0 时用配置默认值
func (s *DropoutService) TopReasons(buckets []model.ReasonBucket, k int) []model.ReasonBucket {
	if k <= 0 {
		k = s.ReasonTopK()
	}
	if len(buckets) <= k {
		return buckets
	}
	return buckets[:k]
}

// Summarize 课程整体汇总。completion_rate 采用两态简化：
// 所有未离段的报名都按完课计，进行中的学习者不单列第三态。
func (s *DropoutService) Summarize(
	course *model.Course,
	totalEnrollments int,
	cohort []model.CohortRecord,
	segments []model.DropoutAnalysis,
	zones []model.DangerZone,
	reasons []model.ReasonBucket,
) model.CourseSummary {
	totalDropouts := 0
	dropoutPointSum := 0.0
	for i := range cohort {
		if cohort[i].IsDropped {
			totalDropouts++
			dropoutPointSum += cohort[i].MaxProgress
		}
	}

	overallRate := 0.0
	completionRate := 0.0
	if totalEnrollments > 0 {
		overallRate = util.Round2(float64(totalDropouts) / float64(totalEnrollments) * 100)
		completionRate = util.Round2(float64(totalEnrollments-totalDropouts) / float64(totalEnrollments) * 100)
	}

	avgDropoutPoint := 0.0
	if totalDropouts > 0 {
		avgDropoutPoint = util.Round2(dropoutPointSum / float64(totalDropouts))
	}

	summary := model.CourseSummary{
		TotalEnrollments:    totalEnrollments,
		TotalDropouts:       totalDropouts,
		OverallDropoutRate:  overallRate,
		CompletionRate:      completionRate,
		AverageDropoutPoint: avgDropoutPoint,
		PeakDropoutSegment:  "N/A",
		Segments:            segments,
		DangerZones:         zones,
		DropoutReasons:      s.TopReasons(reasons, 0),
	}
	if course != nil {
		summary.CourseID = course.ID
		summary.CourseTitle = course.Title
	}

	for i := range segments {
		if segments[i].DropoutRate > summary.PeakDropoutRate {
			summary.PeakDropoutRate = segments[i].DropoutRate
			summary.PeakDropoutSegment = segments[i].Label()
		}
	}
	if len(segments) > 0 && summary.PeakDropoutRate == 0 {
		summary.PeakDropoutSegment = segments[0].Label()
	}
	return summary
}

// ChartData 生成 Chart.js 需要的分段图表数据
func (s *DropoutService) ChartData(courseID uint, segments []model.DropoutAnalysis) model.ChartData {
	labels := make([]string, 0, len(segments))
	rates := make([]float64, 0, len(segments))
	counts := make([]int, 0, len(segments))
	colors := make([]string, 0, len(segments))

	for i := range segments {
		labels = append(labels, segments[i].Label())
		rates = append(rates, segments[i].DropoutRate)
		counts = append(counts, segments[i].DropoutCount)
		colors = append(colors, segments[i].RiskLevel.Color())
	}

	return model.ChartData{
		CourseID: courseID,
		Labels:   labels,
		Datasets: []model.ChartDataset{
			{
				Label:           "离段率 (%)",
				Data:            rates,
				BackgroundColor: colors,
				BorderColor:     colors,
				BorderWidth:     1,
			},
		},
		DropoutRates:  rates,
		DropoutCounts: counts,
	}
}
