package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ReportService 把课程汇总渲染成 CSV 并写入存储后端
type ReportService struct {
	Analysis *AnalysisService
	Storage  *StorageService
}

func NewReportService(analysis *AnalysisService, storage *StorageService) *ReportService {
	return &ReportService{Analysis: analysis, Storage: storage}
}

// ExportCourseReport 导出课程分析报告，返回可访问的文件地址
func (s *ReportService) ExportCourseReport(ctx context.Context, courseID uint) (string, error) {
	summary, err := s.Analysis.GetSummary(ctx, courseID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"course_id", "course_title", "total_enrollments", "total_dropouts",
		"overall_dropout_rate", "completion_rate", "average_dropout_point"})
	w.Write([]string{
		strconv.FormatUint(uint64(summary.CourseID), 10),
		summary.CourseTitle,
		strconv.Itoa(summary.TotalEnrollments),
		strconv.Itoa(summary.TotalDropouts),
		formatRate(summary.OverallDropoutRate),
		formatRate(summary.CompletionRate),
		formatRate(summary.AverageDropoutPoint),
	})

	w.Write(nil)
	w.Write([]string{"segment", "reached_count", "dropout_count", "dropout_rate", "dropout_share", "risk_level"})
	for i := range summary.Segments {
		seg := &summary.Segments[i]
		w.Write([]string{
			seg.Label(),
			strconv.Itoa(seg.ReachedCount),
			strconv.Itoa(seg.DropoutCount),
			formatRate(seg.DropoutRate),
			formatRate(seg.DropoutShare),
			string(seg.RiskLevel),
		})
	}

	w.Write(nil)
	w.Write([]string{"reason", "count", "percentage"})
	for _, bucket := range summary.DropoutReasons {
		w.Write([]string{bucket.Reason, strconv.Itoa(bucket.Count), formatRate(bucket.Percentage)})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("reports/course_%d_%s.csv", courseID, time.Now().Format("20060102150405"))
	return s.Storage.Provider.Upload(ctx, filename, &buf, int64(buf.Len()), "text/csv")
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
