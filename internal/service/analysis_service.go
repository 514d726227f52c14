package service

import (
	"context"
	"encoding/json"
	"fmt"
	"learning_dropout_backend/internal/config"
	"learning_dropout_backend/internal/model"
	"learning_dropout_backend/internal/repository"
	"learning_dropout_backend/internal/util"
	"learning_dropout_backend/pkg/logger"
	"learning_dropout_backend/pkg/monitoring"
	"learning_dropout_backend/pkg/tracing"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// 释放锁时校验持有者，避免超时后误删别人的锁
const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end`

// AnalysisService 编排一次完整的分析运行：
// 取事件日志 → 归并终态 → 分段计数（流式或 SQL）→ 派生指标 → 原子替换代次。
// 同课程的并发运行用 Redis 锁串行化，败者收到可重试的冲突错误。
type AnalysisService struct {
	LogRepo      *repository.LearningLogRepository
	AnalysisRepo *repository.AnalysisRepository
	CourseRepo   *repository.CourseRepository
	EnrollRepo   *repository.EnrollmentRepository
	Engine       *DropoutService
	Redis        *redis.Client

	strategy string
	lockTTL  time.Duration
	cacheTTL time.Duration
}

func NewAnalysisService(
	logRepo *repository.LearningLogRepository,
	analysisRepo *repository.AnalysisRepository,
	courseRepo *repository.CourseRepository,
	enrollRepo *repository.EnrollmentRepository,
	engine *DropoutService,
	rdb *redis.Client,
	cfg config.AnalysisConfig,
) *AnalysisService {
	return &AnalysisService{
		LogRepo:      logRepo,
		AnalysisRepo: analysisRepo,
		CourseRepo:   courseRepo,
		EnrollRepo:   enrollRepo,
		Engine:       engine,
		Redis:        rdb,
		strategy:     cfg.Strategy,
		lockTTL:      time.Duration(cfg.LockTTLSeconds) * time.Second,
		cacheTTL:     time.Duration(cfg.CacheTTLSeconds) * time.Second,
	}
}

func (s *AnalysisService) lockKey(courseID uint) string {
	return fmt.Sprintf("analysis:lock:%d", courseID)
}

func (s *AnalysisService) cacheKey(courseID uint) string {
	return fmt.Sprintf("analysis:summary:%d", courseID)
}

func (s *AnalysisService) acquireLock(ctx context.Context, courseID uint) (string, error) {
	token := model.GenerateUUID()
	ok, err := s.Redis.SetNX(ctx, s.lockKey(courseID), token, s.lockTTL).Result()
	if err != nil {
		return "", fmt.Errorf("acquire analysis lock: %w", err)
	}
	if !ok {
		return "", util.ErrAnalysisInProgress
	}
	return token, nil
}

func (s *AnalysisService) releaseLock(courseID uint, token string) {
	// 释放用独立的后台 context，请求取消也要还锁
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Redis.Eval(ctx, releaseLockScript, []string{s.lockKey(courseID)}, token).Err(); err != nil {
		logger.Log.Warn("failed to release analysis lock",
			zap.Uint("courseID", courseID), zap.Error(err))
	}
}

// RunAnalysis 执行一次全量分析并替换该课程的分析代次。
// strategy 为空时使用配置默认；stream 与 sql 两种策略对相同输入
// 产出相同的分段集合，这是受测试保护的契约。
func (s *AnalysisService) RunAnalysis(ctx context.Context, courseID uint, strategy string) ([]model.DropoutAnalysis, error) {
	if strategy == "" {
		strategy = s.strategy
	}
	if strategy != "stream" && strategy != "sql" {
		return nil, fmt.Errorf("unknown analysis strategy: %s", strategy)
	}

	ctx, span := tracing.Tracer.Start(ctx, "analysis.run")
	defer span.End()

	token, err := s.acquireLock(ctx, courseID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(courseID, token)

	start := time.Now()
	segments, err := s.computeAndReplace(ctx, courseID, strategy)
	if err != nil {
		monitoring.ObserveAnalysisRun(strategy, "error", time.Since(start))
		return nil, err
	}
	monitoring.ObserveAnalysisRun(strategy, "ok", time.Since(start))

	// 代次换了，旧汇总缓存作废
	if err := s.Redis.Del(ctx, s.cacheKey(courseID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate summary cache", zap.Error(err))
	}

	logger.Log.Info("analysis generation replaced",
		zap.Uint("courseID", courseID),
		zap.String("strategy", strategy),
		zap.Int("segments", len(segments)),
		zap.Duration("elapsed", time.Since(start)))
	return segments, nil
}

func (s *AnalysisService) computeAndReplace(ctx context.Context, courseID uint, strategy string) ([]model.DropoutAnalysis, error) {
	var counts []repository.SegmentCount

	switch strategy {
	case "sql":
		var err error
		counts, err = s.AnalysisRepo.AggregateSegments(ctx, courseID, s.Engine.BandWidth())
		if err != nil {
			return nil, fmt.Errorf("aggregate segments: %w", err)
		}
	default:
		logs, err := s.LogRepo.GetEventsByCourse(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("fetch events: %w", err)
		}
		cohort, err := s.Engine.ResolveCohort(logs)
		if err != nil {
			return nil, err
		}
		counts = s.Engine.BucketCohort(cohort)
	}

	segments := s.Engine.DeriveSegments(counts)

	generationID := model.GenerateUUID()
	analyzedAt := time.Now()
	for i := range segments {
		segments[i].CourseID = courseID
		segments[i].GenerationID = generationID
		segments[i].AnalyzedAt = analyzedAt
	}

	if err := s.AnalysisRepo.ReplaceGeneration(ctx, courseID, segments); err != nil {
		return nil, fmt.Errorf("replace generation: %w", err)
	}
	return segments, nil
}

// GetSegments 读取当前代次，没有时现场补算一次
func (s *AnalysisService) GetSegments(ctx context.Context, courseID uint) ([]model.DropoutAnalysis, error) {
	segments, err := s.AnalysisRepo.GetLatestGeneration(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(segments) > 0 {
		return segments, nil
	}
	return s.RunAnalysis(ctx, courseID, "")
}

// GetDangerZones threshold < 0 时用配置默认阈值
func (s *AnalysisService) GetDangerZones(ctx context.Context, courseID uint, threshold float64) ([]model.DangerZone, error) {
	segments, err := s.GetSegments(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.Engine.DangerZones(segments, threshold), nil
}

// GetReasons 返回 Top-K 原因分布与离段总人数
func (s *AnalysisService) GetReasons(ctx context.Context, courseID uint, topK int) ([]model.ReasonBucket, int, error) {
	cohort, err := s.resolveCohort(ctx, courseID)
	if err != nil {
		return nil, 0, err
	}

	totalDropouts := 0
	for i := range cohort {
		if cohort[i].IsDropped {
			totalDropouts++
		}
	}

	buckets := s.Engine.AggregateReasons(cohort)
	return s.Engine.TopReasons(buckets, topK), totalDropouts, nil
}

// GetSummary 课程整体汇总，带 Redis 短期缓存
func (s *AnalysisService) GetSummary(ctx context.Context, courseID uint) (*model.CourseSummary, error) {
	if cached, err := s.Redis.Get(ctx, s.cacheKey(courseID)).Bytes(); err == nil {
		var summary model.CourseSummary
		if err := json.Unmarshal(cached, &summary); err == nil {
			return &summary, nil
		}
	}

	course, err := s.CourseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, util.ErrCourseNotFound
	}

	totalEnrollments, err := s.EnrollRepo.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	cohort, err := s.resolveCohort(ctx, courseID)
	if err != nil {
		return nil, err
	}

	segments, err := s.GetSegments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	zones := s.Engine.DangerZones(segments, -1)
	reasons := s.Engine.AggregateReasons(cohort)
	summary := s.Engine.Summarize(course, totalEnrollments, cohort, segments, zones, reasons)

	if data, err := json.Marshal(&summary); err == nil {
		if err := s.Redis.Set(ctx, s.cacheKey(courseID), data, s.cacheTTL).Err(); err != nil {
			logger.Log.Warn("failed to cache summary", zap.Error(err))
		}
	}
	return &summary, nil
}

// GetChartData Chart.js 数据
func (s *AnalysisService) GetChartData(ctx context.Context, courseID uint) (*model.ChartData, error) {
	segments, err := s.GetSegments(ctx, courseID)
	if err != nil {
		return nil, err
	}
	chart := s.Engine.ChartData(courseID, segments)
	return &chart, nil
}

// CourseCatalog 课程目录：聚合统计 + 可选过滤排序
// sortBy 支持 enrollments（默认）、completion_rate、dropout_rate
func (s *AnalysisService) CourseCatalog(category, difficulty, sortBy string) ([]model.CourseCatalogItem, error) {
	items, err := s.CourseRepo.CatalogSummary()
	if err != nil {
		return nil, err
	}

	filtered := make([]model.CourseCatalogItem, 0, len(items))
	for _, item := range items {
		if category != "" && item.Category != category {
			continue
		}
		if difficulty != "" && item.Difficulty != difficulty {
			continue
		}
		if item.TotalEnrollments > 0 {
			item.CompletionRate = util.Round2(float64(item.Completions) / float64(item.TotalEnrollments) * 100)
			item.DropoutRate = util.Round2(float64(item.Dropouts) / float64(item.TotalEnrollments) * 100)
		}
		filtered = append(filtered, item)
	}

	switch sortBy {
	case "completion_rate":
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CompletionRate > filtered[j].CompletionRate
		})
	case "dropout_rate":
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].DropoutRate > filtered[j].DropoutRate
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].TotalEnrollments > filtered[j].TotalEnrollments
		})
	}
	return filtered, nil
}

func (s *AnalysisService) resolveCohort(ctx context.Context, courseID uint) ([]model.CohortRecord, error) {
	logs, err := s.LogRepo.GetEventsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.Engine.ResolveCohort(logs)
}
