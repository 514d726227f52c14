package service

import (
	"fmt"
	"learning_dropout_backend/internal/model"
	"learning_dropout_backend/internal/repository"
	"math/rand"
	"time"
)

// 各进度区间的离段概率，模拟真实学习曲线：前期与中期离段居多
var dropoutProbability = map[int]float64{
	0:  0.25,
	10: 0.15,
	20: 0.12,
	30: 0.10,
	40: 0.08,
	50: 0.06,
	60: 0.05,
	70: 0.04,
	80: 0.03,
	90: 0.02,
}

// 按进度阶段分组的离段原因池
var reasonPools = []struct {
	maxProgress float64
	reasons     []string
}{
	{10, []string{"内容与预期不符", "难度不匹配", "不喜欢授课风格"}},
	{30, []string{"时间不足", "内容太难", "注意力下降"}},
	{50, []string{"中期倦怠", "转向其他课程", "实践环境问题"}},
	{70, []string{"职业倦怠", "部分目标已达成", "外部原因"}},
	{101, []string{"接近完成已满足", "考试或项目优先", "其他"}},
}

var demoCourses = []struct {
	title      string
	category   string
	difficulty string
}{
	{"Python 基础入门", "python", "beginner"},
	{"Go 后端实战", "web_backend", "intermediate"},
	{"SQL 数据库进阶", "database", "intermediate"},
	{"数据分析入门", "data_analysis", "beginner"},
	{"机器学习基础", "machine_learning", "advanced"},
	{"React 前端开发", "web_frontend", "beginner"},
	{"Docker 容器化部署", "devops", "intermediate"},
	{"算法与数据结构", "algorithm", "advanced"},
}

// DataGeneratorService 演示数据生成器。
// 随机源由调用方注入（固定种子可复现），不动进程级全局状态，
// 并行测试下互不干扰。
type DataGeneratorService struct {
	rng        *rand.Rand
	CourseRepo *repository.CourseRepository
	EnrollRepo *repository.EnrollmentRepository
	LogRepo    *repository.LearningLogRepository
}

func NewDataGeneratorService(
	rng *rand.Rand,
	courseRepo *repository.CourseRepository,
	enrollRepo *repository.EnrollmentRepository,
	logRepo *repository.LearningLogRepository,
) *DataGeneratorService {
	return &DataGeneratorService{
		rng:        rng,
		CourseRepo: courseRepo,
		EnrollRepo: enrollRepo,
		LogRepo:    logRepo,
	}
}

func (s *DataGeneratorService) dropoutProbabilityFor(progress float64) float64 {
	bandStart := int(progress) / 10 * 10
	if p, ok := dropoutProbability[bandStart]; ok {
		return p
	}
	return 0.02
}

func (s *DataGeneratorService) dropoutReasonFor(progress float64) string {
	for _, pool := range reasonPools {
		if progress < pool.maxProgress {
			return pool.reasons[s.rng.Intn(len(pool.reasons))]
		}
	}
	return "其他"
}

// GenerateUserTimeline 生成单个学习者的事件时间线：
// 每次前进 2~8%，每个分段按概率决定是否在此离段；
// 到 100 则最后一条事件进度封顶为完课。
func (s *DataGeneratorService) GenerateUserTimeline(userID, courseID uint, courseDurationMin int, start time.Time) []model.LearningLog {
	logs := make([]model.LearningLog, 0, 16)
	progress := 0.0
	current := start

	for progress < 100 {
		if s.rng.Float64() < s.dropoutProbabilityFor(progress) {
			reason := s.dropoutReasonFor(progress)
			logs = append(logs, model.LearningLog{
				UserID:           userID,
				CourseID:         courseID,
				ProgressPercent:  roundTo1(progress),
				WatchDurationSec: 60 + s.rng.Intn(541),
				IsDropout:        true,
				DropoutReason:    &reason,
				LoggedAt:         current,
			})
			return logs
		}

		increment := 2 + s.rng.Float64()*6
		watchSec := int(increment / 100 * float64(courseDurationMin) * 60)
		progress += increment
		capped := progress
		if capped > 100 {
			capped = 100
		}

		logs = append(logs, model.LearningLog{
			UserID:           userID,
			CourseID:         courseID,
			ProgressPercent:  roundTo1(capped),
			WatchDurationSec: watchSec,
			LoggedAt:         current,
		})

		// 下次学习间隔 1 小时 ~ 3 天
		current = current.Add(time.Duration(1+s.rng.Intn(72)) * time.Hour)
	}
	return logs
}

func roundTo1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// SeedDemoData 建课程、报名并灌入合成事件日志
// startUserID 之前的用户 ID 留给真实账号
func (s *DataGeneratorService) SeedDemoData(numCourses, usersPerCourse int, startUserID uint) (int, error) {
	if numCourses > len(demoCourses) {
		numCourses = len(demoCourses)
	}

	totalLogs := 0
	userID := startUserID
	baseTime := time.Now().AddDate(0, 0, -30)

	for i := 0; i < numCourses; i++ {
		tpl := demoCourses[i]
		code := fmt.Sprintf("course_%03d", i+1)

		course, err := s.CourseRepo.GetByCode(code)
		if err != nil {
			return totalLogs, err
		}
		if course == nil {
			course = &model.Course{
				CourseCode:      code,
				Title:           tpl.title,
				Category:        tpl.category,
				Difficulty:      tpl.difficulty,
				DurationMinutes: 180 + s.rng.Intn(241),
				IsActive:        true,
			}
			if err := s.CourseRepo.Create(course); err != nil {
				return totalLogs, err
			}
		}

		enrollments := make([]model.Enrollment, 0, usersPerCourse)
		logs := make([]model.LearningLog, 0, usersPerCourse*12)

		for u := 0; u < usersPerCourse; u++ {
			userID++
			start := baseTime.Add(time.Duration(s.rng.Intn(24*14)) * time.Hour)
			timeline := s.GenerateUserTimeline(userID, course.ID, course.DurationMinutes, start)

			enrollment := model.Enrollment{
				UserID:     userID,
				CourseID:   course.ID,
				Status:     model.EnrollmentActive,
				EnrolledAt: start,
			}
			if len(timeline) > 0 {
				last := timeline[len(timeline)-1]
				enrollment.ProgressPercent = last.ProgressPercent
				if last.IsDropout {
					enrollment.Status = model.EnrollmentDropped
					droppedAt := last.LoggedAt
					enrollment.DroppedAt = &droppedAt
				} else if last.ProgressPercent >= 100 {
					enrollment.Status = model.EnrollmentCompleted
					completedAt := last.LoggedAt
					enrollment.CompletedAt = &completedAt
				}
			}
			enrollments = append(enrollments, enrollment)
			logs = append(logs, timeline...)
		}

		if err := s.EnrollRepo.BulkInsert(enrollments); err != nil {
			return totalLogs, err
		}
		if err := s.LogRepo.BulkInsert(logs); err != nil {
			return totalLogs, err
		}
		totalLogs += len(logs)
	}
	return totalLogs, nil
}
