package controller

import (
	"errors"
	"learning_dropout_backend/internal/service"
	"learning_dropout_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	AnalysisService *service.AnalysisService
	CourseService   *service.CourseService
}

func NewAnalysisController(analysisService *service.AnalysisService, courseService *service.CourseService) *AnalysisController {
	return &AnalysisController{
		AnalysisService: analysisService,
		CourseService:   courseService,
	}
}

func (c *AnalysisController) courseID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("courseID"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return 0, false
	}
	if ok, err := c.CourseService.Exists(uint(id)); err != nil {
		util.LogInternalError(ctx, err)
		return 0, false
	} else if !ok {
		util.NotFound(ctx)
		return 0, false
	}
	return uint(id), true
}

// @Summary 课程目录
// @Description 带报名/完课/离段统计的课程列表
// @Tags 分析
// @Produce json
// @Param category query string false "按分类过滤"
// @Param difficulty query string false "按难度过滤"
// @Param sort_by query string false "排序字段" default(enrollments)
// @Success 200 {object} util.Response
// @Router /api/analysis/courses [get]
func (c *AnalysisController) GetCourses(ctx *gin.Context) {
	items, err := c.AnalysisService.CourseCatalog(
		ctx.Query("category"),
		ctx.Query("difficulty"),
		ctx.DefaultQuery("sort_by", "enrollments"),
	)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"courses": items})
}

// @Summary 触发课程分析
// @Description 重新计算并原子替换该课程的分析代次
// @Tags 分析
// @Produce json
// @Security ApiKeyAuth
// @Param courseID path int true "课程ID"
// @Param strategy query string false "计数策略 stream|sql"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "同课程已有分析在执行"
// @Router /api/admin/analysis/course/{courseID}/run [post]
func (c *AnalysisController) RunAnalysis(ctx *gin.Context) {
	courseID, ok := c.courseID(ctx)
	if !ok {
		return
	}

	segments, err := c.AnalysisService.RunAnalysis(ctx.Request.Context(), courseID, ctx.Query("strategy"))
	if err != nil {
		if errors.Is(err, util.ErrAnalysisInProgress) {
			util.Conflict(ctx, err.Error())
			return
		}
		if errors.Is(err, util.ErrInvalidProgressEvent) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"courseId": courseID, "segments": segments})
}

// @Summary 分段离段分析
// @Description 课程当前代次的分段统计，没有则现场补算
// @Tags 分析
// @Produce json
// @Param courseID path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/analysis/course/{courseID}/segments [get]
func (c *AnalysisController) GetSegments(ctx *gin.Context) {
	courseID, ok := c.courseID(ctx)
	if !ok {
		return
	}

	segments, err := c.AnalysisService.GetSegments(ctx.Request.Context(), courseID)
	if err != nil {
		c.writeAnalysisError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"courseId": courseID, "segments": segments})
}

// @Summary 危险区间
// @Description 离段率达到阈值的分段，按离段率降序
// @Tags 分析
// @Produce json
// @Param courseID path int true "课程ID"
// @Param threshold query number false "离段率阈值 (%)" default(15.0)
// @Success 200 {object} util.Response
// @Router /api/analysis/course/{courseID}/danger-zones [get]
func (c *AnalysisController) GetDangerZones(ctx *gin.Context) {
	courseID, ok := c.courseID(ctx)
	if !ok {
		return
	}

	// -1 表示未指定，区别于显式的 threshold=0
	threshold, err := strconv.ParseFloat(ctx.DefaultQuery("threshold", "-1"), 64)
	if err != nil {
		util.BadRequest(ctx, "invalid threshold")
		return
	}

	zones, err := c.AnalysisService.GetDangerZones(ctx.Request.Context(), courseID, threshold)
	if err != nil {
		c.writeAnalysisError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"courseId": courseID, "dangerZones": zones})
}

// @Summary 离段原因分布
// @Description 离段原因 Top-K 直方图
// @Tags 分析
// @Produce json
// @Param courseID path int true "课程ID"
// @Param top query int false "返回原因数" default(5)
// @Success 200 {object} util.Response
// @Router /api/analysis/course/{courseID}/reasons [get]
func (c *AnalysisController) GetReasons(ctx *gin.Context) {
	courseID, ok := c.courseID(ctx)
	if !ok {
		return
	}

	topK, _ := strconv.Atoi(ctx.DefaultQuery("top", "0"))

	reasons, totalDropouts, err := c.AnalysisService.GetReasons(ctx.Request.Context(), courseID, topK)
	if err != nil {
		c.writeAnalysisError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"courseId":      courseID,
		"totalDropouts": totalDropouts,
		"reasons":       reasons,
	})
}

// @Summary 课程汇总
// @Description 课程整体离段统计与分段、危险区间、原因分布
// @Tags 分析
// @Produce json
// @Param courseID path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/analysis/course/{courseID}/summary [get]
func (c *AnalysisController) GetSummary(ctx *gin.Context) {
	courseID, ok := c.courseID(ctx)
	if !ok {
		return
	}

	summary, err := c.AnalysisService.GetSummary(ctx.Request.Context(), courseID)
	if err != nil {
		c.writeAnalysisError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// @Summary 图表数据
// @Description Chart.js 渲染用的分段数据
// @Tags 分析
// @Produce json
// @Param courseID path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/analysis/course/{courseID}/chart-data [get]
func (c *AnalysisController) GetChartData(ctx *gin.Context) {
	courseID, ok := c.courseID(ctx)
	if !ok {
		return
	}

	chart, err := c.AnalysisService.GetChartData(ctx.Request.Context(), courseID)
	if err != nil {
		c.writeAnalysisError(ctx, err)
		return
	}

	util.Success(ctx, chart)
}

func (c *AnalysisController) writeAnalysisError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAnalysisInProgress):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidProgressEvent):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrCourseNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
