package controller

import (
	"learning_dropout_backend/internal/service"
	"learning_dropout_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	ReportService    *service.ReportService
	CourseService    *service.CourseService
	GeneratorFactory func(seed int64) *service.DataGeneratorService
}

func NewAdminController(
	reportService *service.ReportService,
	courseService *service.CourseService,
	generatorFactory func(seed int64) *service.DataGeneratorService,
) *AdminController {
	return &AdminController{
		ReportService:    reportService,
		CourseService:    courseService,
		GeneratorFactory: generatorFactory,
	}
}

type seedRequest struct {
	Seed           int64 `json:"seed"`
	NumCourses     int   `json:"numCourses"`
	UsersPerCourse int   `json:"usersPerCourse"`
}

// @Summary 灌入演示数据
// @Description 生成合成课程、报名与事件日志；seed 相同则结果可复现
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body seedRequest true "生成参数"
// @Success 200 {object} util.Response
// @Router /api/admin/seed [post]
func (c *AdminController) SeedDemoData(ctx *gin.Context) {
	var req seedRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.NumCourses <= 0 {
		req.NumCourses = 5
	}
	if req.UsersPerCourse <= 0 {
		req.UsersPerCourse = 100
	}
	if req.Seed == 0 {
		req.Seed = 42
	}

	generator := c.GeneratorFactory(req.Seed)
	totalLogs, err := generator.SeedDemoData(req.NumCourses, req.UsersPerCourse, 10000)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"courses":   req.NumCourses,
		"users":     req.NumCourses * req.UsersPerCourse,
		"totalLogs": totalLogs,
	})
}

// @Summary 导出课程报告
// @Description 渲染 CSV 报告并写入配置的存储后端
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param courseID path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/admin/reports/course/{courseID}/export [post]
func (c *AdminController) ExportReport(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("courseID"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	if ok, err := c.CourseService.Exists(uint(id)); err != nil {
		util.LogInternalError(ctx, err)
		return
	} else if !ok {
		util.NotFound(ctx)
		return
	}

	url, err := c.ReportService.ExportCourseReport(ctx.Request.Context(), uint(id))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}
