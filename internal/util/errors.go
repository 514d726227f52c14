package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCourseNotFound     = errors.New("course not found")

	// ErrAnalysisInProgress 同课程已有分析在执行，调用方可稍后重试
	ErrAnalysisInProgress = errors.New("analysis already in progress for this course")

	// ErrInvalidProgressEvent 事件数据越界（进度超出 0~100 或观看时长为负）
	ErrInvalidProgressEvent = errors.New("invalid progress event")
)
