package repository

import (
	"context"
	"errors"
	"learning_dropout_backend/internal/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestAggregateSegmentsScansRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)

	rows := sqlmock.NewRows([]string{"segment_start", "segment_end", "reached_count", "dropout_count"}).
		AddRow(0, 10, 100, 12).
		AddRow(10, 20, 88, 5).
		AddRow(20, 30, 83, 0)

	mock.ExpectQuery("WITH RECURSIVE segment_series").WillReturnRows(rows)

	counts, err := repo.AggregateSegments(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, counts, 3)

	assert.Equal(t, 0, counts[0].SegmentStart)
	assert.Equal(t, 10, counts[0].SegmentEnd)
	assert.Equal(t, 100, counts[0].ReachedCount)
	assert.Equal(t, 12, counts[0].DropoutCount)
	assert.Equal(t, 0, counts[2].DropoutCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceGenerationDeletesThenInserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)

	segments := []model.DropoutAnalysis{
		{CourseID: 1, GenerationID: "gen-1", SegmentStart: 0, SegmentEnd: 10, ReachedCount: 10, DropoutCount: 2, DropoutRate: 20, DropoutShare: 100, RiskLevel: model.RiskCritical, AnalyzedAt: time.Now()},
		{CourseID: 1, GenerationID: "gen-1", SegmentStart: 10, SegmentEnd: 20, ReachedCount: 8, RiskLevel: model.RiskLow, AnalyzedAt: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `dropout_analyses` WHERE course_id = ?")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `dropout_analyses`")).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	err := repo.ReplaceGeneration(context.Background(), 1, segments)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceGenerationRollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)

	segments := []model.DropoutAnalysis{
		{CourseID: 1, GenerationID: "gen-2", SegmentStart: 0, SegmentEnd: 10},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `dropout_analyses`")).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `dropout_analyses`")).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err := repo.ReplaceGeneration(context.Background(), 1, segments)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceGenerationEmptySegmentsOnlyDeletes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `dropout_analyses`")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.ReplaceGeneration(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestGenerationOrdersBySegmentStart(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "generation_id", "segment_start", "segment_end", "reached_count", "dropout_count", "dropout_rate", "dropout_share", "risk_level"}).
		AddRow(1, 1, "gen-1", 0, 10, 100, 12, 12.0, 70.59, "medium").
		AddRow(2, 1, "gen-1", 10, 20, 88, 5, 5.68, 29.41, "low")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `dropout_analyses` WHERE course_id = ? ORDER BY segment_start ASC")).
		WithArgs(1).
		WillReturnRows(rows)

	segments, err := repo.GetLatestGeneration(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "gen-1", segments[0].GenerationID)
	assert.Equal(t, model.RiskMedium, segments[0].RiskLevel)
	assert.Equal(t, 0, segments[0].SegmentStart)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByCourseCountsEnrollments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `enrollments` WHERE course_id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(120))

	count, err := repo.CountByCourse(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 120, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventsByCourseOrdering(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLearningLogRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "progress_percent", "watch_duration_sec", "is_dropout", "logged_at"}).
		AddRow(1, 10, 1, 5.0, 300, false, time.Now().Add(-2*time.Hour)).
		AddRow(2, 10, 1, 12.0, 400, true, time.Now().Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `learning_logs` WHERE course_id = ? ORDER BY logged_at ASC, id ASC")).
		WithArgs(1).
		WillReturnRows(rows)

	logs, err := repo.GetEventsByCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.False(t, logs[0].IsDropout)
	assert.True(t, logs[1].IsDropout)

	assert.NoError(t, mock.ExpectationsWereMet())
}
