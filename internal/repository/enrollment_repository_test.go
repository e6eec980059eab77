package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/wmesaf/basicschool-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs(7, models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountActive(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 12, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_id = $2 AND status = $3 LIMIT 1")).
		WithArgs(7, "S-1001", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"one"}))

	exists, err := repo.Exists(context.Background(), 7, "S-1001")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryActiveCreditHours(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credit_hours), 0)")).
		WithArgs("S-1001", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(15))

	hours, err := repo.ActiveCreditHours(context.Background(), "S-1001")
	require.NoError(t, err)
	require.Equal(t, 15, hours)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryInsertDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_enrollments (course_id, student_id, enrollment_date, status)")).
		WithArgs(7, "S-1001", sqlmock.AnyArg(), models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{CourseID: 7, StudentID: "S-1001"}
	err := repo.Insert(context.Background(), enrollment)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.WithinDuration(t, time.Now().UTC(), enrollment.EnrollmentDate, time.Minute)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteAbsentRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_enrollments WHERE course_id = $1 AND student_id = $2")).
		WithArgs(7, "S-9999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.Delete(context.Background(), 7, "S-9999")
	require.NoError(t, err)
	require.Zero(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"course_id", "student_id", "enrollment_date", "status", "student_name", "course_code", "course_name"}).
		AddRow(7, "S-1001", time.Now(), models.EnrollmentStatusActive, "Alice Johnson", "MATH101", "Algebra I")
	mock.ExpectQuery(`SELECT e\.course_id, e\.student_id, e\.enrollment_date, e\.status`).
		WithArgs(7, models.EnrollmentStatusActive).
		WillReturnRows(rows)

	roster, err := repo.ListByCourse(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, "Alice Johnson", roster[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}
