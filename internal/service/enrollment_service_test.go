package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/wmesaf/basicschool-api/internal/models"
	"github.com/wmesaf/basicschool-api/internal/repository"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

type stubCourseReader struct {
	detail *models.CourseDetail
	err    error
}

func (s *stubCourseReader) FindByID(ctx context.Context, id int) (*models.CourseDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

type stubStudentReader struct {
	student *models.Student
	err     error
}

func (s *stubStudentReader) FindStudentByBusinessID(ctx context.Context, studentID string) (*models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.student, nil
}

func newServiceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseWith(maxStudents, creditHours int) *stubCourseReader {
	return &stubCourseReader{detail: &models.CourseDetail{
		Course: models.Course{ID: 9, CourseCode: "MATH101", CreditHours: creditHours, MaxStudents: maxStudents},
	}}
}

func enrolledStudent() *stubStudentReader {
	return &stubStudentReader{student: &models.Student{
		StudentDetails: models.StudentDetails{StudentID: "S-1001"},
	}}
}

func expectCapacityChecks(mock sqlmock.Sqlmock, count int, duplicate bool, hours int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs(9, models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))

	existsRows := sqlmock.NewRows([]string{"one"})
	if duplicate {
		existsRows.AddRow(1)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_id = $2 AND status = $3 LIMIT 1")).
		WithArgs(9, "S-1001", models.EnrollmentStatusActive).
		WillReturnRows(existsRows)

	if !duplicate {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(c.credit_hours), 0)")).
			WithArgs("S-1001", models.EnrollmentStatusActive).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(hours))
	}
}

func TestEnrollmentServiceEnrollSuccess(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(30, 3), enrolledStudent(), nil, nil)

	mock.ExpectBegin()
	expectCapacityChecks(mock, 5, false, 9)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_enrollments (course_id, student_id, enrollment_date, status)")).
		WithArgs(9, "S-1001", sqlmock.AnyArg(), models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment, err := svc.Enroll(context.Background(), 9, "S-1001")
	require.NoError(t, err)
	require.Equal(t, 9, enrollment.CourseID)
	require.Equal(t, "S-1001", enrollment.StudentID)
	require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceEnrollCourseFull(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	// Single-seat course, seat taken. No insert must happen.
	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(1, 3), enrolledStudent(), nil, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs(9, models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := svc.Enroll(context.Background(), 9, "S-1001")
	require.True(t, appErrors.HasCode(err, appErrors.ErrCourseFull))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(30, 3), enrolledStudent(), nil, nil)

	mock.ExpectBegin()
	expectCapacityChecks(mock, 5, true, 0)
	mock.ExpectRollback()

	_, err := svc.Enroll(context.Background(), 9, "S-1001")
	require.True(t, appErrors.HasCode(err, appErrors.ErrDuplicateEnrollment))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceEnrollCreditCap(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	// 16 active hours plus a 3-hour course breaches the 18-hour cap.
	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(30, 3), enrolledStudent(), nil, nil)

	mock.ExpectBegin()
	expectCapacityChecks(mock, 5, false, 16)
	mock.ExpectRollback()

	_, err := svc.Enroll(context.Background(), 9, "S-1001")
	require.True(t, appErrors.HasCode(err, appErrors.ErrCreditHoursExceeded))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceEnrollExactCreditCap(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	// Landing exactly on the cap is allowed.
	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(30, 3), enrolledStudent(), nil, nil)

	mock.ExpectBegin()
	expectCapacityChecks(mock, 5, false, 15)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_enrollments")).
		WithArgs(9, "S-1001", sqlmock.AnyArg(), models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Enroll(context.Background(), 9, "S-1001")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceEnrollUnknownCourse(t *testing.T) {
	db, _, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db),
		&stubCourseReader{err: sql.ErrNoRows}, enrolledStudent(), nil, nil)

	_, err := svc.Enroll(context.Background(), 42, "S-1001")
	require.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestEnrollmentServiceUnenrollIdempotent(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(30, 3), enrolledStudent(), nil, nil)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_enrollments WHERE course_id = $1 AND student_id = $2")).
		WithArgs(9, "S-1001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_enrollments WHERE course_id = $1 AND student_id = $2")).
		WithArgs(9, "S-1001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := svc.Unenroll(context.Background(), 9, "S-1001")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = svc.Unenroll(context.Background(), 9, "S-1001")
	require.NoError(t, err)
	require.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceAvailableSeats(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(30, 3), enrolledStudent(), nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1 AND status = $2")).
		WithArgs(9, models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(28))

	seats, err := svc.AvailableSeats(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, 2, seats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentServiceRoster(t *testing.T) {
	db, mock, cleanup := newServiceMock(t)
	defer cleanup()

	svc := NewEnrollmentService(db, repository.NewEnrollmentRepository(db), courseWith(30, 3), enrolledStudent(), nil, nil)

	rows := sqlmock.NewRows([]string{"course_id", "student_id", "enrollment_date", "status", "student_name", "course_code", "course_name"}).
		AddRow(9, "S-1001", time.Now(), models.EnrollmentStatusActive, "Alice Johnson", "MATH101", "Algebra I")
	mock.ExpectQuery(`SELECT e\.course_id, e\.student_id`).
		WithArgs(9, models.EnrollmentStatusActive).
		WillReturnRows(rows)

	roster, err := svc.Roster(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
