package service

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/wmesaf/basicschool-api/internal/models"
	"github.com/wmesaf/basicschool-api/internal/repository"
	"github.com/wmesaf/basicschool-api/pkg/database"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

type courseReader interface {
	FindByID(ctx context.Context, id int) (*models.CourseDetail, error)
}

type studentReader interface {
	FindStudentByBusinessID(ctx context.Context, studentID string) (*models.Student, error)
}

// EnrollmentService enforces the seat-capacity, uniqueness and
// credit-hour invariants for the student-course relation. All checks
// and the insert share a single transaction, so a failing check never
// leaves a row behind.
type EnrollmentService struct {
	db          *sqlx.DB
	enrollments *repository.EnrollmentRepository
	courses     courseReader
	students    studentReader
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(db *sqlx.DB, enrollments *repository.EnrollmentRepository, courses courseReader, students studentReader, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{db: db, enrollments: enrollments, courses: courses, students: students, metrics: metrics, logger: logger}
}

// Enroll registers a student into a course after every invariant check
// passes: the course and student exist, the course has a free seat, the
// pair has no active row, and the student stays within the credit-hour
// cap. The checks and the insert run inside one transaction.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID int, studentID string) (*models.Enrollment, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}
	student, err := s.students.FindStudentByBusinessID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load student")
	}

	var enrollment *models.Enrollment
	err = database.WithinTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.enrollments.WithTx(tx)

		count, err := repo.CountActive(ctx, courseID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to count enrollments")
		}
		if count >= course.MaxStudents {
			s.metrics.RecordEnrollmentRejection("course_full")
			return appErrors.ErrCourseFull
		}

		exists, err := repo.Exists(ctx, courseID, student.StudentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check enrollment")
		}
		if exists {
			s.metrics.RecordEnrollmentRejection("duplicate")
			return appErrors.ErrDuplicateEnrollment
		}

		hours, err := repo.ActiveCreditHours(ctx, student.StudentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to sum credit hours")
		}
		if hours+course.CreditHours > models.MaxCreditHours {
			s.metrics.RecordEnrollmentRejection("credit_hours")
			return appErrors.ErrCreditHoursExceeded
		}

		enrollment = &models.Enrollment{CourseID: courseID, StudentID: student.StudentID}
		return repo.Insert(ctx, enrollment)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEnrollment()
	s.logger.Info("student enrolled",
		zap.Int("course_id", courseID),
		zap.String("student_id", student.StudentID))
	return enrollment, nil
}

// Unenroll removes the matching enrollment row if present. It is
// idempotent: removing an absent enrollment reports false, not an error.
func (s *EnrollmentService) Unenroll(ctx context.Context, courseID int, studentID string) (bool, error) {
	rows, err := s.enrollments.Delete(ctx, courseID, studentID)
	if err != nil {
		return false, err
	}
	if rows > 0 {
		s.logger.Info("student unenrolled",
			zap.Int("course_id", courseID),
			zap.String("student_id", studentID))
	}
	return rows > 0, nil
}

// CurrentEnrollment returns the active enrollment count for a course.
func (s *EnrollmentService) CurrentEnrollment(ctx context.Context, courseID int) (int, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}
	return s.enrollments.CountActive(ctx, courseID)
}

// AvailableSeats returns the remaining capacity for a course.
func (s *EnrollmentService) AvailableSeats(ctx context.Context, courseID int) (int, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}
	count, err := s.enrollments.CountActive(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if seats := course.MaxStudents - count; seats > 0 {
		return seats, nil
	}
	return 0, nil
}

// Roster returns the enrollment rows for a course.
func (s *EnrollmentService) Roster(ctx context.Context, courseID int) ([]models.EnrollmentDetail, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}
	return s.enrollments.ListByCourse(ctx, courseID)
}
