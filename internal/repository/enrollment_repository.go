package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wmesaf/basicschool-api/internal/models"
)

// EnrollmentRepository handles persistence of the student-course
// relation. Enrollment rows are only ever created or removed here.
type EnrollmentRepository struct {
	ext sqlx.ExtContext
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{ext: db}
}

// WithTx returns a copy bound to the given transaction so the
// capacity checks and the insert share one transaction boundary.
func (r *EnrollmentRepository) WithTx(tx *sqlx.Tx) *EnrollmentRepository {
	return &EnrollmentRepository{ext: tx}
}

// CountActive returns the number of active enrollments for a course.
func (r *EnrollmentRepository) CountActive(ctx context.Context, courseID int) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1 AND status = $2`
	if err := sqlx.GetContext(ctx, r.ext, &count, query, courseID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Exists checks whether the (course, student) pair already has an active row.
func (r *EnrollmentRepository) Exists(ctx context.Context, courseID int, studentID string) (bool, error) {
	var one int
	const query = `SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_id = $2 AND status = $3 LIMIT 1`
	if err := sqlx.GetContext(ctx, r.ext, &one, query, courseID, studentID, models.EnrollmentStatusActive); err != nil {
		if err == errNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ActiveCreditHours sums the credit hours of the student's active enrollments.
func (r *EnrollmentRepository) ActiveCreditHours(ctx context.Context, studentID string) (int, error) {
	var hours int
	const query = `SELECT COALESCE(SUM(c.credit_hours), 0)
        FROM course_enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 AND e.status = $2`
	if err := sqlx.GetContext(ctx, r.ext, &hours, query, studentID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("sum credit hours: %w", err)
	}
	return hours, nil
}

// Insert persists a new enrollment row.
func (r *EnrollmentRepository) Insert(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO course_enrollments (course_id, student_id, enrollment_date, status)
        VALUES ($1, $2, $3, $4)`
	if _, err := r.ext.ExecContext(ctx, query,
		enrollment.CourseID, enrollment.StudentID, enrollment.EnrollmentDate, enrollment.Status); err != nil {
		return storageErr(err, "insert enrollment")
	}
	return nil
}

// Delete removes the matching enrollment row and reports how many rows
// were removed. Removing an absent enrollment is not an error.
func (r *EnrollmentRepository) Delete(ctx context.Context, courseID int, studentID string) (int64, error) {
	const query = `DELETE FROM course_enrollments WHERE course_id = $1 AND student_id = $2`
	res, err := r.ext.ExecContext(ctx, query, courseID, studentID)
	if err != nil {
		return 0, storageErr(err, "delete enrollment")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(err, "enrollment rows affected")
	}
	return rows, nil
}

// ListByCourse returns enrollment detail rows for a course roster.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.course_id, e.student_id, e.enrollment_date, e.status,
                p.name AS student_name, c.course_code, c.course_name
        FROM course_enrollments e
        JOIN students s ON s.student_id = e.student_id
        JOIN persons p ON p.id = s.person_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.course_id = $1 AND e.status = $2
        ORDER BY p.name`
	var details []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, r.ext, &details, query, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list course roster: %w", err)
	}
	return details, nil
}

// ListByStudent returns the student's active enrollments with course context.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.course_id, e.student_id, e.enrollment_date, e.status,
                p.name AS student_name, c.course_code, c.course_name
        FROM course_enrollments e
        JOIN students s ON s.student_id = e.student_id
        JOIN persons p ON p.id = s.person_id
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1 AND e.status = $2
        ORDER BY c.course_code`
	var details []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, r.ext, &details, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return details, nil
}
