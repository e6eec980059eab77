package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wmesaf/basicschool-api/internal/models"
	"github.com/wmesaf/basicschool-api/pkg/database"
)

// CourseRepository handles persistence of courses. The cascading delete
// is the only multi-statement mutation it owns and runs through the
// shared transaction primitive.
type CourseRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db, ext: db}
}

// WithTx returns a copy bound to the given transaction for reads and
// single-statement writes composed by a caller-owned transaction.
func (r *CourseRepository) WithTx(tx *sqlx.Tx) *CourseRepository {
	return &CourseRepository{db: r.db, ext: tx}
}

const courseDetailColumns = `c.id, c.course_code, c.course_name, c.description, c.credit_hours,
        c.department, c.start_date, c.end_date, c.max_students, c.teacher_id,
        p.name AS teacher_name,
        (SELECT COUNT(*) FROM course_enrollments e WHERE e.course_id = c.id AND e.status = $1) AS enrolled`

const courseDetailBase = `FROM courses c
        LEFT JOIN teachers t ON t.person_id = c.teacher_id
        LEFT JOIN persons p ON p.id = t.person_id`

// Create persists a new course and returns the assigned surrogate id.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (int, error) {
	const query = `INSERT INTO courses (course_code, course_name, description, credit_hours,
                department, start_date, end_date, max_students, teacher_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`
	if err := sqlx.GetContext(ctx, r.ext, &course.ID, query,
		course.CourseCode, course.CourseName, course.Description, course.CreditHours,
		course.Department, course.StartDate, course.EndDate, course.MaxStudents, course.TeacherID); err != nil {
		return 0, fmt.Errorf("create course: %w", err)
	}
	return course.ID, nil
}

// FindByID returns a course with teacher and seat usage context.
func (r *CourseRepository) FindByID(ctx context.Context, id int) (*models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.id = $2`, courseDetailColumns, courseDetailBase)
	var detail models.CourseDetail
	if err := sqlx.GetContext(ctx, r.ext, &detail, query, models.EnrollmentStatusActive, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByCode returns a course by its unique business code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.course_code = $2`, courseDetailColumns, courseDetailBase)
	var detail models.CourseDetail
	if err := sqlx.GetContext(ctx, r.ext, &detail, query, models.EnrollmentStatusActive, code); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsCode checks whether a course code is already taken.
func (r *CourseRepository) ExistsCode(ctx context.Context, code string) (bool, error) {
	var one int
	if err := sqlx.GetContext(ctx, r.ext, &one, "SELECT 1 FROM courses WHERE course_code = $1 LIMIT 1", code); err != nil {
		if err == errNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Update overwrites the mutable fields of a course. The course code is
// immutable once created and is not part of the statement.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) (int64, error) {
	const query = `UPDATE courses
        SET course_name = $2, description = $3, credit_hours = $4, department = $5,
            start_date = $6, end_date = $7, max_students = $8, teacher_id = $9
        WHERE id = $1`
	res, err := r.ext.ExecContext(ctx, query,
		course.ID, course.CourseName, course.Description, course.CreditHours, course.Department,
		course.StartDate, course.EndDate, course.MaxStudents, course.TeacherID)
	if err != nil {
		return 0, fmt.Errorf("update course: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update course rows: %w", err)
	}
	return rows, nil
}

// DeleteCascade removes all enrollments for the course and then the
// course row inside one transaction. It returns the number of course
// rows removed; on any failure both deletes are rolled back.
func (r *CourseRepository) DeleteCascade(ctx context.Context, id int) (int64, error) {
	var courseRows int64
	err := database.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM course_enrollments WHERE course_id = $1", id); err != nil {
			return storageErr(err, "delete course enrollments")
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
		if err != nil {
			return storageErr(err, "delete course")
		}
		if courseRows, err = res.RowsAffected(); err != nil {
			return storageErr(err, "course rows affected")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return courseRows, nil
}

// Search returns courses whose code, name or department matches the keyword.
func (r *CourseRepository) Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	clause := ""
	args := []interface{}{models.EnrollmentStatusActive}
	if filter.Keyword != "" {
		clause = " WHERE (c.course_code ILIKE $2 OR c.course_name ILIKE $2 OR c.department ILIKE $2)"
		args = append(args, "%"+filter.Keyword+"%")
	}

	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY c.course_code LIMIT %d OFFSET %d`,
		courseDetailColumns, courseDetailBase, clause, size, offset)
	var courses []models.CourseDetail
	if err := sqlx.SelectContext(ctx, r.ext, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search courses: %w", err)
	}

	countArgs := args[1:]
	countClause := ""
	if filter.Keyword != "" {
		countClause = " WHERE (c.course_code ILIKE $1 OR c.course_name ILIKE $1 OR c.department ILIKE $1)"
	}
	var total int
	if err := sqlx.GetContext(ctx, r.ext, &total, "SELECT COUNT(*) FROM courses c"+countClause, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ByTeacher returns courses assigned to the given teacher identity.
func (r *CourseRepository) ByTeacher(ctx context.Context, teacherPersonID int) ([]models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.teacher_id = $2 ORDER BY c.course_code`,
		courseDetailColumns, courseDetailBase)
	var courses []models.CourseDetail
	if err := sqlx.SelectContext(ctx, r.ext, &courses, query, models.EnrollmentStatusActive, teacherPersonID); err != nil {
		return nil, fmt.Errorf("courses by teacher: %w", err)
	}
	return courses, nil
}

// ByStudent returns courses the student is actively enrolled in.
func (r *CourseRepository) ByStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        JOIN course_enrollments ce ON ce.course_id = c.id AND ce.student_id = $2 AND ce.status = $1
        ORDER BY c.course_code`, courseDetailColumns, courseDetailBase)
	var courses []models.CourseDetail
	if err := sqlx.SelectContext(ctx, r.ext, &courses, query, models.EnrollmentStatusActive, studentID); err != nil {
		return nil, fmt.Errorf("courses by student: %w", err)
	}
	return courses, nil
}

// ListAllWithUsage returns every course with its seat usage, the row set
// statistics are derived from.
func (r *CourseRepository) ListAllWithUsage(ctx context.Context) ([]models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s ORDER BY c.course_code`, courseDetailColumns, courseDetailBase)
	var courses []models.CourseDetail
	if err := sqlx.SelectContext(ctx, r.ext, &courses, query, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}
