package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/wmesaf/basicschool-api/internal/models"
	"github.com/wmesaf/basicschool-api/pkg/database"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

// PersonRepository owns the persons table and its role extensions.
// The identity row and the role row are always written and removed as
// one transactional unit: the role insert failing rolls the identity
// insert back, and a delete removes both rows or neither.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs the repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

const nextIDQuery = `SELECT COALESCE(MAX(id), 0) + 1 FROM persons`

// NextID allocates the next identity value. Identities are never reused
// while records referencing them exist; gaps left by deletions stay
// until ReorganizeIdentities is invoked explicitly.
func (r *PersonRepository) NextID(ctx context.Context) (int, error) {
	var id int
	if err := r.db.GetContext(ctx, &id, nextIDQuery); err != nil {
		return 0, fmt.Errorf("next person id: %w", err)
	}
	return id, nil
}

const insertPersonQuery = `INSERT INTO persons (id, type, name, email, phone, address, birth_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

// CreateStudent inserts the identity row then the student row in one
// transaction and stores the allocated id on the record.
func (r *PersonRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	student.Role = models.RoleStudent
	return database.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := sqlx.GetContext(ctx, tx, &student.ID, nextIDQuery); err != nil {
			return storageErr(err, "allocate student identity")
		}
		if _, err := tx.ExecContext(ctx, insertPersonQuery,
			student.ID, student.Role, student.Name, student.Email, student.Phone, student.Address, student.BirthDate); err != nil {
			return storageErr(err, "insert person")
		}
		const query = `INSERT INTO students (person_id, student_id, grade, enrollment_date)
                VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, query,
			student.ID, student.StudentID, student.Grade, student.EnrollmentDate); err != nil {
			return storageErr(err, "insert student")
		}
		return nil
	})
}

// CreateTeacher inserts the identity row then the teacher row in one transaction.
func (r *PersonRepository) CreateTeacher(ctx context.Context, teacher *models.Teacher) error {
	teacher.Role = models.RoleTeacher
	return database.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := sqlx.GetContext(ctx, tx, &teacher.ID, nextIDQuery); err != nil {
			return storageErr(err, "allocate teacher identity")
		}
		if _, err := tx.ExecContext(ctx, insertPersonQuery,
			teacher.ID, teacher.Role, teacher.Name, teacher.Email, teacher.Phone, teacher.Address, teacher.BirthDate); err != nil {
			return storageErr(err, "insert person")
		}
		const query = `INSERT INTO teachers (person_id, teacher_id, subject, salary, hire_date)
                VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, query,
			teacher.ID, teacher.TeacherID, teacher.Subject, teacher.Salary, teacher.HireDate); err != nil {
			return storageErr(err, "insert teacher")
		}
		return nil
	})
}

// DeleteStudent removes the student row then the identity row in one
// transaction and returns the total count of rows affected.
func (r *PersonRepository) DeleteStudent(ctx context.Context, personID int) (int64, error) {
	return r.deleteRolePerson(ctx, personID, "DELETE FROM students WHERE person_id = $1")
}

// DeleteTeacher removes the teacher row then the identity row in one transaction.
func (r *PersonRepository) DeleteTeacher(ctx context.Context, personID int) (int64, error) {
	return r.deleteRolePerson(ctx, personID, "DELETE FROM teachers WHERE person_id = $1")
}

func (r *PersonRepository) deleteRolePerson(ctx context.Context, personID int, roleDelete string) (int64, error) {
	var affected int64
	err := database.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		roleRes, err := tx.ExecContext(ctx, roleDelete, personID)
		if err != nil {
			return storageErr(err, "delete role row")
		}
		roleRows, err := roleRes.RowsAffected()
		if err != nil {
			return storageErr(err, "role rows affected")
		}
		personRes, err := tx.ExecContext(ctx, "DELETE FROM persons WHERE id = $1", personID)
		if err != nil {
			return storageErr(err, "delete person")
		}
		personRows, err := personRes.RowsAffected()
		if err != nil {
			return storageErr(err, "person rows affected")
		}
		affected = roleRows + personRows
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

const studentColumns = `p.id, p.type, p.name, p.email, p.phone, p.address, p.birth_date,
        s.student_id, s.grade, s.enrollment_date`

// FindStudentByPersonID returns the student joined with its identity row.
func (r *PersonRepository) FindStudentByPersonID(ctx context.Context, personID int) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons p JOIN students s ON s.person_id = p.id WHERE p.id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, personID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindStudentByBusinessID returns the student matching the business key.
func (r *PersonRepository) FindStudentByBusinessID(ctx context.Context, studentID string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons p JOIN students s ON s.person_id = p.id WHERE s.student_id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		return nil, err
	}
	return &student, nil
}

const teacherColumns = `p.id, p.type, p.name, p.email, p.phone, p.address, p.birth_date,
        t.teacher_id, t.subject, t.salary, t.hire_date`

// FindTeacherByPersonID returns the teacher joined with its identity row.
func (r *PersonRepository) FindTeacherByPersonID(ctx context.Context, personID int) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons p JOIN teachers t ON t.person_id = p.id WHERE p.id = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, personID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindTeacherByBusinessID returns the teacher matching the business key.
func (r *PersonRepository) FindTeacherByBusinessID(ctx context.Context, teacherID string) (*models.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons p JOIN teachers t ON t.person_id = p.id WHERE t.teacher_id = $1`, teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, teacherID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsStudentID checks whether a student business id is taken.
func (r *PersonRepository) ExistsStudentID(ctx context.Context, studentID string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM students WHERE student_id = $1 LIMIT 1", studentID)
}

// ExistsTeacherID checks whether a teacher business id is taken.
func (r *PersonRepository) ExistsTeacherID(ctx context.Context, teacherID string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM teachers WHERE teacher_id = $1 LIMIT 1", teacherID)
}

func (r *PersonRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var one int
	if err := r.db.GetContext(ctx, &one, query, arg); err != nil {
		if err == errNoRows {
			return false, nil
		}
		return false, fmt.Errorf("existence check: %w", err)
	}
	return true, nil
}

// ListStudents returns students matching the filter with a total count.
func (r *PersonRepository) ListStudents(ctx context.Context, filter models.PersonFilter) ([]models.Student, int, error) {
	base := `FROM persons p JOIN students s ON s.person_id = p.id`
	clause, args := searchClause(filter.Search, "p.name", "s.student_id")
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY p.id LIMIT %d OFFSET %d`, studentColumns, base, clause, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s%s", base, clause), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListTeachers returns teachers matching the filter with a total count.
func (r *PersonRepository) ListTeachers(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, int, error) {
	base := `FROM persons p JOIN teachers t ON t.person_id = p.id`
	clause, args := searchClause(filter.Search, "p.name", "t.teacher_id")
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY p.id LIMIT %d OFFSET %d`, teacherColumns, base, clause, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s%s", base, clause), args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// UpdateStudent overwrites the mutable identity and role fields.
// The business student id is immutable once created.
func (r *PersonRepository) UpdateStudent(ctx context.Context, student *models.Student) (int64, error) {
	var affected int64
	err := database.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE persons SET name = $2, email = $3, phone = $4, address = $5, birth_date = $6 WHERE id = $1 AND type = $7`,
			student.ID, student.Name, student.Email, student.Phone, student.Address, student.BirthDate, models.RoleStudent)
		if err != nil {
			return storageErr(err, "update person")
		}
		if affected, err = res.RowsAffected(); err != nil {
			return storageErr(err, "person rows affected")
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE students SET grade = $2, enrollment_date = $3 WHERE person_id = $1`,
			student.ID, student.Grade, student.EnrollmentDate); err != nil {
			return storageErr(err, "update student")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// UpdateTeacher overwrites the mutable identity and role fields.
func (r *PersonRepository) UpdateTeacher(ctx context.Context, teacher *models.Teacher) (int64, error) {
	var affected int64
	err := database.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE persons SET name = $2, email = $3, phone = $4, address = $5, birth_date = $6 WHERE id = $1 AND type = $7`,
			teacher.ID, teacher.Name, teacher.Email, teacher.Phone, teacher.Address, teacher.BirthDate, models.RoleTeacher)
		if err != nil {
			return storageErr(err, "update person")
		}
		if affected, err = res.RowsAffected(); err != nil {
			return storageErr(err, "person rows affected")
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE teachers SET subject = $2, salary = $3, hire_date = $4 WHERE person_id = $1`,
			teacher.ID, teacher.Subject, teacher.Salary, teacher.HireDate); err != nil {
			return storageErr(err, "update teacher")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ReorganizeIdentities rewrites the persons table so remaining rows get
// a contiguous ascending sequence starting at 1, preserving original
// relative order, and remaps every referencing row in the same
// transaction. It takes exclusive locks because it invalidates every
// previously issued identity outside the active record set. Callers
// must treat this as a rarely-invoked maintenance operation.
func (r *PersonRepository) ReorganizeIdentities(ctx context.Context) (int, error) {
	var total int
	err := database.WithinTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Renumbered columns are primary keys, so each table is
		// rewritten through negated values first and flipped back
		// once every row carries its final id. Foreign keys on these
		// columns are declared DEFERRABLE and checked at commit.
		statements := []string{
			`LOCK TABLE persons, students, teachers, courses IN ACCESS EXCLUSIVE MODE`,
			`CREATE TEMPORARY TABLE person_id_map ON COMMIT DROP AS
                SELECT id AS old_id, (ROW_NUMBER() OVER (ORDER BY id))::INT AS new_id FROM persons`,
			`SET CONSTRAINTS ALL DEFERRED`,
			`UPDATE persons p SET id = -m.new_id FROM person_id_map m WHERE p.id = m.old_id`,
			`UPDATE students s SET person_id = -m.new_id FROM person_id_map m WHERE s.person_id = m.old_id`,
			`UPDATE teachers t SET person_id = -m.new_id FROM person_id_map m WHERE t.person_id = m.old_id`,
			`UPDATE courses c SET teacher_id = m.new_id FROM person_id_map m WHERE c.teacher_id = m.old_id`,
			`UPDATE persons SET id = -id WHERE id < 0`,
			`UPDATE students SET person_id = -person_id WHERE person_id < 0`,
			`UPDATE teachers SET person_id = -person_id WHERE person_id < 0`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return storageErr(err, "reorganize identities")
			}
		}
		if err := sqlx.GetContext(ctx, tx, &total, "SELECT COUNT(*) FROM persons"); err != nil {
			return storageErr(err, "count persons")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func storageErr(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, message)
}
