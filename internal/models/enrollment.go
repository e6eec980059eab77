package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// An enrollment has a single state; removal is a hard delete.
const EnrollmentStatusActive EnrollmentStatus = "ACTIVE"

// Enrollment is the active relation between one student and one course,
// keyed by (course id, student business id).
type Enrollment struct {
	CourseID       int              `db:"course_id" json:"course_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentDetail enriches Enrollment with student and course context.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
}
