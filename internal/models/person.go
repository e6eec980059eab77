package models

import "time"

// Role tags a person identity as one of the closed set of roles.
type Role string

// Supported roles.
const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// PersonIdentity is the base identity record shared by every role.
// It is owned by the person repository: created before any role row,
// deleted after it, always within the same transaction.
type PersonIdentity struct {
	ID        int       `db:"id" json:"id"`
	Role      Role      `db:"type" json:"role"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Address   string    `db:"address" json:"address"`
	BirthDate time.Time `db:"birth_date" json:"birth_date"`
}

// StudentDetails holds the student-specific extension of an identity.
type StudentDetails struct {
	StudentID      string    `db:"student_id" json:"student_id"`
	Grade          string    `db:"grade" json:"grade"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
}

// TeacherDetails holds the teacher-specific extension of an identity.
type TeacherDetails struct {
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Subject   string    `db:"subject" json:"subject"`
	Salary    float64   `db:"salary" json:"salary"`
	HireDate  time.Time `db:"hire_date" json:"hire_date"`
}

// Student combines the identity with its role details, matching the
// persons JOIN students row shape.
type Student struct {
	PersonIdentity
	StudentDetails
}

// Teacher combines the identity with its role details.
type Teacher struct {
	PersonIdentity
	TeacherDetails
}

// PersonFilter captures list and search parameters for persons.
type PersonFilter struct {
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
