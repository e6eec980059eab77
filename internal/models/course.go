package models

import "time"

// MaxCreditHours caps a student's total concurrent course load.
const MaxCreditHours = 18

// Course represents a teachable unit with a hard seat capacity.
type Course struct {
	ID          int       `db:"id" json:"id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	CourseName  string    `db:"course_name" json:"course_name"`
	Description string    `db:"description" json:"description"`
	CreditHours int       `db:"credit_hours" json:"credit_hours"`
	Department  string    `db:"department" json:"department"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	MaxStudents int       `db:"max_students" json:"max_students"`
	TeacherID   *int      `db:"teacher_id" json:"teacher_id,omitempty"`
}

// CourseDetail enriches Course with the assigned teacher and seat usage.
type CourseDetail struct {
	Course
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	Enrolled    int     `db:"enrolled" json:"enrolled"`
}

// AvailableSeats returns the remaining capacity for the course.
func (c CourseDetail) AvailableSeats() int {
	if seats := c.MaxStudents - c.Enrolled; seats > 0 {
		return seats
	}
	return 0
}

// IsFull reports whether the course reached its seat capacity.
func (c CourseDetail) IsFull() bool {
	return c.Enrolled >= c.MaxStudents
}

// CourseFilter captures search parameters for listing courses.
type CourseFilter struct {
	Keyword  string
	Page     int
	PageSize int
}

// CourseStatistics is a point-in-time aggregate over the course set.
type CourseStatistics struct {
	TotalCourses           int            `json:"total_courses"`
	AverageEnrollment      float64        `json:"average_enrollment"`
	OccupancyRate          float64        `json:"occupancy_rate"`
	FullCourses            int            `json:"full_courses"`
	CoursesWithoutTeacher  int            `json:"courses_without_teacher"`
	DepartmentDistribution map[string]int `json:"department_distribution"`
}
