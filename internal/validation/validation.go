package validation

import (
	"strings"
	"time"

	"github.com/wmesaf/basicschool-api/internal/models"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

// Business rule bounds carried over from the institutional rules.
const (
	MinCreditHours = 1
	MaxCreditHours = 5
	MinSeats       = 1
	MaxSeats       = 100
	MinStudentAge  = 5
	MinTeacherAge  = 21
	MinSalary      = 1000.0
)

// Pipeline performs stateless checks on proposed entities. Every check
// runs before any storage call, so a validation failure never leaves a
// partial write behind. Uniqueness pre-checks against the store are the
// caller's responsibility.
type Pipeline struct{}

// NewPipeline constructs the validation pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Course validates a proposed course, returning the first violated rule.
func (p *Pipeline) Course(c *models.Course) error {
	if c == nil {
		return rule("course is required")
	}
	if strings.TrimSpace(c.CourseCode) == "" {
		return rule("course code is required")
	}
	if strings.TrimSpace(c.CourseName) == "" {
		return rule("course name is required")
	}
	if c.CreditHours < MinCreditHours || c.CreditHours > MaxCreditHours {
		return rule("credit hours must be between 1 and 5")
	}
	if c.MaxStudents < MinSeats || c.MaxStudents > MaxSeats {
		return rule("max students must be between 1 and 100")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return rule("start and end dates are required")
	}
	if c.StartDate.After(c.EndDate) {
		return rule("start date cannot be after end date")
	}
	if c.StartDate.Before(time.Now().AddDate(0, -6, 0)) {
		return rule("start date cannot be more than 6 months in the past")
	}
	return nil
}

// Student validates a proposed student record.
func (p *Pipeline) Student(s *models.Student) error {
	if s == nil {
		return rule("student is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return rule("student name is required")
	}
	if strings.TrimSpace(s.StudentID) == "" {
		return rule("student id is required")
	}
	if s.Email != "" && !validEmail(s.Email) {
		return rule("email must contain '@' and '.'")
	}
	if s.BirthDate.IsZero() {
		return rule("birth date is required")
	}
	if s.BirthDate.After(time.Now()) {
		return rule("birth date cannot be in the future")
	}
	if ageAt(s.BirthDate, time.Now()) < MinStudentAge {
		return rule("student must be at least 5 years old")
	}
	if s.EnrollmentDate.After(time.Now()) {
		return rule("enrollment date cannot be in the future")
	}
	return nil
}

// Teacher validates a proposed teacher record.
func (p *Pipeline) Teacher(t *models.Teacher) error {
	if t == nil {
		return rule("teacher is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return rule("teacher name is required")
	}
	if strings.TrimSpace(t.TeacherID) == "" {
		return rule("teacher id is required")
	}
	if strings.TrimSpace(t.Subject) == "" {
		return rule("subject is required")
	}
	if t.Email != "" && !validEmail(t.Email) {
		return rule("email must contain '@' and '.'")
	}
	if t.Salary < 0 {
		return rule("salary cannot be negative")
	}
	if t.Salary < MinSalary {
		return rule("salary must be at least 1000")
	}
	if t.HireDate.After(time.Now()) {
		return rule("hire date cannot be in the future")
	}
	if t.BirthDate.IsZero() {
		return rule("birth date is required")
	}
	if ageAt(t.BirthDate, time.Now()) < MinTeacherAge {
		return rule("teacher must be at least 21 years old")
	}
	return nil
}

func rule(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func validEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

func ageAt(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	if at.YearDay() < birth.YearDay() {
		years--
	}
	return years
}
