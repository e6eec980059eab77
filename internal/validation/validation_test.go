package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wmesaf/basicschool-api/internal/models"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

func validCourse() *models.Course {
	now := time.Now()
	return &models.Course{
		CourseCode:  "MATH101",
		CourseName:  "Algebra I",
		CreditHours: 3,
		Department:  "Mathematics",
		StartDate:   now.AddDate(0, 1, 0),
		EndDate:     now.AddDate(0, 5, 0),
		MaxStudents: 30,
	}
}

func TestPipelineCourse(t *testing.T) {
	p := NewPipeline()

	tests := []struct {
		name    string
		mutate  func(c *models.Course)
		wantErr string
	}{
		{"valid", func(c *models.Course) {}, ""},
		{"missing code", func(c *models.Course) { c.CourseCode = "  " }, "course code is required"},
		{"missing name", func(c *models.Course) { c.CourseName = "" }, "course name is required"},
		{"zero credits", func(c *models.Course) { c.CreditHours = 0 }, "credit hours must be between 1 and 5"},
		{"too many credits", func(c *models.Course) { c.CreditHours = 6 }, "credit hours must be between 1 and 5"},
		{"zero seats", func(c *models.Course) { c.MaxStudents = 0 }, "max students must be between 1 and 100"},
		{"too many seats", func(c *models.Course) { c.MaxStudents = 101 }, "max students must be between 1 and 100"},
		{"start after end", func(c *models.Course) {
			c.StartDate = c.EndDate.AddDate(0, 1, 0)
		}, "start date cannot be after end date"},
		{"start too far past", func(c *models.Course) {
			c.StartDate = time.Now().AddDate(0, -7, 0)
			c.EndDate = time.Now().AddDate(0, 1, 0)
		}, "start date cannot be more than 6 months in the past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := validCourse()
			tt.mutate(course)
			err := p.Course(course)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPipelineCourseNil(t *testing.T) {
	require.Error(t, NewPipeline().Course(nil))
}

func validStudent() *models.Student {
	return &models.Student{
		PersonIdentity: models.PersonIdentity{
			Role:      models.RoleStudent,
			Name:      "Alice Johnson",
			Email:     "alice@example.org",
			BirthDate: time.Now().AddDate(-15, 0, 0),
		},
		StudentDetails: models.StudentDetails{
			StudentID:      "S-1001",
			Grade:          "9",
			EnrollmentDate: time.Now().AddDate(0, -1, 0),
		},
	}
}

func TestPipelineStudent(t *testing.T) {
	p := NewPipeline()

	tests := []struct {
		name    string
		mutate  func(s *models.Student)
		wantErr string
	}{
		{"valid", func(s *models.Student) {}, ""},
		{"empty email allowed", func(s *models.Student) { s.Email = "" }, ""},
		{"missing name", func(s *models.Student) { s.Name = " " }, "student name is required"},
		{"missing id", func(s *models.Student) { s.StudentID = "" }, "student id is required"},
		{"bad email", func(s *models.Student) { s.Email = "alice-at-example" }, "email must contain '@' and '.'"},
		{"future birth date", func(s *models.Student) { s.BirthDate = time.Now().AddDate(1, 0, 0) }, "birth date cannot be in the future"},
		{"too young", func(s *models.Student) { s.BirthDate = time.Now().AddDate(-4, 0, 0) }, "student must be at least 5 years old"},
		{"future enrollment", func(s *models.Student) { s.EnrollmentDate = time.Now().AddDate(0, 1, 0) }, "enrollment date cannot be in the future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := validStudent()
			tt.mutate(student)
			err := p.Student(student)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func validTeacher() *models.Teacher {
	return &models.Teacher{
		PersonIdentity: models.PersonIdentity{
			Role:      models.RoleTeacher,
			Name:      "Robert King",
			Email:     "rking@example.org",
			BirthDate: time.Now().AddDate(-40, 0, 0),
		},
		TeacherDetails: models.TeacherDetails{
			TeacherID: "T-2001",
			Subject:   "Physics",
			Salary:    52000,
			HireDate:  time.Now().AddDate(-3, 0, 0),
		},
	}
}

func TestPipelineTeacher(t *testing.T) {
	p := NewPipeline()

	tests := []struct {
		name    string
		mutate  func(tc *models.Teacher)
		wantErr string
	}{
		{"valid", func(tc *models.Teacher) {}, ""},
		{"missing subject", func(tc *models.Teacher) { tc.Subject = "" }, "subject is required"},
		{"negative salary", func(tc *models.Teacher) { tc.Salary = -1 }, "salary cannot be negative"},
		{"salary below minimum", func(tc *models.Teacher) { tc.Salary = 500 }, "salary must be at least 1000"},
		{"future hire date", func(tc *models.Teacher) { tc.HireDate = time.Now().AddDate(0, 1, 0) }, "hire date cannot be in the future"},
		{"too young", func(tc *models.Teacher) { tc.BirthDate = time.Now().AddDate(-20, 0, 0) }, "teacher must be at least 21 years old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			teacher := validTeacher()
			tt.mutate(teacher)
			err := p.Teacher(teacher)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
