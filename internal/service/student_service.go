package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wmesaf/basicschool-api/internal/models"
	"github.com/wmesaf/basicschool-api/internal/validation"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

type studentStore interface {
	CreateStudent(ctx context.Context, student *models.Student) error
	DeleteStudent(ctx context.Context, personID int) (int64, error)
	UpdateStudent(ctx context.Context, student *models.Student) (int64, error)
	FindStudentByBusinessID(ctx context.Context, studentID string) (*models.Student, error)
	FindStudentByPersonID(ctx context.Context, personID int) (*models.Student, error)
	ExistsStudentID(ctx context.Context, studentID string) (bool, error)
	ListStudents(ctx context.Context, filter models.PersonFilter) ([]models.Student, int, error)
}

// CreateStudentRequest describes the student creation payload.
type CreateStudentRequest struct {
	StudentID      string    `json:"student_id" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	BirthDate      time.Time `json:"birth_date" validate:"required"`
	Grade          string    `json:"grade"`
	EnrollmentDate time.Time `json:"enrollment_date"`
}

// UpdateStudentRequest describes the mutable student fields. The
// business student id is immutable once created.
type UpdateStudentRequest struct {
	Name           string    `json:"name" validate:"required"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	BirthDate      time.Time `json:"birth_date" validate:"required"`
	Grade          string    `json:"grade"`
	EnrollmentDate time.Time `json:"enrollment_date"`
}

// StudentService manages student records: the identity and role rows
// are created and deleted together by the person repository.
type StudentService struct {
	persons   studentStore
	pipeline  *validation.Pipeline
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(persons studentStore, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{persons: persons, pipeline: validation.NewPipeline(), validator: validate, logger: logger}
}

// Create validates and persists a new student record.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.EnrollmentDate.IsZero() {
		req.EnrollmentDate = time.Now().UTC()
	}
	student := &models.Student{
		PersonIdentity: models.PersonIdentity{
			Role:      models.RoleStudent,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			BirthDate: req.BirthDate,
		},
		StudentDetails: models.StudentDetails{
			StudentID:      req.StudentID,
			Grade:          req.Grade,
			EnrollmentDate: req.EnrollmentDate,
		},
	}
	if err := s.pipeline.Student(student); err != nil {
		return nil, err
	}
	exists, err := s.persons.ExistsStudentID(ctx, student.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
	}
	if err := s.persons.CreateStudent(ctx, student); err != nil {
		return nil, err
	}
	s.logger.Info("student created", zap.Int("person_id", student.ID), zap.String("student_id", student.StudentID))
	return student, nil
}

// Get returns a student by business id.
func (s *StudentService) Get(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.persons.FindStudentByBusinessID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load student")
	}
	return student, nil
}

// List returns students matching the filter with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.PersonFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.persons.ListStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update validates and overwrites the mutable fields of a student.
func (s *StudentService) Update(ctx context.Context, studentID string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	existing, err := s.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		PersonIdentity: models.PersonIdentity{
			ID:        existing.ID,
			Role:      models.RoleStudent,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			BirthDate: req.BirthDate,
		},
		StudentDetails: models.StudentDetails{
			StudentID:      existing.StudentID,
			Grade:          req.Grade,
			EnrollmentDate: req.EnrollmentDate,
		},
	}
	if student.EnrollmentDate.IsZero() {
		student.EnrollmentDate = existing.EnrollmentDate
	}
	if err := s.pipeline.Student(student); err != nil {
		return nil, err
	}
	if _, err := s.persons.UpdateStudent(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Delete removes the student role row and its identity row together.
// It returns the count of rows removed.
func (s *StudentService) Delete(ctx context.Context, studentID string) (int64, error) {
	existing, err := s.Get(ctx, studentID)
	if err != nil {
		return 0, err
	}
	rows, err := s.persons.DeleteStudent(ctx, existing.ID)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	s.logger.Info("student deleted", zap.Int("person_id", existing.ID), zap.String("student_id", studentID))
	return rows, nil
}
