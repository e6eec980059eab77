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

type teacherStore interface {
	CreateTeacher(ctx context.Context, teacher *models.Teacher) error
	DeleteTeacher(ctx context.Context, personID int) (int64, error)
	UpdateTeacher(ctx context.Context, teacher *models.Teacher) (int64, error)
	FindTeacherByPersonID(ctx context.Context, personID int) (*models.Teacher, error)
	FindTeacherByBusinessID(ctx context.Context, teacherID string) (*models.Teacher, error)
	ExistsTeacherID(ctx context.Context, teacherID string) (bool, error)
	ListTeachers(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, int, error)
}

// CreateTeacherRequest describes the teacher creation payload.
type CreateTeacherRequest struct {
	TeacherID string    `json:"teacher_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Subject   string    `json:"subject" validate:"required"`
	Salary    float64   `json:"salary" validate:"required"`
	HireDate  time.Time `json:"hire_date"`
}

// UpdateTeacherRequest describes the mutable teacher fields.
type UpdateTeacherRequest struct {
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Subject   string    `json:"subject" validate:"required"`
	Salary    float64   `json:"salary" validate:"required"`
	HireDate  time.Time `json:"hire_date"`
}

// TeacherService manages teacher records over the person repository.
type TeacherService struct {
	persons   teacherStore
	pipeline  *validation.Pipeline
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(persons teacherStore, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{persons: persons, pipeline: validation.NewPipeline(), validator: validate, logger: logger}
}

// Create validates and persists a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if req.HireDate.IsZero() {
		req.HireDate = time.Now().UTC()
	}
	teacher := &models.Teacher{
		PersonIdentity: models.PersonIdentity{
			Role:      models.RoleTeacher,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			BirthDate: req.BirthDate,
		},
		TeacherDetails: models.TeacherDetails{
			TeacherID: req.TeacherID,
			Subject:   req.Subject,
			Salary:    req.Salary,
			HireDate:  req.HireDate,
		},
	}
	if err := s.pipeline.Teacher(teacher); err != nil {
		return nil, err
	}
	exists, err := s.persons.ExistsTeacherID(ctx, teacher.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check teacher id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher id already exists")
	}
	if err := s.persons.CreateTeacher(ctx, teacher); err != nil {
		return nil, err
	}
	s.logger.Info("teacher created", zap.Int("person_id", teacher.ID), zap.String("teacher_id", teacher.TeacherID))
	return teacher, nil
}

// Get returns a teacher by person id.
func (s *TeacherService) Get(ctx context.Context, personID int) (*models.Teacher, error) {
	teacher, err := s.persons.FindTeacherByPersonID(ctx, personID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load teacher")
	}
	return teacher, nil
}

// List returns teachers matching the filter with pagination metadata.
func (s *TeacherService) List(ctx context.Context, filter models.PersonFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.persons.ListTeachers(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update validates and overwrites the mutable fields of a teacher.
func (s *TeacherService) Update(ctx context.Context, personID int, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	existing, err := s.Get(ctx, personID)
	if err != nil {
		return nil, err
	}
	teacher := &models.Teacher{
		PersonIdentity: models.PersonIdentity{
			ID:        existing.ID,
			Role:      models.RoleTeacher,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			BirthDate: req.BirthDate,
		},
		TeacherDetails: models.TeacherDetails{
			TeacherID: existing.TeacherID,
			Subject:   req.Subject,
			Salary:    req.Salary,
			HireDate:  req.HireDate,
		},
	}
	if teacher.HireDate.IsZero() {
		teacher.HireDate = existing.HireDate
	}
	if err := s.pipeline.Teacher(teacher); err != nil {
		return nil, err
	}
	if _, err := s.persons.UpdateTeacher(ctx, teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

// Delete removes the teacher role row and its identity row together.
func (s *TeacherService) Delete(ctx context.Context, personID int) (int64, error) {
	if _, err := s.Get(ctx, personID); err != nil {
		return 0, err
	}
	rows, err := s.persons.DeleteTeacher(ctx, personID)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	s.logger.Info("teacher deleted", zap.Int("person_id", personID))
	return rows, nil
}
