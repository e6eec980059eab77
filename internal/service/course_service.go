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

type courseStore interface {
	Create(ctx context.Context, course *models.Course) (int, error)
	FindByID(ctx context.Context, id int) (*models.CourseDetail, error)
	ExistsCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, course *models.Course) (int64, error)
	DeleteCascade(ctx context.Context, id int) (int64, error)
	Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	ByTeacher(ctx context.Context, teacherPersonID int) ([]models.CourseDetail, error)
	ByStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error)
	ListAllWithUsage(ctx context.Context) ([]models.CourseDetail, error)
}

type teacherFinder interface {
	FindTeacherByPersonID(ctx context.Context, personID int) (*models.Teacher, error)
}

type statisticsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

const statisticsCacheKey = "courses:statistics"

// CreateCourseRequest describes course creation payload.
type CreateCourseRequest struct {
	CourseCode  string    `json:"course_code" validate:"required"`
	CourseName  string    `json:"course_name" validate:"required"`
	Description string    `json:"description"`
	CreditHours int       `json:"credit_hours" validate:"required"`
	Department  string    `json:"department"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	MaxStudents int       `json:"max_students" validate:"required"`
	TeacherID   *int      `json:"teacher_id"`
}

// UpdateCourseRequest describes the mutable course fields. The course
// code is immutable once created and deliberately absent.
type UpdateCourseRequest struct {
	CourseName  string    `json:"course_name" validate:"required"`
	Description string    `json:"description"`
	CreditHours int       `json:"credit_hours" validate:"required"`
	Department  string    `json:"department"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	MaxStudents int       `json:"max_students" validate:"required"`
	TeacherID   *int      `json:"teacher_id"`
}

// CourseService orchestrates course lifecycle: validation gates the
// input, uniqueness and teacher existence are pre-checked, and the
// cascading delete is delegated to the repository's transactional unit.
type CourseService struct {
	courses   courseStore
	teachers  teacherFinder
	pipeline  *validation.Pipeline
	cache     statisticsCache
	cacheTTL  time.Duration
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseStore, teachers teacherFinder, cache statisticsCache, cacheTTL time.Duration, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:   courses,
		teachers:  teachers,
		pipeline:  validation.NewPipeline(),
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Create validates and persists a new course, returning its detail row.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		CourseCode:  req.CourseCode,
		CourseName:  req.CourseName,
		Description: req.Description,
		CreditHours: req.CreditHours,
		Department:  req.Department,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MaxStudents: req.MaxStudents,
		TeacherID:   req.TeacherID,
	}
	if err := s.pipeline.Course(course); err != nil {
		return nil, err
	}
	exists, err := s.courses.ExistsCode(ctx, course.CourseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}
	if err := s.checkTeacher(ctx, course.TeacherID); err != nil {
		return nil, err
	}

	id, err := s.courses.Create(ctx, course)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create course")
	}
	s.invalidateStatistics(ctx)
	s.logger.Info("course created", zap.Int("course_id", id), zap.String("course_code", course.CourseCode))
	return s.Get(ctx, id)
}

// Get returns a course with teacher and seat usage context.
func (s *CourseService) Get(ctx context.Context, id int) (*models.CourseDetail, error) {
	detail, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}
	return detail, nil
}

// Update validates and overwrites the mutable fields of a course.
func (s *CourseService) Update(ctx context.Context, id int, req UpdateCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course := &models.Course{
		ID:          id,
		CourseCode:  existing.CourseCode,
		CourseName:  req.CourseName,
		Description: req.Description,
		CreditHours: req.CreditHours,
		Department:  req.Department,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MaxStudents: req.MaxStudents,
		TeacherID:   req.TeacherID,
	}
	if err := s.pipeline.Course(course); err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, course.TeacherID); err != nil {
		return nil, err
	}
	if _, err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update course")
	}
	s.invalidateStatistics(ctx)
	return s.Get(ctx, id)
}

// Delete removes a course and all of its enrollments as one atomic
// operation. A missing course id yields NotFound, never a storage error.
func (s *CourseService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	rows, err := s.courses.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.invalidateStatistics(ctx)
	s.logger.Info("course deleted", zap.Int("course_id", id))
	return nil
}

// Search returns courses matching the keyword with pagination metadata.
func (s *CourseService) Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.courses.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to search courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ByTeacher returns the courses assigned to a teacher identity.
func (s *CourseService) ByTeacher(ctx context.Context, teacherPersonID int) ([]models.CourseDetail, error) {
	if _, err := s.teachers.FindTeacherByPersonID(ctx, teacherPersonID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load teacher")
	}
	return s.courses.ByTeacher(ctx, teacherPersonID)
}

// ByStudent returns the courses a student is actively enrolled in.
func (s *CourseService) ByStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error) {
	return s.courses.ByStudent(ctx, studentID)
}

// Statistics derives aggregate figures from the current course row set.
// Snapshots are cached with a short TTL when a cache is wired; a stale
// snapshot is acceptable by design for this read-only view.
func (s *CourseService) Statistics(ctx context.Context) (*models.CourseStatistics, error) {
	if s.cache != nil {
		var cached models.CourseStatistics
		if err := s.cache.Get(ctx, statisticsCacheKey, &cached); err == nil {
			s.metrics.RecordCacheHit()
			return &cached, nil
		}
		s.metrics.RecordCacheMiss()
	}

	courses, err := s.courses.ListAllWithUsage(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load courses")
	}

	stats := computeStatistics(courses)
	if s.cache != nil {
		if err := s.cache.Set(ctx, statisticsCacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache statistics", zap.Error(err))
		}
	}
	return stats, nil
}

func computeStatistics(courses []models.CourseDetail) *models.CourseStatistics {
	stats := &models.CourseStatistics{
		TotalCourses:           len(courses),
		DepartmentDistribution: make(map[string]int),
	}
	if len(courses) == 0 {
		return stats
	}

	var enrolledSum int
	var occupancySum float64
	for _, c := range courses {
		enrolledSum += c.Enrolled
		if c.MaxStudents > 0 {
			occupancySum += float64(c.Enrolled) / float64(c.MaxStudents) * 100
		}
		if c.IsFull() {
			stats.FullCourses++
		}
		if c.TeacherID == nil {
			stats.CoursesWithoutTeacher++
		}
		if c.Department != "" {
			stats.DepartmentDistribution[c.Department]++
		}
	}
	stats.AverageEnrollment = float64(enrolledSum) / float64(len(courses))
	stats.OccupancyRate = occupancySum / float64(len(courses))
	return stats
}

func (s *CourseService) checkTeacher(ctx context.Context, teacherID *int) error {
	if teacherID == nil {
		return nil
	}
	if _, err := s.teachers.FindTeacherByPersonID(ctx, *teacherID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assigned teacher does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load teacher")
	}
	return nil
}

func (s *CourseService) invalidateStatistics(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, statisticsCacheKey)
	}
}
