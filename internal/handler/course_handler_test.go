package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmesaf/basicschool-api/internal/models"
	"github.com/wmesaf/basicschool-api/internal/service"
)

type courseStoreMock struct {
	byID    map[int]*models.CourseDetail
	created []*models.Course
}

func newCourseStoreMock() *courseStoreMock {
	return &courseStoreMock{byID: make(map[int]*models.CourseDetail)}
}

func (m *courseStoreMock) Create(ctx context.Context, course *models.Course) (int, error) {
	course.ID = len(m.created) + 1
	m.created = append(m.created, course)
	m.byID[course.ID] = &models.CourseDetail{Course: *course}
	return course.ID, nil
}

func (m *courseStoreMock) FindByID(ctx context.Context, id int) (*models.CourseDetail, error) {
	detail, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (m *courseStoreMock) ExistsCode(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func (m *courseStoreMock) Update(ctx context.Context, course *models.Course) (int64, error) {
	m.byID[course.ID] = &models.CourseDetail{Course: *course}
	return 1, nil
}

func (m *courseStoreMock) DeleteCascade(ctx context.Context, id int) (int64, error) {
	if _, ok := m.byID[id]; !ok {
		return 0, nil
	}
	delete(m.byID, id)
	return 1, nil
}

func (m *courseStoreMock) Search(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var out []models.CourseDetail
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *courseStoreMock) ByTeacher(ctx context.Context, teacherPersonID int) ([]models.CourseDetail, error) {
	return nil, nil
}

func (m *courseStoreMock) ByStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error) {
	return nil, nil
}

func (m *courseStoreMock) ListAllWithUsage(ctx context.Context) ([]models.CourseDetail, error) {
	var out []models.CourseDetail
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, nil
}

type teacherFinderMock struct{}

func (m *teacherFinderMock) FindTeacherByPersonID(ctx context.Context, personID int) (*models.Teacher, error) {
	return nil, sql.ErrNoRows
}

func newCourseHandlerUnderTest(store *courseStoreMock) *CourseHandler {
	svc := service.NewCourseService(store, &teacherFinderMock{}, nil, time.Minute, nil, nil, nil)
	return NewCourseHandler(svc)
}

func TestCourseHandlerGetInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerUnderTest(newCourseStoreMock())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	req, _ := http.NewRequest(http.MethodGet, "/courses/abc", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerUnderTest(newCourseStoreMock())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "404"}}
	req, _ := http.NewRequest(http.MethodGet, "/courses/404", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newCourseStoreMock()
	handler := newCourseHandlerUnderTest(store)

	now := time.Now()
	body, err := json.Marshal(service.CreateCourseRequest{
		CourseCode:  "MATH101",
		CourseName:  "Algebra I",
		CreditHours: 3,
		Department:  "Mathematics",
		StartDate:   now.AddDate(0, 1, 0),
		EndDate:     now.AddDate(0, 5, 0),
		MaxStudents: 30,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, store.created, 1)
}

func TestCourseHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerUnderTest(newCourseStoreMock())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewBufferString(`{"course_code":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newCourseStoreMock()
	store.byID[9] = &models.CourseDetail{Course: models.Course{ID: 9, CourseCode: "MATH101"}}
	handler := newCourseHandlerUnderTest(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	req, _ := http.NewRequest(http.MethodDelete, "/courses/9", nil)
	c.Request = req

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.byID)
}
