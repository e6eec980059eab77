package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wmesaf/basicschool-api/internal/models"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

type stubCatalogReader struct {
	courses []models.CourseDetail
}

func (s *stubCatalogReader) ListAllWithUsage(ctx context.Context) ([]models.CourseDetail, error) {
	return s.courses, nil
}

type stubRosterReader struct {
	roster []models.EnrollmentDetail
}

func (s *stubRosterReader) Roster(ctx context.Context, courseID int) ([]models.EnrollmentDetail, error) {
	return s.roster, nil
}

func TestReportServiceCourseCatalogCSV(t *testing.T) {
	teacherName := "Robert King"
	catalog := &stubCatalogReader{courses: []models.CourseDetail{
		{
			Course:      models.Course{CourseCode: "MATH101", CourseName: "Algebra I", Department: "Mathematics", CreditHours: 3, MaxStudents: 30},
			TeacherName: &teacherName,
			Enrolled:    12,
		},
		{
			Course:   models.Course{CourseCode: "PHYS101", CourseName: "Physics I", Department: "Science", CreditHours: 4, MaxStudents: 20},
			Enrolled: 20,
		},
	}}
	svc := NewReportService(catalog, &stubRosterReader{}, nil)

	payload, contentType, err := svc.CourseCatalog(context.Background(), FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)
	require.Contains(t, string(payload), "Code,Name,Department,Credits,Enrolled,Seats,Teacher")
	require.Contains(t, string(payload), "MATH101,Algebra I,Mathematics,3,12,30,Robert King")
	require.Contains(t, string(payload), "PHYS101,Physics I,Science,4,20,20,-")
}

func TestReportServiceCourseRosterPDF(t *testing.T) {
	roster := &stubRosterReader{roster: []models.EnrollmentDetail{
		{
			Enrollment:  models.Enrollment{CourseID: 9, StudentID: "S-1001", EnrollmentDate: time.Now(), Status: models.EnrollmentStatusActive},
			StudentName: "Alice Johnson",
		},
	}}
	svc := NewReportService(&stubCatalogReader{}, roster, nil)

	payload, contentType, err := svc.CourseRoster(context.Background(), 9, FormatPDF)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", contentType)
	require.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestReportServiceUnsupportedFormat(t *testing.T) {
	svc := NewReportService(&stubCatalogReader{}, &stubRosterReader{}, nil)

	_, _, err := svc.CourseCatalog(context.Background(), "xlsx")
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestReportServiceDefaultsToCSV(t *testing.T) {
	svc := NewReportService(&stubCatalogReader{}, &stubRosterReader{}, nil)

	_, contentType, err := svc.CourseCatalog(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)
}
