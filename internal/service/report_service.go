package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/wmesaf/basicschool-api/internal/models"
	"github.com/wmesaf/basicschool-api/pkg/export"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
)

type catalogReader interface {
	ListAllWithUsage(ctx context.Context) ([]models.CourseDetail, error)
}

type rosterReader interface {
	Roster(ctx context.Context, courseID int) ([]models.EnrollmentDetail, error)
}

// Report formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ReportService renders course catalog and roster reports as CSV or PDF.
type ReportService struct {
	courses     catalogReader
	enrollments rosterReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(courses catalogReader, enrollments rosterReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		courses:     courses,
		enrollments: enrollments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// CourseCatalog renders every course with its seat usage.
func (s *ReportService) CourseCatalog(ctx context.Context, format string) ([]byte, string, error) {
	courses, err := s.courses.ListAllWithUsage(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load courses")
	}

	data := export.Dataset{
		Headers: []string{"Code", "Name", "Department", "Credits", "Enrolled", "Seats", "Teacher"},
	}
	for _, c := range courses {
		teacher := "-"
		if c.TeacherName != nil {
			teacher = *c.TeacherName
		}
		data.Rows = append(data.Rows, map[string]string{
			"Code":       c.CourseCode,
			"Name":       c.CourseName,
			"Department": c.Department,
			"Credits":    strconv.Itoa(c.CreditHours),
			"Enrolled":   strconv.Itoa(c.Enrolled),
			"Seats":      strconv.Itoa(c.MaxStudents),
			"Teacher":    teacher,
		})
	}
	return s.render(data, "course catalog", format)
}

// CourseRoster renders the active enrollments of one course.
func (s *ReportService) CourseRoster(ctx context.Context, courseID int, format string) ([]byte, string, error) {
	roster, err := s.enrollments.Roster(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Student ID", "Student", "Enrolled At", "Status"},
	}
	for _, e := range roster {
		data.Rows = append(data.Rows, map[string]string{
			"Student ID":  e.StudentID,
			"Student":     e.StudentName,
			"Enrolled At": e.EnrollmentDate.Format("2006-01-02"),
			"Status":      string(e.Status),
		})
	}
	return s.render(data, fmt.Sprintf("course %d roster", courseID), format)
}

func (s *ReportService) render(data export.Dataset, title, format string) ([]byte, string, error) {
	switch format {
	case FormatPDF:
		payload, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	case FormatCSV, "":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}
