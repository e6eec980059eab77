package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wmesaf/basicschool-api/internal/service"
	"github.com/wmesaf/basicschool-api/pkg/response"
)

// ReportHandler serves downloadable CSV and PDF reports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// CourseCatalog streams the full course catalog in the requested format.
func (h *ReportHandler) CourseCatalog(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	payload, contentType, err := h.reports.CourseCatalog(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="course-catalog.%s"`, format))
	c.Data(http.StatusOK, contentType, payload)
}

// CourseRoster streams the enrollment roster of one course.
func (h *ReportHandler) CourseRoster(c *gin.Context) {
	courseID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	format := c.DefaultQuery("format", service.FormatCSV)
	payload, contentType, err := h.reports.CourseRoster(c.Request.Context(), courseID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="course-%d-roster.%s"`, courseID, format))
	c.Data(http.StatusOK, contentType, payload)
}
