package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wmesaf/basicschool-api/internal/service"
	appErrors "github.com/wmesaf/basicschool-api/pkg/errors"
	"github.com/wmesaf/basicschool-api/pkg/response"
)

// EnrollStudentRequest describes the enrollment payload.
type EnrollStudentRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll registers a student into a course.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	var req EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), courseID, req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Unenroll removes a student from a course. Removing an absent
// enrollment is reported, not treated as an error.
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	courseID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	removed, err := h.enrollments.Unenroll(c.Request.Context(), courseID, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// Roster lists the active enrollments of a course.
func (h *EnrollmentHandler) Roster(c *gin.Context) {
	courseID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	roster, err := h.enrollments.Roster(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Seats reports current and available seats for a course.
func (h *EnrollmentHandler) Seats(c *gin.Context) {
	courseID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	current, err := h.enrollments.CurrentEnrollment(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	available, err := h.enrollments.AvailableSeats(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"current": current, "available": available}, nil)
}
