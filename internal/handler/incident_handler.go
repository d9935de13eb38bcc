package handler

import (
	"net/http"
	"strconv"

	"github.com/examguard/examguard-backend/internal/middleware"
	"github.com/examguard/examguard-backend/internal/model"
	"github.com/examguard/examguard-backend/internal/response"
	"github.com/examguard/examguard-backend/internal/service"
	"github.com/examguard/examguard-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IncidentHandler handles incident reporting and the admin review view.
type IncidentHandler struct {
	incidentService *service.IncidentService
}

// NewIncidentHandler creates a new IncidentHandler.
func NewIncidentHandler(incidentService *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidentService: incidentService}
}

// Report godoc
// POST /api/v1/incidents
// Records one violation signal from a client-side detector. Always returns
// 202 once the request is valid; persistence failures never surface here.
func (h *IncidentHandler) Report(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.ReportIncidentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.incidentService.Report(c.Request.Context(),
		claims.UserID, claims.Name, req.ExamID, req.Type, req.Timestamp); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": "recorded"})
}

// CountForStudent godoc
// GET /api/v1/admin/exams/:id/incidents/:student_id/count
// Returns one student's incident count within an exam, for the monitor overlay.
func (h *IncidentHandler) CountForStudent(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	count, err := h.incidentService.CountForStudent(c.Request.Context(), examID, studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// ListGrouped godoc
// GET /api/v1/admin/incidents
// Returns the incident log grouped by exam, then by student.
func (h *IncidentHandler) ListGrouped(c *gin.Context) {
	grouped, err := h.incidentService.ListGrouped(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": grouped})
}
