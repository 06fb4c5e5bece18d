package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/licensing-crm-backend/internal/data/repos"
	"github.com/yungbote/licensing-crm-backend/internal/http/response"
	"github.com/yungbote/licensing-crm-backend/internal/services"
)

type EnrollmentHandler struct {
	enrollments services.EnrollmentService
}

func NewEnrollmentHandler(enrollments services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

type createEnrollmentRequest struct {
	LeadID             uint       `json:"lead_id" binding:"required"`
	CourseCode         string     `json:"course_code"`
	Cohort             string     `json:"cohort" binding:"omitempty,oneof=day evening weekend"`
	StartDate          *time.Time `json:"start_date"`
	Status             string     `json:"status" binding:"omitempty,oneof=enrolled active completed dropped"`
	ProgressPercentage int        `json:"progress_percentage"`
}

type updateEnrollmentRequest struct {
	Status             *string    `json:"status" binding:"omitempty,oneof=enrolled active completed dropped"`
	Cohort             *string    `json:"cohort" binding:"omitempty,oneof=day evening weekend"`
	StartDate          *time.Time `json:"start_date"`
	ProgressPercentage *int       `json:"progress_percentage"`
}

// GET /api/enrollments
func (h *EnrollmentHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	rows, total, err := h.enrollments.List(c.Request.Context(), repos.EnrollmentFilter{
		LeadID: queryUint(c, "lead_id"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.RespondServiceError(c, "list_enrollments_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": rows, "total": total})
}

// GET /api/enrollments/:id
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	e, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_enrollment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": e})
}

// POST /api/enrollments
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req createEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	e, err := h.enrollments.Create(c.Request.Context(), services.EnrollmentInput{
		LeadID:             req.LeadID,
		CourseCode:         req.CourseCode,
		Cohort:             req.Cohort,
		StartDate:          req.StartDate,
		Status:             req.Status,
		ProgressPercentage: req.ProgressPercentage,
	})
	if err != nil {
		response.RespondServiceError(c, "create_enrollment_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"enrollment": e})
}

// PATCH /api/enrollments/:id
func (h *EnrollmentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_enrollment_id")
	if !ok {
		return
	}
	var req updateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	e, err := h.enrollments.Update(c.Request.Context(), id, services.EnrollmentUpdate{
		Status:             req.Status,
		Cohort:             req.Cohort,
		StartDate:          req.StartDate,
		ProgressPercentage: req.ProgressPercentage,
	})
	if err != nil {
		response.RespondServiceError(c, "update_enrollment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": e})
}
