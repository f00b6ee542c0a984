package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/learnnav/learning-navigator/internal/response"
	"github.com/learnnav/learning-navigator/internal/service"
	"github.com/learnnav/learning-navigator/internal/validator"
)

type SubjectHandler struct {
	subjectService *service.SubjectService
}

func NewSubjectHandler(subjectService *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: subjectService}
}

// GetAll godoc
// GET /subjects
func (h *SubjectHandler) GetAll(c *gin.Context) {
	subjects, err := h.subjectService.GetAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, subjects)
}

// Create godoc
// POST /subjects
func (h *SubjectHandler) Create(c *gin.Context) {
	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.subjectService.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sub)
}

// GetByID godoc
// GET /subjects/:id
func (h *SubjectHandler) GetByID(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sub, err := h.subjectService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sub)
}

// Delete godoc
// DELETE /subjects/:id
func (h *SubjectHandler) Delete(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.subjectService.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// ListExams godoc
// GET /subjects/:id/exams
func (h *SubjectHandler) ListExams(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exams, err := h.subjectService.ListExams(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, exams)
}

// ListStudents godoc
// GET /subjects/:id/students
func (h *SubjectHandler) ListStudents(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	students, err := h.subjectService.ListStudents(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, students)
}
