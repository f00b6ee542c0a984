package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnnav/learning-navigator/internal/response"
	"github.com/learnnav/learning-navigator/internal/service"
	"github.com/learnnav/learning-navigator/internal/validator"
)

type ExamHandler struct {
	examService *service.ExamService
}

func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Create godoc
// POST /exams/subjects/:subjectId
func (h *ExamHandler) Create(c *gin.Context) {
	subjectID, ok := validator.ParseID(c, "subjectId")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), subjectID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, exam)
}

// GetAll godoc
// GET /exams
func (h *ExamHandler) GetAll(c *gin.Context) {
	exams, err := h.examService.GetAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, exams)
}

// GetByID godoc
// GET /exams/:id
func (h *ExamHandler) GetByID(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// Delete godoc
// DELETE /exams/:id
func (h *ExamHandler) Delete(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// RegisterStudent godoc
// POST /exams/:id
// The body is the bare student id, e.g. `7`.
func (h *ExamHandler) RegisterStudent(c *gin.Context) {
	examID, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	studentID, fields := validator.BindRawID(c)
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	exam, err := h.examService.RegisterStudent(c.Request.Context(), examID, studentID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, exam)
}

// ListStudents godoc
// GET /exams/:id/students
func (h *ExamHandler) ListStudents(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	students, err := h.examService.ListStudents(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, students)
}
