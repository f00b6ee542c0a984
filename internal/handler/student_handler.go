package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/learnnav/learning-navigator/internal/response"
	"github.com/learnnav/learning-navigator/internal/service"
	"github.com/learnnav/learning-navigator/internal/validator"
)

type StudentHandler struct {
	studentService *service.StudentService
}

func NewStudentHandler(studentService *service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// Create godoc
// POST /students
func (h *StudentHandler) Create(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, student)
}

// GetByID godoc
// GET /students/:id
func (h *StudentHandler) GetByID(c *gin.Context) {
	id, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, student)
}

// GetAll godoc
// GET /students
func (h *StudentHandler) GetAll(c *gin.Context) {
	students, err := h.studentService.GetAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, students)
}

// EnrollInSubject godoc
// POST /students/:id/subjects/:subjectId
func (h *StudentHandler) EnrollInSubject(c *gin.Context) {
	studentID, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	subjectID, ok := validator.ParseID(c, "subjectId")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.studentService.EnrollInSubject(c.Request.Context(), studentID, subjectID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, student)
}

// EnrollInExam godoc
// POST /students/:id/exams/:examId
func (h *StudentHandler) EnrollInExam(c *gin.Context) {
	studentID, ok := validator.ParseID(c, "id")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	examID, ok := validator.ParseID(c, "examId")
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.studentService.EnrollInExam(c.Request.Context(), studentID, examID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, student)
}
