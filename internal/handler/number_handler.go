package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/learnnav/learning-navigator/internal/model"
	"github.com/learnnav/learning-navigator/internal/response"
	"github.com/learnnav/learning-navigator/internal/service"
)

// NumberHandler serves the hidden number trivia route.
type NumberHandler struct {
	numberService *service.NumberService
}

func NewNumberHandler(numberService *service.NumberService) *NumberHandler {
	return &NumberHandler{numberService: numberService}
}

// HiddenFeature godoc
// GET /easter-egg/hidden-feature/:number
func (h *NumberHandler) HiddenFeature(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	fact, err := h.numberService.Fact(c.Request.Context(), number)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.NumberFactResponse{
		Message:  model.NumberFactMessage,
		Response: fact,
	})
}
