package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurotutor-backend/internal/http/response"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

type QuizHandler struct {
	quizzes services.QuizService
	ledger  services.SubmissionLedger
}

func NewQuizHandler(quizzes services.QuizService, ledger services.SubmissionLedger) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, ledger: ledger}
}

type submitRequest struct {
	UserID         string `json:"user_id"`
	QuizID         string `json:"quiz_id" binding:"required"`
	SelectedOption string `json:"selected_option" binding:"required"`
	Difficulty     string `json:"difficulty"`
	Subject        string `json:"subject"`
}

// POST /api/quizzes/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, "invalid_request", bindError(err))
		return
	}
	quizID, err := uuid.Parse(strings.TrimSpace(req.QuizID))
	if err != nil {
		response.RespondErr(c, "invalid_quiz_id", apierr.BadRequest("invalid_quiz_id", "quiz_id is not a valid id"))
		return
	}
	sub, created, err := h.ledger.Submit(requestCtx(c), services.SubmitInput{
		UserID:         req.UserID,
		QuizID:         quizID,
		SelectedOption: req.SelectedOption,
		Difficulty:     req.Difficulty,
		Subject:        req.Subject,
	})
	if err != nil {
		response.RespondErr(c, "submit_failed", err)
		return
	}
	status, msg := "updated", "Quiz response updated successfully"
	if created {
		status, msg = "created", "Quiz response saved successfully"
	}
	response.RespondOK(c, gin.H{
		"status":     status,
		"quiz_id":    sub.QuizID,
		"is_correct": sub.IsCorrect,
		"score":      sub.Score,
		"message":    msg,
	})
}

// GET /api/quizzes/:id
func (h *QuizHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondErr(c, "invalid_request", err)
		return
	}
	q, err := h.quizzes.Get(requestCtx(c), id)
	if err != nil {
		response.RespondErr(c, "get_quiz_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"quiz": q})
}
