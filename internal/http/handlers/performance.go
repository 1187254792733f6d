package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurotutor-backend/internal/http/response"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

type PerformanceHandler struct {
	metrics services.MetricsAggregator
}

func NewPerformanceHandler(metrics services.MetricsAggregator) *PerformanceHandler {
	return &PerformanceHandler{metrics: metrics}
}

// GET /api/user-performance/:user_id
func (h *PerformanceHandler) Get(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if caller := ctxutil.UserID(c.Request.Context()); caller == "" || caller != userID {
		response.RespondErr(c, "forbidden", apierr.Forbidden("identity_mismatch", "cannot read another user's performance"))
		return
	}
	rollup, err := h.metrics.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, "get_performance_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"user_id":             rollup.UserID,
		"overall_accuracy":    rollup.OverallAccuracy,
		"average_accuracy":    rollup.AverageAccuracy,
		"average_score":       rollup.AverageScore,
		"total_quizzes_taken": rollup.TotalQuizzes,
		"subject_stats":       rollup.Subjects(),
		"difficulty_stats":    rollup.Difficulties(),
		"last_updated":        rollup.ComputedAt,
	})
}
