package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
)

func TestRespondErr(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"mapped", apierr.NotFound("quiz_not_found", "quiz %d", 7), http.StatusNotFound, "quiz_not_found", "not found: quiz 7"},
		{"sentinel", apierr.ErrForbidden, http.StatusForbidden, "fallback", "forbidden"},
		{"internal hides message", errors.New("pq: connection refused"), http.StatusInternalServerError, "fallback", "unknown error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondErr(c, "fallback", tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.wantStatus)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.wantCode || env.Error.Message != tc.wantMsg {
				t.Fatalf("envelope: got=%+v", env.Error)
			}
		})
	}
}
