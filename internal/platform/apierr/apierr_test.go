package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"explicit", New(http.StatusConflict, "dup", errors.New("x")), http.StatusConflict, "dup"},
		{"explicit without code", New(http.StatusTeapot, "", nil), http.StatusTeapot, "fallback"},
		{"wrapped forbidden", fmt.Errorf("ledger: %w", Forbidden("identity_mismatch", "uid %s", "a")), http.StatusForbidden, "identity_mismatch"},
		{"sentinel not found", fmt.Errorf("quiz: %w", ErrNotFound), http.StatusNotFound, "fallback"},
		{"sentinel bad request", ErrInvalidArgument, http.StatusBadRequest, "fallback"},
		{"plain", errors.New("db down"), http.StatusInternalServerError, "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := Status(tc.err, "fallback")
			if status != tc.wantStatus || code != tc.wantCode {
				t.Fatalf("got (%d,%q) want (%d,%q)", status, code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

func TestHelpersWrapSentinels(t *testing.T) {
	if !errors.Is(NotFound("x", "quiz %d", 1), ErrNotFound) {
		t.Fatalf("NotFound should wrap ErrNotFound")
	}
	if !errors.Is(BadRequest("x", "bad"), ErrInvalidArgument) {
		t.Fatalf("BadRequest should wrap ErrInvalidArgument")
	}
}
