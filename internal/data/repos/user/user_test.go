package user

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/neurotutor-backend/internal/data/repos/testutil"
	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
)

func TestTouchLastQuizSubmission(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.TouchLastQuizSubmission(dbc, "ghost", at); err != nil {
		t.Fatalf("touch missing user: %v", err)
	}
	got, err := repo.GetByID(dbc, "ghost")
	if err != nil || got == nil || got.LastQuizSubmissionAt == nil || !got.LastQuizSubmissionAt.Equal(at) {
		t.Fatalf("unexpected row: %+v err=%v", got, err)
	}
	if got.Grade != types.DefaultGrade {
		t.Fatalf("default grade: %q", got.Grade)
	}

	if _, err := repo.Create(dbc, []*types.User{{ID: "real", Name: "Asha", Board: "CBSE"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	later := at.Add(time.Hour)
	if err := repo.TouchLastQuizSubmission(dbc, "real", later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ = repo.GetByID(dbc, "real")
	if got.Name != "Asha" || got.Board != "CBSE" || !got.LastQuizSubmissionAt.Equal(later) {
		t.Fatalf("profile fields clobbered: %+v", got)
	}
}
