package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
)

func TestUserServiceLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db, f.log, f.users)
	dbc := asUser("u1")

	_, err := svc.Login(dbc)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = svc.Create(dbc, CreateUserInput{UserID: "someone-else"})
	assert.ErrorIs(t, err, apierr.ErrForbidden)

	u, created, err := svc.Continue(dbc)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "u1@example.com", u.Email)
	assert.Equal(t, types.DefaultGrade, u.Grade)

	_, created, err = svc.Continue(dbc)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Create(dbc, CreateUserInput{UserID: "u1"})
	status, code := apierr.Status(err, "x")
	assert.Equal(t, 409, status)
	assert.Equal(t, "user_exists", code)

	board := "ICSE"
	grade := " "
	u, err = svc.UpdateProfile(dbc, &grade, &board)
	require.NoError(t, err)
	assert.Equal(t, "ICSE", u.Board)
	assert.Equal(t, types.DefaultGrade, u.Grade)

	me, err := svc.GetMe(dbc)
	require.NoError(t, err)
	assert.Equal(t, "ICSE", me.Board)
}
