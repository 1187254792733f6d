package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

var ErrUserExists = errors.New("user already exists")

type CreateUserInput struct {
	UserID   string
	Name     string
	Email    string
	PhotoURL string
	Grade    string
	Board    string
}

type UserService interface {
	Create(dbc dbctx.Context, in CreateUserInput) (*types.User, error)
	// Login returns the caller's profile and refreshes fields carried by the
	// token. A caller without a profile gets ErrNotFound.
	Login(dbc dbctx.Context) (*types.User, error)
	// Continue is Login that creates the profile from token claims when missing.
	Continue(dbc dbctx.Context) (*types.User, bool, error)
	GetMe(dbc dbctx.Context) (*types.User, error)
	UpdateProfile(dbc dbctx.Context, grade, board *string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{db: db, log: log.With("service", "UserService"), userRepo: userRepo}
}

func requestData(dbc dbctx.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || strings.TrimSpace(rd.UserID) == "" {
		return nil, apierr.ErrUnauthorized
	}
	return rd, nil
}

func (us *userService) Create(dbc dbctx.Context, in CreateUserInput) (*types.User, error) {
	rd, err := requestData(dbc)
	if err != nil {
		return nil, err
	}
	if uid := strings.TrimSpace(in.UserID); uid != "" && uid != rd.UserID {
		return nil, apierr.Forbidden("identity_mismatch", "user id does not match token")
	}
	existing, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.New(http.StatusConflict, "user_exists", ErrUserExists)
	}
	u := &types.User{
		ID:       rd.UserID,
		Name:     firstNonEmpty(in.Name, rd.Name),
		Email:    firstNonEmpty(in.Email, rd.Email),
		PhotoURL: firstNonEmpty(in.PhotoURL, rd.Picture),
		Grade:    firstNonEmpty(in.Grade, types.DefaultGrade),
		Board:    strings.TrimSpace(in.Board),
	}
	created, err := us.userRepo.Create(dbc, []*types.User{u})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	us.log.Info("user created", "user_id", rd.UserID)
	return created[0], nil
}

func (us *userService) Login(dbc dbctx.Context) (*types.User, error) {
	rd, err := requestData(dbc)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "no profile for caller")
	}
	updates := map[string]interface{}{}
	if rd.Email != "" && rd.Email != u.Email {
		updates["email"] = rd.Email
		u.Email = rd.Email
	}
	if rd.Picture != "" && rd.Picture != u.PhotoURL {
		updates["photo_url"] = rd.Picture
		u.PhotoURL = rd.Picture
	}
	if len(updates) > 0 {
		if err := us.userRepo.UpdateFields(dbc, u.ID, updates); err != nil {
			return nil, fmt.Errorf("refresh profile: %w", err)
		}
	}
	return u, nil
}

func (us *userService) Continue(dbc dbctx.Context) (*types.User, bool, error) {
	u, err := us.Login(dbc)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, apierr.ErrNotFound) {
		return nil, false, err
	}
	u, err = us.Create(dbc, CreateUserInput{})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	rd, err := requestData(dbc)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "no profile for caller")
	}
	return u, nil
}

func (us *userService) UpdateProfile(dbc dbctx.Context, grade, board *string) (*types.User, error) {
	u, err := us.GetMe(dbc)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if grade != nil {
		g := firstNonEmpty(*grade, types.DefaultGrade)
		updates["grade"] = g
		u.Grade = g
	}
	if board != nil {
		b := strings.TrimSpace(*board)
		updates["board"] = b
		u.Board = b
	}
	if err := us.userRepo.UpdateFields(dbc, u.ID, updates); err != nil {
		return nil, err
	}
	return u, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
