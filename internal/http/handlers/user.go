package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurotutor-backend/internal/http/response"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// POST /api/users
// body: { "user_id", "name", "email", "photo_url", "grade", "board" }
func (uh *UserHandler) Create(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id" binding:"required"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		PhotoURL string `json:"photo_url"`
		Grade    string `json:"grade"`
		Board    string `json:"board"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, "invalid_request", bindError(err))
		return
	}
	u, err := uh.userService.Create(requestCtx(c), services.CreateUserInput{
		UserID:   req.UserID,
		Name:     req.Name,
		Email:    req.Email,
		PhotoURL: req.PhotoURL,
		Grade:    req.Grade,
		Board:    req.Board,
	})
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			response.RespondError(c, http.StatusConflict, "user_exists", err)
			return
		}
		response.RespondErr(c, "create_user_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// POST /api/users/login
func (uh *UserHandler) Login(c *gin.Context) {
	u, err := uh.userService.Login(requestCtx(c))
	if err != nil {
		response.RespondErr(c, "login_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// POST /api/users/continue
func (uh *UserHandler) Continue(c *gin.Context) {
	u, created, err := uh.userService.Continue(requestCtx(c))
	if err != nil {
		response.RespondErr(c, "continue_failed", err)
		return
	}
	if created {
		response.RespondCreated(c, gin.H{"user": u, "created": true})
		return
	}
	response.RespondOK(c, gin.H{"user": u, "created": false})
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(requestCtx(c))
	if err != nil {
		response.RespondErr(c, "get_me_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/me
// body: { "grade"?: "...", "board"?: "..." }
func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		Grade *string `json:"grade"`
		Board *string `json:"board"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, "invalid_request", bindError(err))
		return
	}
	me, err := uh.userService.UpdateProfile(requestCtx(c), req.Grade, req.Board)
	if err != nil {
		response.RespondErr(c, "update_me_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}
