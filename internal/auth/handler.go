package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/middleware"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/response"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Username        string      `json:"username" binding:"required,min=3"`
	Email           string      `json:"email" binding:"required,email"`
	Password        string      `json:"password" binding:"required,min=6"`
	ConfirmPassword string      `json:"confirmPassword" binding:"required,eqfield=Password"`
	Role            models.Role `json:"role" binding:"omitempty,oneof=musician organizer admin"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// UpdateProfileRequest is the multipart or JSON body for PUT /auth/profile/:id.
type UpdateProfileRequest struct {
	Username *string `json:"username" form:"username" binding:"omitempty,min=3"`
	Email    *string `json:"email" form:"email" binding:"omitempty,email"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=6"`
}

// ForgotPasswordRequest is the body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password/:token.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc    *Service
	intake *media.Intake
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, intake *media.Intake, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, intake: intake, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	u, err := h.svc.Register(c.Request.Context(), CreateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, "User registered successfully", gin.H{
		"id":       u.ID.String(),
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Login successful", res)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	u := middleware.CurrentUser(c)
	fresh, err := h.svc.Get(c.Request.Context(), u.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, h.svc.Public(fresh))
}

// UpdateProfile handles PUT /auth/profile/:id. Only the caller's own
// account can be changed.
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id != middleware.CurrentUser(c).ID {
		response.Error(c, h.logger, apperr.Forbidden("You can only update your own profile"))
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	u := middleware.CurrentUser(c)
	picture, err := h.intake.SaveOptional(c, media.Namespace(u.Role), media.ProfilePictureRule)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), id, UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, picture)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Profile updated successfully", h.svc.Public(updated))
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "If the email is registered, a reset link has been sent.", nil)
}

// ResetPassword handles POST /auth/reset-password/:token.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Password reset successful", nil)
}
