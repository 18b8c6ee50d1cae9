package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/auth"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/response"
	"github.com/gigstage/backend/pkg/utils"
)

// CreateUserRequest is the multipart or JSON body for POST /admin/users.
type CreateUserRequest struct {
	Username string      `json:"username" form:"username" binding:"required,min=3"`
	Email    string      `json:"email" form:"email" binding:"required,email"`
	Password string      `json:"password" form:"password" binding:"required,min=6"`
	Role     models.Role `json:"role" form:"role" binding:"required,oneof=musician organizer admin"`
}

// UpdateUserRequest is the multipart or JSON body for PUT /admin/users/:id.
type UpdateUserRequest struct {
	Username *string      `json:"username" form:"username" binding:"omitempty,min=3"`
	Email    *string      `json:"email" form:"email" binding:"omitempty,email"`
	Password *string      `json:"password" form:"password" binding:"omitempty,min=6"`
	Role     *models.Role `json:"role" form:"role" binding:"omitempty,oneof=musician organizer admin"`
}

// Handler handles admin user endpoints.
type Handler struct {
	svc    *Service
	intake *media.Intake
	logger *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(svc *Service, intake *media.Intake, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, intake: intake, logger: logger}
}

// Register mounts the routes on a group already guarded for admins.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

func (h *Handler) userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, apperr.NotFound("User not found"))
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /admin/users.
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	picture, err := h.intake.SaveOptional(c, media.Namespace(req.Role), media.ProfilePictureRule)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), auth.CreateInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		Role:           req.Role,
		ProfilePicture: picture,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, "User created successfully", u)
}

// List handles GET /admin/users.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(),
		utils.AtoiDefault(c.Query("page"), models.DefaultPage),
		utils.AtoiDefault(c.Query("limit"), models.DefaultLimit))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/users/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, u)
}

// Update handles PUT /admin/users/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	target, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	role := target.Role
	if req.Role != nil {
		role = *req.Role
	}
	picture, err := h.intake.SaveOptional(c, media.Namespace(role), media.ProfilePictureRule)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	u, err := h.svc.Update(c.Request.Context(), id, auth.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, picture)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "User updated successfully", u)
}

// Delete handles DELETE /admin/users/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "User deleted successfully", nil)
}
