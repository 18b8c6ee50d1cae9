package organizers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/middleware"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/response"
	"github.com/gigstage/backend/pkg/utils"
)

const namespace = "organizers"

// ActiveStatusRequest is the body for PATCH /organizers/active-status.
type ActiveStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// VerifyRequest is the body for PATCH /organizers/verify.
type VerifyRequest struct {
	UserID     string `json:"userId" binding:"required,uuid"`
	IsVerified *bool  `json:"isVerified" binding:"required"`
}

// Handler handles organizer HTTP endpoints.
type Handler struct {
	svc    *Service
	intake *media.Intake
	logger *zap.Logger
}

// NewHandler creates an organizer handler.
func NewHandler(svc *Service, intake *media.Intake, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, intake: intake, logger: logger}
}

// Register mounts the organizer routes. auth must run Authenticate.
func (h *Handler) Register(r *gin.RouterGroup, auth gin.HandlerFunc) {
	r.GET("/search", h.Search)
	r.GET("/profile/:id", h.GetByID)
	r.PATCH("/verify", auth, middleware.RequireRole(models.RoleAdmin), h.SetVerified)

	own := r.Group("", auth, middleware.RequireRole(models.RoleOrganizer))
	own.POST("/profile", h.Create)
	own.GET("/profile", h.GetOwn)
	own.PUT("/profile", h.Update)
	own.DELETE("/profile", h.Delete)
	own.PATCH("/active-status", h.SetActive)
	own.POST("/profile-picture", h.UploadProfilePicture)

	mediaRoutes := []struct {
		path       string
		collection media.Collection
		rule       media.Rule
		bodyKey    string
		added      string
		removed    string
	}{
		{"/photos", Photos, media.PhotosRule, "photoUrl", "Photos added successfully", "Photo removed successfully"},
		{"/videos", Videos, media.VideosRule, "videoUrl", "Videos added successfully", "Video removed successfully"},
		{"/verification-documents", Documents, media.DocumentsRule, "documentUrl", "Verification documents added successfully", "Verification document removed successfully"},
	}
	for _, m := range mediaRoutes {
		own.POST(m.path, h.addMedia(m.collection, m.rule, m.added))
		own.DELETE(m.path, h.removeMedia(m.collection, m.bodyKey, m.removed))
	}
}

// Create handles POST /organizers/profile.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	p, err := h.svc.Create(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, "Organizer profile created successfully", h.svc.Response(p))
}

// GetOwn handles GET /organizers/profile.
func (h *Handler) GetOwn(c *gin.Context) {
	p, err := h.svc.GetOwn(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, h.svc.Response(p))
}

// GetByID handles GET /organizers/profile/:id.
func (h *Handler) GetByID(c *gin.Context) {
	p, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, h.svc.Response(p))
}

// Update handles PUT /organizers/profile.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	p, err := h.svc.Update(c.Request.Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Profile updated successfully", h.svc.Response(p))
}

// Delete handles DELETE /organizers/profile.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c).ID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Profile deleted successfully", nil)
}

// Search handles GET /organizers/search.
func (h *Handler) Search(c *gin.Context) {
	verified, err := utils.ParseOptionalBool(c.Query("isVerified"))
	if err != nil {
		response.Error(c, h.logger, apperr.Validation("Invalid query", apperr.FieldError{Path: "isVerified", Message: "must be true or false"}))
		return
	}
	active, err := utils.ParseOptionalBool(c.Query("isActive"))
	if err != nil {
		response.Error(c, h.logger, apperr.Validation("Invalid query", apperr.FieldError{Path: "isActive", Message: "must be true or false"}))
		return
	}
	page, err := h.svc.Search(c.Request.Context(), models.OrganizerFilter{
		City:             c.Query("city"),
		Country:          c.Query("country"),
		OrganizationType: c.Query("organizationType"),
		EventTypes:       utils.SplitCSV(c.QueryArray("eventTypes")),
		IsVerified:       verified,
		IsActive:         active,
		Page:             utils.AtoiDefault(c.Query("page"), models.DefaultPage),
		Limit:            utils.AtoiDefault(c.Query("limit"), models.DefaultLimit),
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, page)
}

// SetActive handles PATCH /organizers/active-status.
func (h *Handler) SetActive(c *gin.Context) {
	var req ActiveStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	p, err := h.svc.SetActive(c.Request.Context(), middleware.CurrentUser(c).ID, *req.IsActive)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Active status updated successfully", h.svc.Response(p))
}

// SetVerified handles PATCH /organizers/verify (admin).
func (h *Handler) SetVerified(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, response.BindError(err))
		return
	}
	p, err := h.svc.SetVerified(c.Request.Context(), uuid.MustParse(req.UserID), *req.IsVerified)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Verification status updated successfully", h.svc.Response(p))
}

// UploadProfilePicture handles POST /organizers/profile-picture.
func (h *Handler) UploadProfilePicture(c *gin.Context) {
	ref, err := h.intake.SaveOptional(c, namespace, media.ProfilePictureRule)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if ref == "" {
		response.Error(c, h.logger, apperr.Validation("No file uploaded"))
		return
	}
	p, err := h.svc.SetProfilePicture(c.Request.Context(), middleware.CurrentUser(c).ID, ref)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Profile picture uploaded successfully", h.svc.Response(p))
}

func (h *Handler) addMedia(col media.Collection, rule media.Rule, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		refs, err := h.intake.SaveFiles(ctx, namespace, rule, media.FormFiles(c, rule.Field))
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		p, err := h.svc.AddMedia(ctx, middleware.CurrentUser(c).ID, col, refs)
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		response.OKMessage(c, msg, h.svc.Response(p))
	}
}

func (h *Handler) removeMedia(col media.Collection, bodyKey, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil || body[bodyKey] == "" {
			response.Error(c, h.logger, apperr.Validation("Validation failed", apperr.FieldError{Path: bodyKey, Message: "is required"}))
			return
		}
		p, err := h.svc.RemoveMedia(c.Request.Context(), middleware.CurrentUser(c).ID, col, body[bodyKey])
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		response.OKMessage(c, msg, h.svc.Response(p))
	}
}
