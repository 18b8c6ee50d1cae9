package emaillogs

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/response"
	"github.com/gigstage/backend/pkg/utils"
)

// Lister reads the delivery history.
type Lister interface {
	List(ctx context.Context, f models.EmailLogFilter, offset, limit int) ([]models.EmailLog, int, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	logs   Lister
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(logs Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logs: logs, logger: logger}
}

// List handles GET /admin/email-logs. Mount behind RequireRole(admin).
func (h *Handler) List(c *gin.Context) {
	f := models.EmailLogFilter{Status: c.Query("status"), Recipient: c.Query("recipient")}
	if f.Status != "" && f.Status != models.EmailLogStatusSent && f.Status != models.EmailLogStatusFailed {
		response.BadRequest(c, "status must be sent or failed")
		return
	}
	page, limit := models.NormalizePaging(
		utils.AtoiDefault(c.Query("page"), models.DefaultPage),
		utils.AtoiDefault(c.Query("limit"), models.DefaultLimit))

	logs, total, err := h.logs.List(c.Request.Context(), f, models.Offset(page, limit), limit)
	if err != nil {
		response.Error(c, h.logger, apperr.Internal("list email logs", err))
		return
	}
	response.OK(c, models.Page[models.EmailLog]{
		Items:      logs,
		Total:      total,
		Page:       page,
		TotalPages: models.TotalPages(total, limit),
	})
}
