package organizers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
)

// Media collections of an organizer profile.
var (
	Photos    = media.Collection{Name: "photos", Column: "photos", Cap: 20, Label: "photos", Noun: "Photo"}
	Videos    = media.Collection{Name: "videos", Column: "videos", Cap: 10, Label: "videos", Noun: "Video"}
	Documents = media.Collection{Name: "verificationDocuments", Column: "verification_documents", Cap: 5, Label: "verification documents", Noun: "Document"}
)

const (
	msgNotFound = "Organizer profile not found"
	msgExists   = "Organizer profile already exists for this user"
)

// Store is the profile persistence the service needs.
type Store interface {
	media.Store
	Create(ctx context.Context, p *models.OrganizerProfile) (*models.OrganizerProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.OrganizerProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.OrganizerProfile, error)
	Update(ctx context.Context, p *models.OrganizerProfile) (*models.OrganizerProfile, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) (*models.OrganizerProfile, error)
	SetVerified(ctx context.Context, userID uuid.UUID, verified bool) (*models.OrganizerProfile, error)
	SetProfilePicture(ctx context.Context, userID uuid.UUID, ref string) (string, *models.OrganizerProfile, error)
	Delete(ctx context.Context, userID uuid.UUID) (*models.OrganizerProfile, error)
	Search(ctx context.Context, f models.OrganizerFilter) ([]models.OrganizerProfile, int, error)
}

// CreateRequest is the body for POST /organizers/profile.
type CreateRequest struct {
	OrganizationName string          `json:"organizationName" binding:"required,min=1,max=200"`
	Bio              *string         `json:"bio" binding:"omitempty,max=1000"`
	ContactPerson    string          `json:"contactPerson" binding:"required,min=1,max=100"`
	Phone            string          `json:"phone" binding:"required,min=10"`
	Email            string          `json:"email" binding:"required,email"`
	Location         models.Location `json:"location" binding:"required"`
	Website          *string         `json:"website" binding:"omitempty,url"`
	OrganizationType string          `json:"organizationType" binding:"required,min=1"`
	EventTypes       []string        `json:"eventTypes" binding:"required,min=1,dive,required"`
	IsActive         *bool           `json:"isActive"`
}

// UpdateRequest is the body for PUT /organizers/profile. Omitted fields are
// unchanged. Verification is admin-only and not accepted here.
type UpdateRequest struct {
	OrganizationName *string                `json:"organizationName" binding:"omitempty,min=1,max=200"`
	Bio              *string                `json:"bio" binding:"omitempty,max=1000"`
	ContactPerson    *string                `json:"contactPerson" binding:"omitempty,min=1,max=100"`
	Phone            *string                `json:"phone" binding:"omitempty,min=10"`
	Email            *string                `json:"email" binding:"omitempty,email"`
	Location         *models.LocationUpdate `json:"location"`
	Website          *string                `json:"website" binding:"omitempty,url"`
	OrganizationType *string                `json:"organizationType" binding:"omitempty,min=1"`
	EventTypes       []string               `json:"eventTypes" binding:"omitempty,min=1,dive,required"`
	IsActive         *bool                  `json:"isActive"`
}

func (u *UpdateRequest) apply(p *models.OrganizerProfile) {
	if u.OrganizationName != nil {
		p.OrganizationName = *u.OrganizationName
	}
	if u.Bio != nil {
		p.Bio = u.Bio
	}
	if u.ContactPerson != nil {
		p.ContactPerson = *u.ContactPerson
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	p.Location = u.Location.Apply(p.Location)
	if u.Website != nil {
		p.Website = u.Website
	}
	if u.OrganizationType != nil {
		p.OrganizationType = *u.OrganizationType
	}
	if u.EventTypes != nil {
		p.EventTypes = u.EventTypes
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
}

// Service implements organizer profile operations.
type Service struct {
	store  Store
	media  *media.Manager
	logger *zap.Logger
}

// NewService creates an organizer service.
func NewService(store Store, cleaner *media.Cleaner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		media:  media.NewManager(cleaner, store, msgNotFound),
		logger: logger,
	}
}

// Response converts p for the wire.
func (s *Service) Response(p *models.OrganizerProfile) models.OrganizerResponse {
	return p.ToResponse(s.media.URL)
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, ErrProfileNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	return apperr.Internal(op, err)
}

// Create makes the caller's profile. A user has at most one.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.OrganizerProfile, error) {
	if _, err := s.store.GetByUserID(ctx, userID); err == nil {
		return nil, apperr.Conflict(msgExists)
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, apperr.Internal("load organizer profile", err)
	}
	p := &models.OrganizerProfile{
		UserID:           userID,
		OrganizationName: req.OrganizationName,
		Bio:              req.Bio,
		ContactPerson:    req.ContactPerson,
		Phone:            req.Phone,
		Email:            req.Email,
		Location:         req.Location,
		Website:          req.Website,
		OrganizationType: req.OrganizationType,
		EventTypes:       req.EventTypes,
		IsActive:         true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	created, err := s.store.Create(ctx, p)
	if errors.Is(err, ErrProfileExists) {
		return nil, apperr.Conflict(msgExists)
	}
	if err != nil {
		return nil, apperr.Internal("create organizer profile", err)
	}
	return created, nil
}

// GetOwn returns the caller's profile.
func (s *Service) GetOwn(ctx context.Context, userID uuid.UUID) (*models.OrganizerProfile, error) {
	p, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "load organizer profile")
	}
	return p, nil
}

// GetByID returns any profile by id. Malformed ids are treated as missing.
func (s *Service) GetByID(ctx context.Context, rawID string) (*models.OrganizerProfile, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load organizer profile")
	}
	return p, nil
}

// Update merges req into the caller's profile.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*models.OrganizerProfile, error) {
	p, err := s.GetOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	updated, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, notFoundOr(err, "update organizer profile")
	}
	return updated, nil
}

// Delete removes the caller's profile, then deletes its files best-effort.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	p, err := s.store.Delete(ctx, userID)
	if err != nil {
		return notFoundOr(err, "delete organizer profile")
	}
	refs := p.MediaRefs()
	s.media.Purge(ctx, refs...)
	s.logger.Info("organizer profile deleted", zap.String("user_id", userID.String()), zap.Int("files", len(refs)))
	return nil
}

// DeleteForUser removes userID's profile if there is one.
func (s *Service) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	err := s.Delete(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	return err
}

// Search lists profiles matching f.
func (s *Service) Search(ctx context.Context, f models.OrganizerFilter) (models.Page[models.OrganizerResponse], error) {
	f.Page, f.Limit = models.NormalizePaging(f.Page, f.Limit)
	list, total, err := s.store.Search(ctx, f)
	if err != nil {
		return models.Page[models.OrganizerResponse]{}, apperr.Internal("search organizers", err)
	}
	items := make([]models.OrganizerResponse, len(list))
	for i := range list {
		items[i] = s.Response(&list[i])
	}
	return models.Page[models.OrganizerResponse]{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		TotalPages: models.TotalPages(total, f.Limit),
	}, nil
}

// SetActive updates the caller's active flag.
func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*models.OrganizerProfile, error) {
	p, err := s.store.SetActive(ctx, userID, active)
	if err != nil {
		return nil, notFoundOr(err, "update active status")
	}
	return p, nil
}

// SetVerified updates the verification flag of targetUserID's profile.
func (s *Service) SetVerified(ctx context.Context, targetUserID uuid.UUID, verified bool) (*models.OrganizerProfile, error) {
	p, err := s.store.SetVerified(ctx, targetUserID, verified)
	if err != nil {
		return nil, notFoundOr(err, "update verification")
	}
	s.logger.Info("organizer verification changed", zap.String("user_id", targetUserID.String()), zap.Bool("verified", verified))
	return p, nil
}

// SetProfilePicture stores ref as the caller's picture and deletes the
// previous file. ref is purged if the profile does not exist.
func (s *Service) SetProfilePicture(ctx context.Context, userID uuid.UUID, ref string) (*models.OrganizerProfile, error) {
	old, p, err := s.store.SetProfilePicture(ctx, userID, s.media.Key(ref))
	if err != nil {
		s.media.Purge(ctx, ref)
		return nil, notFoundOr(err, "set profile picture")
	}
	if old != "" && s.media.Key(old) != s.media.Key(ref) {
		s.media.Purge(ctx, old)
	}
	return p, nil
}

// AddMedia appends stored files to one of the caller's collections.
func (s *Service) AddMedia(ctx context.Context, userID uuid.UUID, c media.Collection, refs []string) (*models.OrganizerProfile, error) {
	if err := s.media.AddMany(ctx, userID, c, refs); err != nil {
		return nil, err
	}
	return s.GetOwn(ctx, userID)
}

// RemoveMedia deletes one file from one of the caller's collections.
func (s *Service) RemoveMedia(ctx context.Context, userID uuid.UUID, c media.Collection, ref string) (*models.OrganizerProfile, error) {
	if err := s.media.RemoveOne(ctx, userID, c, ref); err != nil {
		return nil, err
	}
	return s.GetOwn(ctx, userID)
}
