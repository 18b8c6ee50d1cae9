package musicians

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
)

// Media collections of a musician profile.
var (
	Photos       = media.Collection{Name: "photos", Column: "photos", Cap: 10, Label: "photos", Noun: "Photo"}
	Videos       = media.Collection{Name: "videos", Column: "videos", Cap: 5, Label: "videos", Noun: "Video"}
	AudioSamples = media.Collection{Name: "audioSamples", Column: "audio_samples", Cap: 10, Label: "audio samples", Noun: "Audio sample"}
)

const (
	msgNotFound = "Musician profile not found"
	msgExists   = "Musician profile already exists for this user"
)

// Store is the profile persistence the service needs.
type Store interface {
	media.Store
	Create(ctx context.Context, p *models.MusicianProfile) (*models.MusicianProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MusicianProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.MusicianProfile, error)
	Update(ctx context.Context, p *models.MusicianProfile) (*models.MusicianProfile, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*models.MusicianProfile, error)
	SetProfilePicture(ctx context.Context, userID uuid.UUID, ref string) (string, *models.MusicianProfile, error)
	Delete(ctx context.Context, userID uuid.UUID) (*models.MusicianProfile, error)
	Search(ctx context.Context, f models.MusicianFilter) ([]models.MusicianProfile, int, error)
}

// CreateRequest is the body for POST /musicians/profile.
type CreateRequest struct {
	StageName       string          `json:"stageName" binding:"required,min=1,max=100"`
	Bio             *string         `json:"bio" binding:"omitempty,max=1000"`
	Phone           string          `json:"phone" binding:"required,min=10"`
	Location        models.Location `json:"location" binding:"required"`
	Genres          []string        `json:"genres" binding:"required,min=1,dive,required"`
	Instruments     []string        `json:"instruments" binding:"required,min=1,dive,required"`
	ExperienceYears *int            `json:"experienceYears" binding:"required,gte=0"`
	HourlyRate      *float64        `json:"hourlyRate" binding:"omitempty,gte=0"`
	IsAvailable     *bool           `json:"isAvailable"`
}

// UpdateRequest is the body for PUT /musicians/profile. Omitted fields are unchanged.
type UpdateRequest struct {
	StageName       *string                `json:"stageName" binding:"omitempty,min=1,max=100"`
	Bio             *string                `json:"bio" binding:"omitempty,max=1000"`
	Phone           *string                `json:"phone" binding:"omitempty,min=10"`
	Location        *models.LocationUpdate `json:"location"`
	Genres          []string               `json:"genres" binding:"omitempty,min=1,dive,required"`
	Instruments     []string               `json:"instruments" binding:"omitempty,min=1,dive,required"`
	ExperienceYears *int                   `json:"experienceYears" binding:"omitempty,gte=0"`
	HourlyRate      *float64               `json:"hourlyRate" binding:"omitempty,gte=0"`
	IsAvailable     *bool                  `json:"isAvailable"`
}

func (u *UpdateRequest) apply(p *models.MusicianProfile) {
	if u.StageName != nil {
		p.StageName = *u.StageName
	}
	if u.Bio != nil {
		p.Bio = u.Bio
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	p.Location = u.Location.Apply(p.Location)
	if u.Genres != nil {
		p.Genres = u.Genres
	}
	if u.Instruments != nil {
		p.Instruments = u.Instruments
	}
	if u.ExperienceYears != nil {
		p.ExperienceYears = *u.ExperienceYears
	}
	if u.HourlyRate != nil {
		p.HourlyRate = u.HourlyRate
	}
	if u.IsAvailable != nil {
		p.IsAvailable = *u.IsAvailable
	}
}

// Service implements musician profile operations.
type Service struct {
	store  Store
	media  *media.Manager
	logger *zap.Logger
}

// NewService creates a musician service.
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
func (s *Service) Response(p *models.MusicianProfile) models.MusicianResponse {
	return p.ToResponse(s.media.URL)
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, ErrProfileNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	return apperr.Internal(op, err)
}

// Create makes the caller's profile. A user has at most one.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.MusicianProfile, error) {
	if _, err := s.store.GetByUserID(ctx, userID); err == nil {
		return nil, apperr.Conflict(msgExists)
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, apperr.Internal("load musician profile", err)
	}
	p := &models.MusicianProfile{
		UserID:      userID,
		StageName:   req.StageName,
		Bio:         req.Bio,
		Phone:       req.Phone,
		Location:    req.Location,
		Genres:      req.Genres,
		Instruments: req.Instruments,
		HourlyRate:  req.HourlyRate,
		IsAvailable: true,
	}
	if req.ExperienceYears != nil {
		p.ExperienceYears = *req.ExperienceYears
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	created, err := s.store.Create(ctx, p)
	if errors.Is(err, ErrProfileExists) {
		return nil, apperr.Conflict(msgExists)
	}
	if err != nil {
		return nil, apperr.Internal("create musician profile", err)
	}
	return created, nil
}

// GetOwn returns the caller's profile.
func (s *Service) GetOwn(ctx context.Context, userID uuid.UUID) (*models.MusicianProfile, error) {
	p, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "load musician profile")
	}
	return p, nil
}

// GetByID returns any profile by id. Malformed ids are treated as missing.
func (s *Service) GetByID(ctx context.Context, rawID string) (*models.MusicianProfile, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperr.NotFound(msgNotFound)
	}
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load musician profile")
	}
	return p, nil
}

// Update merges req into the caller's profile.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*models.MusicianProfile, error) {
	p, err := s.GetOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	updated, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, notFoundOr(err, "update musician profile")
	}
	return updated, nil
}

// Delete removes the caller's profile, then deletes its files best-effort.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID) error {
	p, err := s.store.Delete(ctx, userID)
	if err != nil {
		return notFoundOr(err, "delete musician profile")
	}
	s.media.Purge(ctx, p.MediaRefs()...)
	s.logger.Info("musician profile deleted", zap.String("user_id", userID.String()), zap.Int("files", len(p.MediaRefs())))
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
func (s *Service) Search(ctx context.Context, f models.MusicianFilter) (models.Page[models.MusicianResponse], error) {
	f.Page, f.Limit = models.NormalizePaging(f.Page, f.Limit)
	list, total, err := s.store.Search(ctx, f)
	if err != nil {
		return models.Page[models.MusicianResponse]{}, apperr.Internal("search musicians", err)
	}
	items := make([]models.MusicianResponse, len(list))
	for i := range list {
		items[i] = s.Response(&list[i])
	}
	return models.Page[models.MusicianResponse]{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		TotalPages: models.TotalPages(total, f.Limit),
	}, nil
}

// SetAvailability updates the caller's availability flag.
func (s *Service) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*models.MusicianProfile, error) {
	p, err := s.store.SetAvailability(ctx, userID, available)
	if err != nil {
		return nil, notFoundOr(err, "update availability")
	}
	return p, nil
}

// SetProfilePicture stores ref as the caller's picture and deletes the
// previous file. ref is purged if the profile does not exist.
func (s *Service) SetProfilePicture(ctx context.Context, userID uuid.UUID, ref string) (*models.MusicianProfile, error) {
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
func (s *Service) AddMedia(ctx context.Context, userID uuid.UUID, c media.Collection, refs []string) (*models.MusicianProfile, error) {
	if err := s.media.AddMany(ctx, userID, c, refs); err != nil {
		return nil, err
	}
	return s.GetOwn(ctx, userID)
}

// RemoveMedia deletes one file from one of the caller's collections.
func (s *Service) RemoveMedia(ctx context.Context, userID uuid.UUID, c media.Collection, ref string) (*models.MusicianProfile, error) {
	if err := s.media.RemoveOne(ctx, userID, c, ref); err != nil {
		return nil, err
	}
	return s.GetOwn(ctx, userID)
}
