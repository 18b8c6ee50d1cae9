package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/queue"
	"github.com/gigstage/backend/pkg/utils"
)

// UserStore is the user persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(u *models.User) (string, error)
}

// ResetTokens stores one-time password reset tokens.
type ResetTokens interface {
	Save(ctx context.Context, token string, userID uuid.UUID) error
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// Mailer queues outgoing email.
type Mailer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// CreateInput is a new account.
type CreateInput struct {
	Username       string
	Email          string
	Password       string
	Role           models.Role
	ProfilePicture string
}

// UpdateInput is a partial account change; nil fields stay untouched.
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *models.Role
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Service implements account registration, login and maintenance.
type Service struct {
	users       UserStore
	tokens      TokenIssuer
	resets      ResetTokens
	mailer      Mailer
	files       *media.Cleaner
	frontendURL string
	logger      *zap.Logger
}

// NewService creates the account service.
func NewService(users UserStore, tokens TokenIssuer, resets ResetTokens, mailer Mailer, files *media.Cleaner, frontendURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:       users,
		tokens:      tokens,
		resets:      resets,
		mailer:      mailer,
		files:       files,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// Public converts u for responses, resolving its picture to a URL.
func (s *Service) Public(u *models.User) models.UserPublic {
	return u.ToPublic(s.files.URL)
}

// Register creates a self-registered account.
func (s *Service) Register(ctx context.Context, in CreateInput) (*models.User, error) {
	in.ProfilePicture = ""
	return s.Create(ctx, in)
}

// Create inserts a new account after checking email and username are free.
// A supplied profile picture is purged if the account is not created.
func (s *Service) Create(ctx context.Context, in CreateInput) (u *models.User, err error) {
	defer func() {
		if err != nil && in.ProfilePicture != "" {
			s.files.Purge(ctx, in.ProfilePicture)
		}
	}()

	if in.Role == "" {
		in.Role = models.RoleMusician
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("Invalid role", apperr.FieldError{Path: "role", Message: "must be one of musician, organizer, admin"})
	}
	if err := s.ensureFree(ctx, &in.Email, &in.Username, "", "", "Email already registered.", "Username already registered."); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u = &models.User{
		Username:       in.Username,
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Password:       hash,
		Role:           in.Role,
		ProfilePicture: in.ProfilePicture,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, s.storeError(err, "Email already registered.", "Username already registered.")
	}
	return u, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if !utils.CheckPassword(password, u.Password) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	token, err := s.tokens.Generate(u)
	if err != nil {
		return nil, apperr.Internal("generate token", err)
	}
	return &LoginResult{Token: token, User: s.Public(u)}, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	return u, nil
}

// Update applies in to user id. A non-empty newPicture replaces the current
// picture, whose file is deleted once the change is stored. On failure
// newPicture is purged.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, newPicture string) (u *models.User, err error) {
	defer func() {
		if err != nil && newPicture != "" {
			s.files.Purge(ctx, newPicture)
		}
	}()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, apperr.Validation("Invalid role", apperr.FieldError{Path: "role", Message: "must be one of musician, organizer, admin"})
	}
	if err := s.ensureFree(ctx, in.Email, in.Username, current.Email, current.Username, "Email already in use", "Username already in use"); err != nil {
		return nil, err
	}

	upd := models.UserUpdate{Username: in.Username, Email: in.Email, Role: in.Role}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Internal("hash password", err)
		}
		upd.Password = &hash
	}
	if newPicture != "" {
		key := s.files.Key(newPicture)
		upd.ProfilePicture = &key
	}

	u, err = s.users.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, s.storeError(err, "Email already in use", "Username already in use")
	}
	if newPicture != "" && current.ProfilePicture != "" && s.files.Key(current.ProfilePicture) != s.files.Key(newPicture) {
		s.files.Purge(ctx, current.ProfilePicture)
	}
	return u, nil
}

// ForgotPassword issues a reset token and queues the reset email. Unknown
// emails succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Internal("load user", err)
	}
	token := uuid.NewString()
	if err := s.resets.Save(ctx, token, u.ID); err != nil {
		return apperr.Internal("save reset token", err)
	}
	link := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	err = s.mailer.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      models.EmailTypePasswordReset,
		RecipientEmail: u.Email,
		Subject:        "Reset your password",
		BodyText:       fmt.Sprintf("Hi %s,\n\nUse the link below to reset your password:\n%s\n\nIf you did not request this, you can ignore this email.", u.Username, link),
	})
	if err != nil {
		return apperr.Internal("enqueue reset email", err)
	}
	s.logger.Info("password reset requested", zap.String("user_id", u.ID.String()))
	return nil
}

// ResetPassword consumes token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	id, err := s.resets.Consume(ctx, token)
	if errors.Is(err, ErrResetTokenInvalid) {
		return apperr.Validation("Invalid or expired reset token")
	}
	if err != nil {
		return apperr.Internal("consume reset token", err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	if _, err := s.users.Update(ctx, id, models.UserUpdate{Password: &hash}); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.Validation("Invalid or expired reset token")
		}
		return apperr.Internal("update password", err)
	}
	return nil
}

// ensureFree checks that email and username, when set and different from
// the current values, belong to nobody.
func (s *Service) ensureFree(ctx context.Context, email, username *string, curEmail, curUsername, emailMsg, usernameMsg string) error {
	if email != nil && !strings.EqualFold(strings.TrimSpace(*email), curEmail) {
		_, err := s.users.GetByEmail(ctx, *email)
		if err == nil {
			return apperr.Conflict(emailMsg)
		}
		if !errors.Is(err, ErrUserNotFound) {
			return apperr.Internal("check email", err)
		}
	}
	if username != nil && *username != curUsername {
		_, err := s.users.GetByUsername(ctx, *username)
		if err == nil {
			return apperr.Conflict(usernameMsg)
		}
		if !errors.Is(err, ErrUserNotFound) {
			return apperr.Internal("check username", err)
		}
	}
	return nil
}

func (s *Service) storeError(err error, emailMsg, usernameMsg string) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return apperr.Conflict(emailMsg)
	case errors.Is(err, ErrUsernameTaken):
		return apperr.Conflict(usernameMsg)
	default:
		return apperr.Internal("store user", err)
	}
}
