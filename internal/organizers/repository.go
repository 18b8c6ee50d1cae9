package organizers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/database"
)

var (
	ErrProfileNotFound = errors.New("organizer profile not found")
	ErrProfileExists   = errors.New("organizer profile exists")
)

const profileColumns = `o.id, o.user_id, COALESCE(u.username, ''), COALESCE(u.email, ''),
	o.organization_name, o.profile_picture, o.bio, o.contact_person, o.phone, o.email,
	o.city, o.state, o.country, o.website, o.organization_type, o.event_types,
	o.photos, o.videos, o.verification_documents, o.is_verified, o.is_active, o.created_at, o.updated_at`

func selectFrom(source string) string {
	return `SELECT ` + profileColumns + ` FROM ` + source + ` o LEFT JOIN users u ON u.id = o.user_id`
}

// Repository handles organizer profile persistence.
type Repository struct {
	*media.PGStore
	pool *pgxpool.Pool
}

// NewRepository creates an organizer repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		PGStore: media.NewPGStore(pool, "organizer_profiles", Photos, Videos, Documents),
		pool:    pool,
	}
}

func scanProfile(row pgx.Row, extra ...interface{}) (*models.OrganizerProfile, error) {
	var p models.OrganizerProfile
	dest := append(extra,
		&p.ID, &p.UserID, &p.OwnerUsername, &p.OwnerEmail,
		&p.OrganizationName, &p.ProfilePicture, &p.Bio, &p.ContactPerson, &p.Phone, &p.Email,
		&p.Location.City, &p.Location.State, &p.Location.Country, &p.Website, &p.OrganizationType, &p.EventTypes,
		&p.Photos, &p.Videos, &p.VerificationDocuments, &p.IsVerified, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts p for p.UserID. New profiles start unverified.
func (r *Repository) Create(ctx context.Context, p *models.OrganizerProfile) (*models.OrganizerProfile, error) {
	q := `WITH ins AS (
		INSERT INTO organizer_profiles (user_id, organization_name, bio, contact_person, phone, email,
			city, state, country, website, organization_type, event_types, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING *
	) ` + selectFrom("ins")
	created, err := scanProfile(r.pool.QueryRow(ctx, q,
		p.UserID, p.OrganizationName, p.Bio, p.ContactPerson, p.Phone, p.Email,
		p.Location.City, p.Location.State, p.Location.Country, p.Website, p.OrganizationType, p.EventTypes, p.IsActive))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("insert organizer profile: %w", err)
	}
	return created, nil
}

// GetByUserID returns the profile owned by userID.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.OrganizerProfile, error) {
	return scanProfile(r.pool.QueryRow(ctx, selectFrom("organizer_profiles")+` WHERE o.user_id = $1`, userID))
}

// GetByID returns a profile by its own id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.OrganizerProfile, error) {
	return scanProfile(r.pool.QueryRow(ctx, selectFrom("organizer_profiles")+` WHERE o.id = $1`, id))
}

// Update writes the owner-editable scalar fields of p. Verification and media are left alone.
func (r *Repository) Update(ctx context.Context, p *models.OrganizerProfile) (*models.OrganizerProfile, error) {
	q := `WITH upd AS (
		UPDATE organizer_profiles SET organization_name = $2, bio = $3, contact_person = $4, phone = $5, email = $6,
			city = $7, state = $8, country = $9, website = $10, organization_type = $11, event_types = $12,
			is_active = $13, updated_at = NOW()
		WHERE user_id = $1
		RETURNING *
	) ` + selectFrom("upd")
	return scanProfile(r.pool.QueryRow(ctx, q,
		p.UserID, p.OrganizationName, p.Bio, p.ContactPerson, p.Phone, p.Email,
		p.Location.City, p.Location.State, p.Location.Country, p.Website, p.OrganizationType, p.EventTypes, p.IsActive))
}

// setFlag updates one boolean column.
func (r *Repository) setFlag(ctx context.Context, userID uuid.UUID, column string, v bool) (*models.OrganizerProfile, error) {
	q := `WITH upd AS (
		UPDATE organizer_profiles SET ` + column + ` = $2, updated_at = NOW() WHERE user_id = $1 RETURNING *
	) ` + selectFrom("upd")
	return scanProfile(r.pool.QueryRow(ctx, q, userID, v))
}

// SetActive updates is_active.
func (r *Repository) SetActive(ctx context.Context, userID uuid.UUID, active bool) (*models.OrganizerProfile, error) {
	return r.setFlag(ctx, userID, "is_active", active)
}

// SetVerified updates is_verified.
func (r *Repository) SetVerified(ctx context.Context, userID uuid.UUID, verified bool) (*models.OrganizerProfile, error) {
	return r.setFlag(ctx, userID, "is_verified", verified)
}

// SetProfilePicture replaces the picture and returns the previous reference.
func (r *Repository) SetProfilePicture(ctx context.Context, userID uuid.UUID, ref string) (string, *models.OrganizerProfile, error) {
	q := `WITH prev AS (
		SELECT id, profile_picture FROM organizer_profiles WHERE user_id = $1 FOR UPDATE
	), upd AS (
		UPDATE organizer_profiles t SET profile_picture = $2, updated_at = NOW()
		FROM prev WHERE t.id = prev.id
		RETURNING t.*
	) SELECT prev.profile_picture, ` + profileColumns + `
		FROM upd o JOIN prev ON prev.id = o.id LEFT JOIN users u ON u.id = o.user_id`
	var old string
	p, err := scanProfile(r.pool.QueryRow(ctx, q, userID, ref), &old)
	if err != nil {
		return "", nil, err
	}
	return old, p, nil
}

// Delete removes the profile and returns it as it was, media included.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) (*models.OrganizerProfile, error) {
	q := `WITH del AS (DELETE FROM organizer_profiles WHERE user_id = $1 RETURNING *) ` + selectFrom("del")
	return scanProfile(r.pool.QueryRow(ctx, q, userID))
}

// Search returns one page of profiles matching f, newest first, and the total count.
func (r *Repository) Search(ctx context.Context, f models.OrganizerFilter) ([]models.OrganizerProfile, int, error) {
	var conds database.Conds
	if f.City != "" {
		conds.Add(`o.city ILIKE %s`, database.Contains(f.City))
	}
	if f.Country != "" {
		conds.Add(`o.country ILIKE %s`, database.Contains(f.Country))
	}
	if f.OrganizationType != "" {
		conds.Add(`o.organization_type ILIKE %s`, database.Contains(f.OrganizationType))
	}
	if len(f.EventTypes) > 0 {
		conds.Add(`o.event_types && %s::text[]`, f.EventTypes)
	}
	if f.IsVerified != nil {
		conds.Add(`o.is_verified = %s`, *f.IsVerified)
	}
	if f.IsActive != nil {
		conds.Add(`o.is_active = %s`, *f.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM organizer_profiles o`+conds.Where(), conds.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count organizers: %w", err)
	}

	q := selectFrom("organizer_profiles") + conds.Where() +
		` ORDER BY o.created_at DESC, o.id LIMIT ` + conds.Arg(f.Limit) + ` OFFSET ` + conds.Arg(models.Offset(f.Page, f.Limit))
	rows, err := r.pool.Query(ctx, q, conds.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search organizers: %w", err)
	}
	defer rows.Close()
	list := make([]models.OrganizerProfile, 0, f.Limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}
