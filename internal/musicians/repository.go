package musicians

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
	ErrProfileNotFound = errors.New("musician profile not found")
	ErrProfileExists   = errors.New("musician profile exists")
)

const profileColumns = `m.id, m.user_id, COALESCE(u.username, ''), COALESCE(u.email, ''),
	m.stage_name, m.profile_picture, m.bio, m.phone, m.city, m.state, m.country,
	m.genres, m.instruments, m.experience_years, m.hourly_rate,
	m.photos, m.videos, m.audio_samples, m.is_available, m.created_at, m.updated_at`

// selectFrom reads profile rows from source (a table or CTE name) joined to their owner.
func selectFrom(source string) string {
	return `SELECT ` + profileColumns + ` FROM ` + source + ` m LEFT JOIN users u ON u.id = m.user_id`
}

// Repository handles musician profile persistence.
type Repository struct {
	*media.PGStore
	pool *pgxpool.Pool
}

// NewRepository creates a musician repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		PGStore: media.NewPGStore(pool, "musician_profiles", Photos, Videos, AudioSamples),
		pool:    pool,
	}
}

func scanProfile(row pgx.Row, extra ...interface{}) (*models.MusicianProfile, error) {
	var p models.MusicianProfile
	dest := append(extra,
		&p.ID, &p.UserID, &p.Username, &p.Email,
		&p.StageName, &p.ProfilePicture, &p.Bio, &p.Phone, &p.Location.City, &p.Location.State, &p.Location.Country,
		&p.Genres, &p.Instruments, &p.ExperienceYears, &p.HourlyRate,
		&p.Photos, &p.Videos, &p.AudioSamples, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt,
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

// Create inserts p for p.UserID.
func (r *Repository) Create(ctx context.Context, p *models.MusicianProfile) (*models.MusicianProfile, error) {
	q := `WITH ins AS (
		INSERT INTO musician_profiles (user_id, stage_name, bio, phone, city, state, country,
			genres, instruments, experience_years, hourly_rate, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING *
	) ` + selectFrom("ins")
	created, err := scanProfile(r.pool.QueryRow(ctx, q,
		p.UserID, p.StageName, p.Bio, p.Phone, p.Location.City, p.Location.State, p.Location.Country,
		p.Genres, p.Instruments, p.ExperienceYears, p.HourlyRate, p.IsAvailable))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("insert musician profile: %w", err)
	}
	return created, nil
}

// GetByUserID returns the profile owned by userID.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.MusicianProfile, error) {
	return scanProfile(r.pool.QueryRow(ctx, selectFrom("musician_profiles")+` WHERE m.user_id = $1`, userID))
}

// GetByID returns a profile by its own id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.MusicianProfile, error) {
	return scanProfile(r.pool.QueryRow(ctx, selectFrom("musician_profiles")+` WHERE m.id = $1`, id))
}

// Update writes the scalar fields of p. Media collections are left alone.
func (r *Repository) Update(ctx context.Context, p *models.MusicianProfile) (*models.MusicianProfile, error) {
	q := `WITH upd AS (
		UPDATE musician_profiles SET stage_name = $2, bio = $3, phone = $4, city = $5, state = $6, country = $7,
			genres = $8, instruments = $9, experience_years = $10, hourly_rate = $11, is_available = $12,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING *
	) ` + selectFrom("upd")
	return scanProfile(r.pool.QueryRow(ctx, q,
		p.UserID, p.StageName, p.Bio, p.Phone, p.Location.City, p.Location.State, p.Location.Country,
		p.Genres, p.Instruments, p.ExperienceYears, p.HourlyRate, p.IsAvailable))
}

// SetAvailability updates is_available.
func (r *Repository) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*models.MusicianProfile, error) {
	q := `WITH upd AS (
		UPDATE musician_profiles SET is_available = $2, updated_at = NOW() WHERE user_id = $1 RETURNING *
	) ` + selectFrom("upd")
	return scanProfile(r.pool.QueryRow(ctx, q, userID, available))
}

// SetProfilePicture replaces the picture and returns the previous reference.
func (r *Repository) SetProfilePicture(ctx context.Context, userID uuid.UUID, ref string) (string, *models.MusicianProfile, error) {
	q := `WITH prev AS (
		SELECT id, profile_picture FROM musician_profiles WHERE user_id = $1 FOR UPDATE
	), upd AS (
		UPDATE musician_profiles t SET profile_picture = $2, updated_at = NOW()
		FROM prev WHERE t.id = prev.id
		RETURNING t.*
	) SELECT prev.profile_picture, ` + profileColumns + `
		FROM upd m JOIN prev ON prev.id = m.id LEFT JOIN users u ON u.id = m.user_id`
	var old string
	p, err := scanProfile(r.pool.QueryRow(ctx, q, userID, ref), &old)
	if err != nil {
		return "", nil, err
	}
	return old, p, nil
}

// Delete removes the profile and returns it as it was, media included.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) (*models.MusicianProfile, error) {
	q := `WITH del AS (DELETE FROM musician_profiles WHERE user_id = $1 RETURNING *) ` + selectFrom("del")
	return scanProfile(r.pool.QueryRow(ctx, q, userID))
}

// Search returns one page of profiles matching f, newest first, and the total count.
func (r *Repository) Search(ctx context.Context, f models.MusicianFilter) ([]models.MusicianProfile, int, error) {
	var conds database.Conds
	if f.City != "" {
		conds.Add(`m.city ILIKE %s`, database.Contains(f.City))
	}
	if f.Country != "" {
		conds.Add(`m.country ILIKE %s`, database.Contains(f.Country))
	}
	if len(f.Genres) > 0 {
		conds.Add(`m.genres && %s::text[]`, f.Genres)
	}
	if len(f.Instruments) > 0 {
		conds.Add(`m.instruments && %s::text[]`, f.Instruments)
	}
	if f.IsAvailable != nil {
		conds.Add(`m.is_available = %s`, *f.IsAvailable)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM musician_profiles m`+conds.Where(), conds.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count musicians: %w", err)
	}

	q := selectFrom("musician_profiles") + conds.Where() +
		` ORDER BY m.created_at DESC, m.id LIMIT ` + conds.Arg(f.Limit) + ` OFFSET ` + conds.Arg(models.Offset(f.Page, f.Limit))
	rows, err := r.pool.Query(ctx, q, conds.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search musicians: %w", err)
	}
	defer rows.Close()
	list := make([]models.MusicianProfile, 0, f.Limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}
