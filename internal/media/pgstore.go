package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store over TEXT[] columns of a profile table keyed by user_id.
type PGStore struct {
	pool    *pgxpool.Pool
	table   string
	columns map[string]bool
}

// NewPGStore creates a store for table. Only the listed collections may be touched.
func NewPGStore(pool *pgxpool.Pool, table string, collections ...Collection) *PGStore {
	cols := make(map[string]bool, len(collections))
	for _, c := range collections {
		cols[c.Column] = true
	}
	return &PGStore{pool: pool, table: table, columns: cols}
}

func (s *PGStore) column(c Collection) (string, error) {
	if !s.columns[c.Column] {
		return "", fmt.Errorf("unknown media column %q for %s", c.Column, s.table)
	}
	return c.Column, nil
}

func (s *PGStore) ownerExists(ctx context.Context, owner uuid.UUID) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+s.table+` WHERE user_id = $1)`, owner).Scan(&ok)
	return ok, err
}

// AppendMedia appends refs in a single conditional UPDATE so the cap holds
// under concurrent requests.
func (s *PGStore) AppendMedia(ctx context.Context, owner uuid.UUID, c Collection, refs []string) error {
	col, err := s.column(c)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = %[2]s || $2::text[], updated_at = NOW()
		WHERE user_id = $1 AND cardinality(%[2]s) + cardinality($2::text[]) <= $3`, s.table, col)
	tag, err := s.pool.Exec(ctx, q, owner, refs, c.Cap)
	if err != nil {
		return fmt.Errorf("append %s: %w", col, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	exists, err := s.ownerExists(ctx, owner)
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return ErrOwnerNotFound
	}
	return ErrCapacityExceeded
}

// RemoveMedia removes every occurrence of ref from the collection.
func (s *PGStore) RemoveMedia(ctx context.Context, owner uuid.UUID, c Collection, ref string) error {
	col, err := s.column(c)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = array_remove(%[2]s, $2), updated_at = NOW()
		WHERE user_id = $1 AND $2 = ANY(%[2]s)`, s.table, col)
	tag, err := s.pool.Exec(ctx, q, owner, ref)
	if err != nil {
		return fmt.Errorf("remove from %s: %w", col, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	exists, err := s.ownerExists(ctx, owner)
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return ErrOwnerNotFound
	}
	return ErrRefNotFound
}

// ListMedia returns the collection's references in stored order.
func (s *PGStore) ListMedia(ctx context.Context, owner uuid.UUID, c Collection) ([]string, error) {
	col, err := s.column(c)
	if err != nil {
		return nil, err
	}
	var refs []string
	err = s.pool.QueryRow(ctx, `SELECT `+col+` FROM `+s.table+` WHERE user_id = $1`, owner).Scan(&refs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", col, err)
	}
	return refs, nil
}
