package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gigstage/backend/internal/apperr"
)

// Store errors the manager translates.
var (
	ErrOwnerNotFound    = errors.New("media owner not found")
	ErrCapacityExceeded = errors.New("media capacity exceeded")
	ErrRefNotFound      = errors.New("media reference not found")
)

// Collection describes one media list on a profile.
type Collection struct {
	Name   string // request/response field name, e.g. "audioSamples"
	Column string // storage column
	Cap    int
	Label  string // plural used in the capacity message
	Noun   string // singular used in the not-found message
}

// Store is the profile persistence the manager drives.
type Store interface {
	// AppendMedia appends refs in order only if the collection stays within
	// c.Cap, checked and written atomically. Returns ErrOwnerNotFound or
	// ErrCapacityExceeded when nothing was written.
	AppendMedia(ctx context.Context, owner uuid.UUID, c Collection, refs []string) error
	// RemoveMedia drops ref from the collection. Returns ErrOwnerNotFound or ErrRefNotFound.
	RemoveMedia(ctx context.Context, owner uuid.UUID, c Collection, ref string) error
	// ListMedia returns the stored references. Returns ErrOwnerNotFound.
	ListMedia(ctx context.Context, owner uuid.UUID, c Collection) ([]string, error)
}

// Manager enforces caps and keeps reference lists and stored files in step
// for one profile type.
type Manager struct {
	*Cleaner
	store         Store
	ownerNotFound string
}

// NewManager binds a cleaner to a profile store. ownerNotFound is the
// message returned when the owner has no profile.
func NewManager(cleaner *Cleaner, store Store, ownerNotFound string) *Manager {
	return &Manager{Cleaner: cleaner, store: store, ownerNotFound: ownerNotFound}
}

// AddMany appends newly stored refs to the owner's collection. On any
// failure every ref of this call is purged before the error is returned.
func (m *Manager) AddMany(ctx context.Context, owner uuid.UUID, c Collection, refs []string) error {
	if len(refs) == 0 {
		return apperr.Validation("No files uploaded")
	}
	if len(refs) > c.Cap {
		m.Purge(ctx, refs...)
		return capacityError(c)
	}
	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = m.Key(r)
	}
	err := m.store.AppendMedia(ctx, owner, c, keys)
	if err == nil {
		return nil
	}
	m.Purge(ctx, refs...)
	switch {
	case errors.Is(err, ErrOwnerNotFound):
		return apperr.NotFound(m.ownerNotFound)
	case errors.Is(err, ErrCapacityExceeded):
		return capacityError(c)
	default:
		return apperr.Internal("append media", err)
	}
}

// RemoveOne deletes the stored file matching ref and drops it from the collection.
func (m *Manager) RemoveOne(ctx context.Context, owner uuid.UUID, c Collection, ref string) error {
	stored, err := m.store.ListMedia(ctx, owner, c)
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return apperr.NotFound(m.ownerNotFound)
		}
		return apperr.Internal("list media", err)
	}
	found, ok := match(stored, ref, m.files.PathPrefix())
	if !ok {
		return apperr.NotFound(c.Noun + " not found in profile")
	}
	m.Purge(ctx, found)
	if err := m.store.RemoveMedia(ctx, owner, c, found); err != nil {
		switch {
		case errors.Is(err, ErrOwnerNotFound):
			return apperr.NotFound(m.ownerNotFound)
		case errors.Is(err, ErrRefNotFound):
			return apperr.NotFound(c.Noun + " not found in profile")
		default:
			return apperr.Internal("remove media", err)
		}
	}
	return nil
}

func capacityError(c Collection) error {
	return apperr.Validation(fmt.Sprintf("Cannot exceed %d %s limit", c.Cap, c.Label))
}
