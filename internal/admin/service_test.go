package admin

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/auth"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/queue"
	"github.com/gigstage/backend/pkg/utils"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

// memUsers satisfies both auth.UserStore and UserStore.
type memUsers struct {
	users map[uuid.UUID]*models.User
	seq   int
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	for _, e := range m.users {
		if e.Email == u.Email {
			return auth.ErrEmailTaken
		}
	}
	m.seq++
	u.ID = uuid.New()
	u.CreatedAt = time.Unix(int64(m.seq), 0)
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memUsers) Update(_ context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	c := *u
	return &c, nil
}

func (m *memUsers) List(_ context.Context, offset, limit int) ([]models.User, int, error) {
	all := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return auth.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type noResets struct{}

func (noResets) Save(context.Context, string, uuid.UUID) error { return nil }
func (noResets) Consume(context.Context, string) (uuid.UUID, error) {
	return uuid.Nil, auth.ErrResetTokenInvalid
}

type noMail struct{}

func (noMail) EnqueueEmail(context.Context, queue.EmailPayload) error { return nil }

type memFiles struct{ deleted []string }

func (f *memFiles) Save(context.Context, string, string, io.Reader, int64) error { return nil }
func (f *memFiles) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}
func (f *memFiles) URL(key string) string { return "/uploads/" + key }
func (f *memFiles) PathPrefix() string    { return "uploads" }

type recordingRemover struct {
	calls []uuid.UUID
	err   error
}

func (r *recordingRemover) DeleteForUser(_ context.Context, id uuid.UUID) error {
	r.calls = append(r.calls, id)
	return r.err
}

type fixture struct {
	svc       *Service
	users     *memUsers
	files     *memFiles
	musicians *recordingRemover
	orgs      *recordingRemover
	cleaner   *media.Cleaner
}

func newFixture() *fixture {
	f := &fixture{
		users:     &memUsers{users: map[uuid.UUID]*models.User{}},
		files:     &memFiles{},
		musicians: &recordingRemover{},
		orgs:      &recordingRemover{},
	}
	f.cleaner = media.NewCleaner(f.files, nil, nil)
	accounts := auth.NewService(f.users, auth.NewJWTService("s", 1), noResets{}, noMail{}, f.cleaner, "", nil)
	f.svc = NewService(accounts, f.users, f.cleaner, nil, f.musicians, f.orgs)
	return f
}

func TestCreateAndList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, name := range []string{"anna", "bert", "carl"} {
		_, err := f.svc.Create(ctx, auth.CreateInput{Username: name, Email: name + "@x.com", Password: "Secret1", Role: models.RoleOrganizer})
		require.NoError(t, err)
	}

	list, err := f.svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.TotalPages)
	require.Len(t, list.Users, 2)
	assert.Equal(t, "carl", list.Users[0].Username)

	list, err = f.svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Len(t, list.Users, 3)
}

func TestCreateDuplicatePurgesPicture(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Create(ctx, auth.CreateInput{Username: "anna", Email: "a@x.com", Password: "Secret1", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, auth.CreateInput{Username: "anna2", Email: "a@x.com", Password: "Secret1", Role: models.RoleAdmin, ProfilePicture: "admins/profile/p.png"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, []string{"admins/profile/p.png"}, f.files.deleted)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, err := f.svc.Create(ctx, auth.CreateInput{Username: "anna", Email: "a@x.com", Password: "Secret1", ProfilePicture: "musicians/profile/p.png"})
	require.NoError(t, err)
	id := uuid.MustParse(u.ID)

	require.NoError(t, f.svc.Delete(ctx, id))
	assert.Equal(t, []uuid.UUID{id}, f.musicians.calls)
	assert.Equal(t, []uuid.UUID{id}, f.orgs.calls)
	assert.Empty(t, f.users.users)
	assert.Equal(t, []string{"musicians/profile/p.png"}, f.files.deleted)

	err = f.svc.Delete(ctx, id)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteStopsWhenProfileCleanupFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, err := f.svc.Create(ctx, auth.CreateInput{Username: "anna", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)
	f.musicians.err = apperr.Internal("delete musician profile", errors.New("db down"))

	err = f.svc.Delete(ctx, uuid.MustParse(u.ID))
	require.Error(t, err)
	assert.Len(t, f.users.users, 1)
	assert.Empty(t, f.orgs.calls)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u, err := f.svc.Create(ctx, auth.CreateInput{Username: "anna", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)

	role := models.RoleOrganizer
	updated, err := f.svc.Update(ctx, uuid.MustParse(u.ID), auth.UpdateInput{Role: &role}, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, updated.Role)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
