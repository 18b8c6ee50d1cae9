package musicians

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
)

type memFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (f *memFiles) Save(context.Context, string, string, io.Reader, int64) error { return nil }
func (f *memFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}
func (f *memFiles) URL(key string) string { return "http://localhost:5000/uploads/" + key }
func (f *memFiles) PathPrefix() string    { return "uploads" }

// memStore is an in-memory Store keyed by owner.
type memStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.MusicianProfile
}

func newMemStore() *memStore {
	return &memStore{profiles: map[uuid.UUID]*models.MusicianProfile{}}
}

func clone(p *models.MusicianProfile) *models.MusicianProfile {
	c := *p
	c.Photos = append([]string(nil), p.Photos...)
	c.Videos = append([]string(nil), p.Videos...)
	c.AudioSamples = append([]string(nil), p.AudioSamples...)
	return &c
}

func (s *memStore) col(p *models.MusicianProfile, c media.Collection) *[]string {
	switch c.Column {
	case Photos.Column:
		return &p.Photos
	case Videos.Column:
		return &p.Videos
	default:
		return &p.AudioSamples
	}
}

func (s *memStore) AppendMedia(_ context.Context, owner uuid.UUID, c media.Collection, refs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return media.ErrOwnerNotFound
	}
	list := s.col(p, c)
	if len(*list)+len(refs) > c.Cap {
		return media.ErrCapacityExceeded
	}
	*list = append(*list, refs...)
	return nil
}

func (s *memStore) RemoveMedia(_ context.Context, owner uuid.UUID, c media.Collection, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return media.ErrOwnerNotFound
	}
	list := s.col(p, c)
	for i, r := range *list {
		if r == ref {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return nil
		}
	}
	return media.ErrRefNotFound
}

func (s *memStore) ListMedia(_ context.Context, owner uuid.UUID, c media.Collection) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[owner]
	if !ok {
		return nil, media.ErrOwnerNotFound
	}
	return append([]string(nil), *s.col(p, c)...), nil
}

func (s *memStore) Create(_ context.Context, p *models.MusicianProfile) (*models.MusicianProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; ok {
		return nil, ErrProfileExists
	}
	c := clone(p)
	c.ID = uuid.New()
	c.CreatedAt = time.Now().Add(time.Duration(len(s.profiles)) * time.Second)
	s.profiles[p.UserID] = c
	return clone(c), nil
}

func (s *memStore) GetByUserID(_ context.Context, userID uuid.UUID) (*models.MusicianProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return clone(p), nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.MusicianProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.ID == id {
			return clone(p), nil
		}
	}
	return nil, ErrProfileNotFound
}

func (s *memStore) Update(_ context.Context, p *models.MusicianProfile) (*models.MusicianProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.profiles[p.UserID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	next := clone(p)
	next.Photos, next.Videos, next.AudioSamples = cur.Photos, cur.Videos, cur.AudioSamples
	s.profiles[p.UserID] = next
	return clone(next), nil
}

func (s *memStore) SetAvailability(_ context.Context, userID uuid.UUID, v bool) (*models.MusicianProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p.IsAvailable = v
	return clone(p), nil
}

func (s *memStore) SetProfilePicture(_ context.Context, userID uuid.UUID, ref string) (string, *models.MusicianProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return "", nil, ErrProfileNotFound
	}
	old := p.ProfilePicture
	p.ProfilePicture = ref
	return old, clone(p), nil
}

func (s *memStore) Delete(_ context.Context, userID uuid.UUID) (*models.MusicianProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	delete(s.profiles, userID)
	return p, nil
}

func (s *memStore) Search(_ context.Context, f models.MusicianFilter) ([]models.MusicianProfile, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.MusicianProfile
	for _, p := range s.profiles {
		if f.City != "" && !strings.Contains(strings.ToLower(p.Location.City), strings.ToLower(f.City)) {
			continue
		}
		if f.IsAvailable != nil && p.IsAvailable != *f.IsAvailable {
			continue
		}
		all = append(all, *clone(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := models.Offset(f.Page, f.Limit)
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func newTestService() (*Service, *memStore, *memFiles) {
	store := newMemStore()
	files := &memFiles{}
	return NewService(store, media.NewCleaner(files, nil, nil), nil), store, files
}

func intPtr(v int) *int { return &v }

func validCreate() CreateRequest {
	return CreateRequest{
		StageName:       "DJ Test",
		Phone:           "1234567890",
		Location:        models.Location{City: "Austin", State: "TX", Country: "USA"},
		Genres:          []string{"jazz"},
		Instruments:     []string{"piano"},
		ExperienceYears: intPtr(5),
	}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.Create(ctx, owner, validCreate())
	require.NoError(t, err)
	assert.True(t, p.IsAvailable)
	assert.Equal(t, 5, p.ExperienceYears)

	_, err = svc.Create(ctx, owner, validCreate())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "Musician profile already exists for this user", err.Error())
}

func TestGetByIDMalformedIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetByID(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateMergesPartially(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	_, err := svc.Create(ctx, owner, validCreate())
	require.NoError(t, err)

	city := "Dallas"
	rate := 80.0
	p, err := svc.Update(ctx, owner, UpdateRequest{
		Location:   &models.LocationUpdate{City: &city},
		HourlyRate: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Location{City: "Dallas", State: "TX", Country: "USA"}, p.Location)
	assert.Equal(t, "DJ Test", p.StageName)
	require.NotNil(t, p.HourlyRate)
	assert.Equal(t, 80.0, *p.HourlyRate)

	_, err = svc.Update(ctx, uuid.New(), UpdateRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMediaLifecycle(t *testing.T) {
	svc, store, files := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	_, err := svc.Create(ctx, owner, validCreate())
	require.NoError(t, err)

	p, err := svc.AddMedia(ctx, owner, Videos, []string{"musicians/videos/1.mp4", "musicians/videos/2.mp4"})
	require.NoError(t, err)
	assert.Len(t, p.Videos, 2)

	_, err = svc.AddMedia(ctx, owner, Videos, []string{"musicians/videos/3.mp4", "musicians/videos/4.mp4", "musicians/videos/5.mp4", "musicians/videos/6.mp4"})
	require.Error(t, err)
	assert.Equal(t, "Cannot exceed 5 videos limit", err.Error())
	assert.Len(t, store.profiles[owner].Videos, 2)
	assert.Len(t, files.deleted, 4)

	p, err = svc.RemoveMedia(ctx, owner, Videos, "http://localhost:5000/uploads/musicians/videos/1.mp4")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5000/uploads/musicians/videos/2.mp4"}, svc.Response(p).Videos)

	_, err = svc.RemoveMedia(ctx, owner, AudioSamples, "musicians/audio/none.mp3")
	require.Error(t, err)
	assert.Equal(t, "Audio sample not found in profile", err.Error())
}

func TestAddMediaWithoutProfilePurges(t *testing.T) {
	svc, _, files := newTestService()
	_, err := svc.AddMedia(context.Background(), uuid.New(), Photos, []string{"musicians/photos/a.jpg"})
	require.Error(t, err)
	assert.Equal(t, "Musician profile not found", err.Error())
	assert.Equal(t, []string{"musicians/photos/a.jpg"}, files.deleted)
}

func TestSetProfilePictureReplacesOld(t *testing.T) {
	svc, _, files := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	_, err := svc.Create(ctx, owner, validCreate())
	require.NoError(t, err)

	_, err = svc.SetProfilePicture(ctx, owner, "musicians/profile/a.png")
	require.NoError(t, err)
	assert.Empty(t, files.deleted)

	p, err := svc.SetProfilePicture(ctx, owner, "musicians/profile/b.png")
	require.NoError(t, err)
	assert.Equal(t, "musicians/profile/b.png", p.ProfilePicture)
	assert.Equal(t, []string{"musicians/profile/a.png"}, files.deleted)

	_, err = svc.SetProfilePicture(ctx, uuid.New(), "musicians/profile/c.png")
	require.Error(t, err)
	assert.Contains(t, files.deleted, "musicians/profile/c.png")
}

func TestDeletePurgesAllFiles(t *testing.T) {
	svc, store, files := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	_, err := svc.Create(ctx, owner, validCreate())
	require.NoError(t, err)
	_, err = svc.SetProfilePicture(ctx, owner, "musicians/profile/a.png")
	require.NoError(t, err)
	_, err = svc.AddMedia(ctx, owner, Photos, []string{"musicians/photos/1.jpg"})
	require.NoError(t, err)
	_, err = svc.AddMedia(ctx, owner, AudioSamples, []string{"musicians/audio/1.mp3"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner))
	assert.Empty(t, store.profiles)
	assert.ElementsMatch(t, []string{"musicians/profile/a.png", "musicians/photos/1.jpg", "musicians/audio/1.mp3"}, files.deleted)

	assert.True(t, apperr.Is(svc.Delete(ctx, owner), apperr.KindNotFound))
	assert.NoError(t, svc.DeleteForUser(ctx, owner))
}

func TestSearchPaginates(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, uuid.New(), validCreate())
		require.NoError(t, err)
	}

	page, err := svc.Search(ctx, models.MusicianFilter{City: "aus", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 1)

	page, err = svc.Search(ctx, models.MusicianFilter{City: "nowhere"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, page.Items)
}

// failingDelete loses the connection on Delete.
type failingDelete struct{ *memStore }

func (failingDelete) Delete(context.Context, uuid.UUID) (*models.MusicianProfile, error) {
	return nil, errors.New("connection reset")
}

func TestDeleteKeepsFilesWhenRecordSurvives(t *testing.T) {
	store := newMemStore()
	files := &memFiles{}
	svc := NewService(failingDelete{store}, media.NewCleaner(files, nil, nil), nil)
	ctx := context.Background()
	owner := uuid.New()
	_, err := svc.Create(ctx, owner, validCreate())
	require.NoError(t, err)
	_, err = svc.AddMedia(ctx, owner, Photos, []string{"musicians/photos/1.jpg"})
	require.NoError(t, err)

	err = svc.Delete(ctx, owner)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Empty(t, files.deleted, "files stay while the profile still references them")
	assert.Len(t, store.profiles, 1)
}
