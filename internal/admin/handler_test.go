package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigstage/backend/internal/auth"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
	"github.com/gigstage/backend/pkg/response"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    models.UserPublic `json:"data"`
}

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	response.UseJSONFieldNames()
	h := NewHandler(f.svc, media.NewIntake(f.cleaner), nil)
	r := gin.New()
	h.Register(r.Group("/admin/users"))
	return r
}

// formRequest builds a multipart request with fields and an optional profilePicture.
func formRequest(t *testing.T, method, target string, fields map[string]string, picture string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if picture != "" {
		fw, err := mw.CreateFormFile("profilePicture", picture)
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body envelope
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHandlerCreateWithPicture(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)
	fields := map[string]string{"username": "venue", "email": "venue@x.com", "password": "Secret1", "role": "organizer"}

	w, body := serve(r, formRequest(t, http.MethodPost, "/admin/users", fields, "logo.png"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "User created successfully", body.Message)
	assert.Equal(t, models.RoleOrganizer, body.Data.Role)
	assert.True(t, strings.HasPrefix(body.Data.ProfilePicture, "/uploads/organizers/profile/"), body.Data.ProfilePicture)
	assert.True(t, strings.HasSuffix(body.Data.ProfilePicture, ".png"))

	fields["username"] = "venue2"
	w, body = serve(r, formRequest(t, http.MethodPost, "/admin/users", fields, "other.png"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already registered.", body.Message)
	require.Len(t, f.files.deleted, 1)
	assert.True(t, strings.HasPrefix(f.files.deleted[0], "organizers/profile/"))

	delete(fields, "role")
	fields["email"] = "third@x.com"
	w, _ = serve(r, formRequest(t, http.MethodPost, "/admin/users", fields, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerMalformedIDIsNotFound(t *testing.T) {
	r := newTestRouter(newFixture())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w, body := serve(r, formRequest(t, method, "/admin/users/not-a-uuid", nil, ""))
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, "User not found", body.Message, method)
	}

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/admin/users/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerUpdateUsesTargetRoleNamespace(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)
	u, err := f.svc.Create(context.Background(), auth.CreateInput{Username: "anna", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)
	target := "/admin/users/" + u.ID

	w, body := serve(r, formRequest(t, http.MethodPut, target, nil, "me.png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(body.Data.ProfilePicture, "/uploads/musicians/profile/"), body.Data.ProfilePicture)
	first := strings.TrimPrefix(body.Data.ProfilePicture, "/uploads/")

	w, body = serve(r, formRequest(t, http.MethodPut, target, map[string]string{"role": "admin"}, "me.png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "User updated successfully", body.Message)
	assert.Equal(t, models.RoleAdmin, body.Data.Role)
	assert.True(t, strings.HasPrefix(body.Data.ProfilePicture, "/uploads/admins/profile/"), body.Data.ProfilePicture)
	assert.Equal(t, []string{first}, f.files.deleted)
}

func TestHandlerListHugePage(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)
	_, err := f.svc.Create(context.Background(), auth.CreateInput{Username: "anna", Email: "a@x.com", Password: "Secret1"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users?page=9223372036854775807", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Data UserList `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Total)
	assert.Empty(t, body.Data.Users)
}
