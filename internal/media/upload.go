package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/models"
)

const mb = 1 << 20

// Rule constrains one multipart field.
type Rule struct {
	Field        string
	Folder       string
	MaxSize      int64
	MaxCount     int
	Extensions   []string
	MIMEPrefixes []string
}

// Upload field rules.
var (
	ProfilePictureRule = Rule{
		Field: "profilePicture", Folder: "profile", MaxSize: 5 * mb, MaxCount: 1,
		Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}, MIMEPrefixes: []string{"image/"},
	}
	PhotosRule = Rule{
		Field: "photos", Folder: "photos", MaxSize: 5 * mb, MaxCount: 20,
		Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}, MIMEPrefixes: []string{"image/"},
	}
	VideosRule = Rule{
		Field: "videos", Folder: "videos", MaxSize: 100 * mb, MaxCount: 10,
		Extensions: []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}, MIMEPrefixes: []string{"video/"},
	}
	AudioRule = Rule{
		Field: "audioSamples", Folder: "audio", MaxSize: 50 * mb, MaxCount: 10,
		Extensions: []string{".mp3", ".wav", ".ogg", ".m4a", ".aac", ".flac"}, MIMEPrefixes: []string{"audio/"},
	}
	DocumentsRule = Rule{
		Field: "verificationDocuments", Folder: "documents", MaxSize: 10 * mb, MaxCount: 5,
		Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".jpg", ".jpeg", ".png"},
		MIMEPrefixes: []string{
			"application/pdf", "application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"text/plain", "image/jpeg", "image/png",
		},
	}
)

func (r Rule) accepts(fh *multipart.FileHeader) bool {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	for _, e := range r.Extensions {
		if ext == e {
			return true
		}
	}
	ct := strings.ToLower(fh.Header.Get("Content-Type"))
	for _, p := range r.MIMEPrefixes {
		if ct != "" && strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}

// Intake stores multipart uploads under {namespace}/{folder}/<uuid><ext>.
type Intake struct {
	*Cleaner
}

// NewIntake creates an Intake over cleaner's file store.
func NewIntake(cleaner *Cleaner) *Intake {
	return &Intake{Cleaner: cleaner}
}

// FormFiles returns the files sent under field, or nil when the request
// carries none.
func FormFiles(c *gin.Context, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

// SaveFiles validates and stores files. Either every file is stored and its
// key returned, or nothing remains stored and an error is returned.
func (in *Intake) SaveFiles(ctx context.Context, namespace string, rule Rule, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("No files uploaded")
	}
	if len(files) > rule.MaxCount {
		return nil, apperr.Validation(fmt.Sprintf("Too many files for %s (max %d)", rule.Field, rule.MaxCount))
	}
	for _, fh := range files {
		if err := rule.check(fh); err != nil {
			return nil, err
		}
	}
	keys := make([]string, 0, len(files))
	for _, fh := range files {
		key, err := in.save(ctx, namespace, rule, fh)
		if err != nil {
			in.Purge(ctx, keys...)
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// SaveOptional stores the single file sent under rule.Field, returning ""
// when the request has none.
func (in *Intake) SaveOptional(c *gin.Context, namespace string, rule Rule) (string, error) {
	files := FormFiles(c, rule.Field)
	if len(files) == 0 {
		return "", nil
	}
	keys, err := in.SaveFiles(c.Request.Context(), namespace, rule, files)
	if err != nil {
		return "", err
	}
	return keys[0], nil
}

func (r Rule) check(fh *multipart.FileHeader) error {
	if fh.Size > r.MaxSize {
		return apperr.Validation(fmt.Sprintf("File %s exceeds the %dMB limit for %s", fh.Filename, r.MaxSize/mb, r.Field))
	}
	if !r.accepts(fh) {
		return apperr.Validation(fmt.Sprintf("File type not allowed for %s", r.Field))
	}
	return nil
}

func (in *Intake) save(ctx context.Context, namespace string, rule Rule, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", apperr.Internal("open upload", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	key := path.Join(namespace, rule.Folder, uuid.NewString()+ext)
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		buf := make([]byte, 512)
		n, _ := f.Read(buf)
		ct = http.DetectContentType(buf[:n])
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", apperr.Internal("rewind upload", err)
		}
	}
	if err := in.files.Save(ctx, key, ct, f, fh.Size); err != nil {
		return "", apperr.Internal("store upload", err)
	}
	return key, nil
}

// Namespace is the top-level folder for files owned by a user of role.
func Namespace(role models.Role) string {
	switch role {
	case models.RoleOrganizer:
		return "organizers"
	case models.RoleAdmin:
		return "admins"
	default:
		return "musicians"
	}
}
