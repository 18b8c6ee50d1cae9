// Package media keeps profile media collections and stored files consistent.
package media

import (
	"net/url"
	"path"
	"strings"
)

// Normalize reduces a media reference to its canonical storage key.
// Absolute URLs lose scheme and host, query and fragment are dropped, the
// leading slash and the public mount prefix (e.g. "uploads") are stripped.
// Both "https://host/uploads/musicians/photos/a.jpg" and
// "/uploads/musicians/photos/a.jpg" become "musicians/photos/a.jpg".
func Normalize(ref, mountPrefix string) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" {
		return ""
	}
	p := ref
	if u, err := url.Parse(ref); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimLeft(p, "/")
	if mountPrefix != "" {
		p = strings.TrimPrefix(p, strings.Trim(mountPrefix, "/")+"/")
	}
	p = path.Clean(p)
	if p == "." || p == "/" {
		return ""
	}
	return p
}

// match returns the stored reference equal to want after normalization.
func match(stored []string, want, mountPrefix string) (string, bool) {
	key := Normalize(want, mountPrefix)
	if key == "" {
		return "", false
	}
	for _, s := range stored {
		if Normalize(s, mountPrefix) == key {
			return s, true
		}
	}
	return "", false
}
