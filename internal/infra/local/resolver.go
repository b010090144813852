// Package local resolves on-device items into file stream sources.
package local

import (
	"context"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/osa030/skystream/internal/domain/media"
)

// Resolver resolves local items relative to a root directory.
type Resolver struct {
	fs   afero.Fs
	root string
}

// New creates a resolver over fs rooted at root.
func New(fs afero.Fs, root string) *Resolver {
	return &Resolver{fs: fs, root: root}
}

// Resolve checks that the item's file exists and returns a file:// source.
func (r *Resolver) Resolve(ctx context.Context, item media.Item) (media.Source, error) {
	if err := ctx.Err(); err != nil {
		return media.Source{}, errors.Wrap(err, "resolve cancelled")
	}

	p, err := r.path(item.ID)
	if err != nil {
		return media.Source{}, err
	}

	info, err := r.fs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return media.Source{}, errors.Mark(errors.Wrapf(err, "local file %s not found", item.ID), media.ErrNotFound)
		}
		return media.Source{}, errors.Wrapf(err, "failed to stat %s", item.ID)
	}
	if info.IsDir() {
		return media.Source{}, errors.Mark(errors.Newf("%s is a directory", item.ID), media.ErrNotFound)
	}

	mimeType := item.MimeType
	if mimeType == "" {
		mimeType = mimeByExt(path.Ext(p))
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return media.NewSource(u.String(), mimeType, nil), nil
}

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".ts":   "video/mp2t",
	".m3u8": "application/x-mpegURL",
	".mpd":  "application/dash+xml",
}

func mimeByExt(ext string) string {
	ext = strings.ToLower(ext)
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// path joins id onto the root. Cleaning against "/" first keeps ids
// containing ".." inside the root.
func (r *Resolver) path(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.Mark(errors.New("empty item id"), media.ErrNotFound)
	}
	clean := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(id))
	return filepath.Join(r.root, clean), nil
}
