// Package storage keeps uploaded product images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/logx"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Pusher copies a saved file to a remote file server.
type Pusher interface {
	Push(ctx context.Context, localPath, name string) error
}

// Local writes uploads under Dir. With a Pusher set, each file is pushed and
// the local copy removed.
type Local struct {
	Dir    string
	Pusher Pusher
}

func NewLocal(dir string, p Pusher) *Local {
	return &Local{Dir: dir, Pusher: p}
}

// Save stores fh under a random name that keeps its extension and returns that name.
func (s *Local) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedFormat
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(s.Dir, name)
	if err := copyUpload(fh, dst); err != nil {
		return "", err
	}
	logx.Debug().Str("file", fh.Filename).Str("name", name).Msg("upload saved")

	if s.Pusher == nil {
		return name, nil
	}
	if err := s.Pusher.Push(ctx, dst, name); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("push %s: %w", name, err)
	}
	if err := os.Remove(dst); err != nil {
		logx.Warn().Err(err).Str("path", dst).Msg("remove pushed upload")
	}
	return name, nil
}

func copyUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}
