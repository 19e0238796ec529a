package storage

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) Push(ctx context.Context, localPath, name string) error {
	return m.Called(localPath, name).Error(0)
}

func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("upload_file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["upload_file"][0]
}

func TestLocalSaveKeepsExtension(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(filepath.Join(dir, "uploads"), nil)

	name, err := s.Save(context.Background(), fileHeader(t, "Photo.PNG", "png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, "uploads", name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalSaveRejectsUnknownExtension(t *testing.T) {
	s := NewLocal(t.TempDir(), nil)
	_, err := s.Save(context.Background(), fileHeader(t, "script.sh", "echo"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLocalSavePushesAndRemoves(t *testing.T) {
	dir := t.TempDir()
	p := new(mockPusher)
	p.On("Push", mock.Anything, mock.Anything).Return(nil).Once()
	s := NewLocal(dir, p)

	name, err := s.Save(context.Background(), fileHeader(t, "a.jpg", "jpg"))
	require.NoError(t, err)
	p.AssertCalled(t, "Push", filepath.Join(dir, name), name)

	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalSavePushFailure(t *testing.T) {
	dir := t.TempDir()
	p := new(mockPusher)
	p.On("Push", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	s := NewLocal(dir, p)

	_, err := s.Save(context.Background(), fileHeader(t, "a.jpg", "jpg"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
