package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)
	return s
}

func TestLocalStorageUploadDownload(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	uploaded, err := s.Upload(ctx, &UploadRequest{
		Key:         "movements/abc/departure/front.jpg",
		Reader:      strings.NewReader("jpeg-bytes"),
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, "movements/abc/departure/front.jpg", uploaded.Key)
	assert.Equal(t, int64(len("jpeg-bytes")), uploaded.Size)
	assert.Equal(t, "http://localhost:8080/uploads/movements/abc/departure/front.jpg", uploaded.URL)

	downloaded, err := s.Download(ctx, uploaded.Key)
	require.NoError(t, err)
	defer downloaded.Reader.Close()

	data, err := io.ReadAll(downloaded.Reader)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestLocalStorageFileExists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.FileExists(ctx, "nope.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Upload(ctx, &UploadRequest{Key: "yes.jpg", Reader: strings.NewReader("x")})
	require.NoError(t, err)

	exists, err = s.FileExists(ctx, "yes.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorageDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, &UploadRequest{Key: "gone.jpg", Reader: strings.NewReader("x")})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "gone.jpg"))
	exists, err := s.FileExists(ctx, "gone.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete(ctx, "gone.jpg"))
}

func TestLocalStoragePresignUnsupported(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.PresignPut(context.Background(), "k.jpg", "image/jpeg", time.Minute)
	assert.ErrorIs(t, err, ErrPresignUnsupported)
}
