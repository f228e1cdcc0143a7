package storage

import (
	"context"
	"io"
	"time"
)

// Provider is the evidence store: durable binary object storage referenced
// by URL. The workflow engine never owns image bytes, only the references a
// provider hands back.
type Provider interface {
	Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error)
	Download(ctx context.Context, key string) (*DownloadResponse, error)
	Delete(ctx context.Context, key string) error
	// PresignPut issues a short-lived write grant so a client can upload the
	// binary directly to the store. FileURL is the stable reference to record
	// against the owning entity once the write succeeds.
	PresignPut(ctx context.Context, key, contentType string, expiration time.Duration) (*PresignedUpload, error)
	FileExists(ctx context.Context, key string) (bool, error)
}

type UploadRequest struct {
	Key          string            `json:"key"`
	Reader       io.Reader         `json:"-"`
	ContentType  string            `json:"content_type"`
	Size         int64             `json:"size"`
	Metadata     map[string]string `json:"metadata"`
	CacheControl string            `json:"cache_control"`
}

type UploadResponse struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	ETag string `json:"etag"`
}

type DownloadResponse struct {
	Reader       io.ReadCloser     `json:"-"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	Metadata     map[string]string `json:"metadata"`
	LastModified time.Time         `json:"last_modified"`
	ETag         string            `json:"etag"`
}

type PresignedUpload struct {
	UploadURL string    `json:"presigned_url"`
	FileURL   string    `json:"file_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
