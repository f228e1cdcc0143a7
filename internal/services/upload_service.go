package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"fleetops/internal/models"
	"fleetops/internal/utils"
	"fleetops/pkg/logger"
	"fleetops/pkg/storage"

	"golang.org/x/sync/errgroup"
)

// FileUpload is one slot of a client-selected batch. A nil Reader means the
// slot was never selected; such entries are silently skipped, they never
// block the batch.
type FileUpload struct {
	Slot        models.PhotoSlot
	Kind        models.PhotoKind
	Filename    string
	ContentType string
	Size        int64
	Description string
	Reader      io.Reader
}

func (f *FileUpload) Selected() bool {
	return f.Reader != nil
}

// SelectedUploads filters a batch down to the slots that actually carry a
// file.
func SelectedUploads(files []FileUpload) []FileUpload {
	selected := make([]FileUpload, 0, len(files))
	for _, f := range files {
		if f.Selected() {
			selected = append(selected, f)
		}
	}
	return selected
}

type UploadGrantRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
	FileType string `json:"file_type" validate:"required,max=100"`
	Scope    string `json:"scope" validate:"omitempty,max=255"`
}

// UploadService moves image payloads into the evidence store. It never
// touches workflow state: its output is durable URLs for the state machines
// to record.
type UploadService interface {
	// UploadBatch uploads every selected file in parallel and returns the
	// resulting photo records. A single failure aborts the whole batch;
	// already-written objects are left behind as orphans, an accepted cost.
	UploadBatch(ctx context.Context, keyPrefix string, files []FileUpload) ([]models.Photo, error)

	// RelayUpload is the server-relayed path for one multipart file. Images
	// larger than the dimension cap are resized before storage.
	RelayUpload(ctx context.Context, keyPrefix string, header *multipart.FileHeader) (*storage.UploadResponse, error)

	// RequestGrant issues a short-lived pre-signed write grant for a
	// direct-to-store upload.
	RequestGrant(ctx context.Context, request *UploadGrantRequest) (*storage.PresignedUpload, error)
}

type uploadService struct {
	storage storage.Provider
	logger  *logger.Logger
}

func NewUploadService(provider storage.Provider, log *logger.Logger) UploadService {
	return &uploadService{
		storage: provider,
		logger:  log,
	}
}

func (s *uploadService) UploadBatch(ctx context.Context, keyPrefix string, files []FileUpload) ([]models.Photo, error) {
	selected := SelectedUploads(files)
	if len(selected) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, utils.UploadTimeout)
	defer cancel()

	// Uploads run in parallel with no required relative order; the barrier
	// is g.Wait. No photo record exists until every upload succeeded, so a
	// failed batch never leaks partial metadata to the workflow backend.
	photos := make([]models.Photo, len(selected))
	g, gctx := errgroup.WithContext(ctx)

	for i, file := range selected {
		g.Go(func() error {
			contentType := file.ContentType
			if contentType == "" {
				contentType = utils.GetContentType(file.Filename)
			}

			resp, err := s.storage.Upload(gctx, &storage.UploadRequest{
				Key:         utils.GenerateObjectKey(keyPrefix, file.Filename),
				Reader:      file.Reader,
				ContentType: contentType,
				Size:        file.Size,
			})
			if err != nil {
				return &TransportError{Op: fmt.Sprintf("upload %s photo", file.Slot), Err: err}
			}

			photos[i] = models.Photo{
				Slot:        file.Slot,
				Kind:        file.Kind,
				URL:         resp.URL,
				Description: file.Description,
				Timestamp:   time.Now(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithField("key_prefix", keyPrefix).Warn("photo batch upload aborted")
		return nil, err
	}

	return photos, nil
}

func (s *uploadService) RelayUpload(ctx context.Context, keyPrefix string, header *multipart.FileHeader) (*storage.UploadResponse, error) {
	if !utils.IsImageFile(header.Filename) {
		return nil, &ValidationError{Field: "file", Message: "only image files are accepted"}
	}
	if err := utils.ValidateFileSize(header, utils.MaxPhotoSize); err != nil {
		return nil, &ValidationError{Field: "file", Message: err.Error()}
	}

	file, err := header.Open()
	if err != nil {
		return nil, &TransportError{Op: "open upload", Err: err}
	}
	defer file.Close()

	reader, size, err := s.prepareImage(file, header.Filename)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, utils.UploadTimeout)
	defer cancel()

	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:         utils.GenerateObjectKey(keyPrefix, header.Filename),
		Reader:      reader,
		ContentType: utils.GetContentType(header.Filename),
		Size:        size,
	})
	if err != nil {
		return nil, &TransportError{Op: "relay upload", Err: err}
	}

	return resp, nil
}

// prepareImage resizes oversized images; anything that fails to decode is
// streamed to the store untouched.
func (s *uploadService) prepareImage(file multipart.File, filename string) (io.Reader, int64, error) {
	var original bytes.Buffer
	size, err := io.Copy(&original, file)
	if err != nil {
		return nil, 0, &TransportError{Op: "read upload", Err: err}
	}

	img, err := utils.ResizeImage(bytes.NewReader(original.Bytes()), filename, utils.MaxPhotoDimension, utils.MaxPhotoDimension)
	if err != nil {
		s.logger.WithError(err).WithField("filename", filename).Debug("image decode failed, storing original")
		return bytes.NewReader(original.Bytes()), size, nil
	}

	format := strings.TrimPrefix(utils.GetFileExtension(filename), ".")
	var resized bytes.Buffer
	if err := utils.EncodeImage(img, format, &resized, 85); err != nil {
		return bytes.NewReader(original.Bytes()), size, nil
	}

	return bytes.NewReader(resized.Bytes()), int64(resized.Len()), nil
}

func (s *uploadService) RequestGrant(ctx context.Context, request *UploadGrantRequest) (*storage.PresignedUpload, error) {
	if !utils.IsImageFile(request.FileName) {
		return nil, &ValidationError{Field: "file_name", Message: "only image files are accepted"}
	}

	scope := request.Scope
	if scope == "" {
		scope = "uploads"
	}

	grant, err := s.storage.PresignPut(ctx, utils.GenerateObjectKey(scope, request.FileName), request.FileType, utils.UploadGrantExpiry)
	if err != nil {
		return nil, &TransportError{Op: "request upload grant", Err: err}
	}

	return grant, nil
}
