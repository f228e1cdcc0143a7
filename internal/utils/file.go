package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var allowedImageTypes = []string{"jpg", "jpeg", "png", "webp", "heic"}

func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsImageFile(filename string) bool {
	ext := strings.TrimPrefix(GetFileExtension(filename), ".")

	for _, allowed := range allowedImageTypes {
		if ext == allowed {
			return true
		}
	}

	return false
}

// GenerateObjectKey builds a collision-free evidence store key under a
// prefix, e.g. "movements/64f.../departure/1693305600_<uuid>.jpg".
func GenerateObjectKey(prefix, originalFilename string) string {
	ext := GetFileExtension(originalFilename)
	return fmt.Sprintf("%s/%d_%s%s", strings.Trim(prefix, "/"), time.Now().Unix(), uuid.NewString(), ext)
}

func ValidateFileSize(header *multipart.FileHeader, maxSize int64) error {
	if header.Size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum of %d bytes", header.Size, maxSize)
	}
	return nil
}

func GetContentType(filename string) string {
	switch GetFileExtension(filename) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}
