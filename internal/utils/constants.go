package utils

import "time"

// Application Constants
const (
	AppName    = "FleetOps"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Read cache. Short TTLs: correctness relies on invalidation, the TTL
	// only bounds staleness if an invalidation is ever missed.
	EntityCacheTTL = 3 * time.Minute

	// Evidence uploads. Generous timeouts: mobile networks, multi-megabyte
	// image payloads.
	MaxPhotoSize        = 10 * 1024 * 1024 // 10MB
	UploadTimeout       = 60 * time.Second
	UploadGrantExpiry   = 15 * time.Minute
	MaxPhotoDimension   = 2048 // px, larger images are resized before storage
	ThumbnailDimension  = 320  // px

	// Position reporting
	PositionReportInterval = 30 * time.Second
	PositionReportTimeout  = 10 * time.Second
	PositionHistoryLimit   = 500

	// Response statuses
	StatusSuccess = "success"
	StatusError   = "error"

	// Error messages
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
)
