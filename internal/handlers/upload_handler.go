package handlers

import (
	"errors"

	"fleetops/internal/services"
	"fleetops/internal/utils"
	"fleetops/internal/validators"
	"fleetops/pkg/storage"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
	}
}

// RequestGrant issues a short-lived pre-signed URL so the client can upload
// one file straight to the evidence store.
func (h *UploadHandler) RequestGrant(c *gin.Context) {
	var request services.UploadGrantRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	grant, err := h.uploadService.RequestGrant(c.Request.Context(), &request)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			utils.BadRequestResponse(c, "Direct uploads are not available with the configured storage")
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Upload grant issued", grant)
}

// RelayUpload accepts one multipart file and stores it server-side. This is
// the fallback path for clients that cannot use pre-signed uploads.
func (h *UploadHandler) RelayUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "file required")
		return
	}
	if err := utils.ValidateFileSize(header, utils.MaxPhotoSize); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	scope := c.DefaultPostForm("scope", "misc")

	response, err := h.uploadService.RelayUpload(c.Request.Context(), scope, header)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "File uploaded successfully", response)
}
