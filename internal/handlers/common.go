package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"fleetops/internal/models"
	"fleetops/internal/services"
	"fleetops/internal/utils"
	"fleetops/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// callerFromContext rebuilds the authenticated caller from the values the
// auth middleware set. A false return has already written the response.
func callerFromContext(c *gin.Context) (*services.Caller, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return nil, false
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return nil, false
	}

	userType, _ := c.Get("user_type")
	role, _ := userType.(string)

	return &services.Caller{UserID: userObjectID, Role: models.UserType(role)}, true
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondServiceError maps the service error taxonomy onto HTTP statuses:
// validation 400, gate 422, state conflict 409, permission 403, not found
// 404, storage transport 502. Anything unrecognized is a 500.
func respondServiceError(c *gin.Context, err error) {
	var validationErrs validators.ValidationErrors
	if errors.As(err, &validationErrs) {
		utils.ValidationErrorResponse(c, validationErrs.ToMap())
		return
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		utils.ValidationErrorResponse(c, map[string]string{validationErr.Field: validationErr.Message})
		return
	}

	var gateErr *services.GateNotSatisfiedError
	if errors.As(err, &gateErr) {
		utils.GateNotSatisfiedResponse(c, gateErr.Error(), gateErr.Missing)
		return
	}

	var stateErr *services.InvalidStateError
	if errors.As(err, &stateErr) {
		utils.ConflictResponse(c, stateErr.Error())
		return
	}

	var permErr *services.PermissionDeniedError
	if errors.As(err, &permErr) {
		utils.ForbiddenResponse(c)
		return
	}

	var notFoundErr *services.NotFoundError
	if errors.As(err, &notFoundErr) {
		utils.NotFoundResponse(c, notFoundErr.Resource)
		return
	}

	var transportErr *services.TransportError
	if errors.As(err, &transportErr) {
		utils.ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", transportErr.Error())
		return
	}

	utils.InternalServerErrorResponse(c)
}

// fileUploadFromHeader opens one multipart file as an upload slot entry.
func fileUploadFromHeader(header *multipart.FileHeader, slot models.PhotoSlot, description string) (services.FileUpload, io.Closer, error) {
	file, err := header.Open()
	if err != nil {
		return services.FileUpload{}, nil, err
	}
	return services.FileUpload{
		Slot:        slot,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Description: description,
		Reader:      file,
	}, file, nil
}
