package handlers

import (
	"io"

	"fleetops/internal/models"
	"fleetops/internal/services"
	"fleetops/internal/utils"
	"fleetops/internal/validators"

	"github.com/gin-gonic/gin"
)

type MovementHandler struct {
	movementService services.MovementService
	trackingService services.TrackingService
}

func NewMovementHandler(movementService services.MovementService, trackingService services.TrackingService) *MovementHandler {
	return &MovementHandler{
		movementService: movementService,
		trackingService: trackingService,
	}
}

// CreateMovement registers a new vehicle movement
func (h *MovementHandler) CreateMovement(c *gin.Context) {
	var request validators.MovementCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	movement, err := h.movementService.CreateMovement(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Movement created successfully", movement)
}

// GetMovement retrieves one movement with its full photo record
func (h *MovementHandler) GetMovement(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	movement, err := h.movementService.GetMovement(c.Request.Context(), movementID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Movement retrieved successfully", movement)
}

// SearchMovements searches movements by license plate
func (h *MovementHandler) SearchMovements(c *gin.Context) {
	plate := c.Query("license_plate")
	if plate == "" {
		utils.BadRequestResponse(c, "license_plate query parameter required")
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.movementService.SearchByPlate(c.Request.Context(), plate, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, result.Total),
		Total:      result.Total,
		Count:      len(result.Movements),
	}
	utils.SuccessResponseWithMeta(c, "Movements retrieved successfully", result.Movements, meta)
}

// AssignDriver assigns or replaces the driver before transit
func (h *MovementHandler) AssignDriver(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var request validators.AssignDriverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	movement, err := h.movementService.AssignDriver(c.Request.Context(), caller, movementID, request.DriverID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Driver assigned successfully", movement)
}

// PrepareMovement moves an assigned movement into preparation
func (h *MovementHandler) PrepareMovement(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	movement, err := h.movementService.PrepareMovement(c.Request.Context(), caller, movementID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Movement preparation started", movement)
}

// StartMovement departs a movement behind the departure photo gate
func (h *MovementHandler) StartMovement(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	movement, err := h.movementService.StartMovement(c.Request.Context(), caller, movementID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Movement started successfully", movement)
}

// CompleteMovement closes transit behind the arrival photo gate
func (h *MovementHandler) CompleteMovement(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var request validators.MovementCompleteRequest
	if err := c.ShouldBindJSON(&request); err != nil && err != io.EOF {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	movement, err := h.movementService.CompleteMovement(c.Request.Context(), caller, movementID, request.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Movement completed successfully", movement)
}

// CancelMovement aborts a movement before transit
func (h *MovementHandler) CancelMovement(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var request validators.MovementCancelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	movement, err := h.movementService.CancelMovement(c.Request.Context(), caller, movementID, request.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Movement cancelled successfully", movement)
}

// DeleteMovement removes a movement that never departed
func (h *MovementHandler) DeleteMovement(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	if err := h.movementService.DeleteMovement(c.Request.Context(), caller, movementID); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// UploadPhotos receives one multipart batch of slot photos. Unselected slots
// are simply absent from the form; the response carries the full updated
// movement.
func (h *MovementHandler) UploadPhotos(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	kind := models.PhotoKind(c.PostForm("kind"))
	if kind == "" {
		kind = models.PhotoKind(c.Query("kind"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form: "+err.Error())
		return
	}

	files := make([]services.FileUpload, 0, len(models.MovementPhotoSlots))
	var closers []io.Closer
	defer func() {
		for _, closer := range closers {
			closer.Close()
		}
	}()

	for _, slot := range models.MovementPhotoSlots {
		headers := form.File[string(slot)]
		if len(headers) == 0 {
			continue
		}
		if err := utils.ValidateFileSize(headers[0], utils.MaxPhotoSize); err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}
		upload, closer, err := fileUploadFromHeader(headers[0], slot, c.PostForm(string(slot)+"_description"))
		if err != nil {
			utils.BadRequestResponse(c, "Could not read file for slot "+string(slot))
			return
		}
		closers = append(closers, closer)
		files = append(files, upload)
	}

	movement, err := h.movementService.UploadPhotos(c.Request.Context(), caller, movementID, kind, files)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Photos uploaded successfully", movement)
}

// ReportPosition ingests one telemetry ping from the driver in transit
func (h *MovementHandler) ReportPosition(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var request validators.PositionReportRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	err := h.trackingService.ReportPosition(c.Request.Context(), caller, movementID, request.Latitude, request.Longitude, request.Accuracy)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Position recorded", nil)
}

// GetRoute returns the recorded position trail of a movement
func (h *MovementHandler) GetRoute(c *gin.Context) {
	movementID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	route, err := h.trackingService.GetRoute(c.Request.Context(), movementID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Route retrieved successfully", route)
}
