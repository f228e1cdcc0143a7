package handlers

import (
	"io"
	"strconv"

	"fleetops/internal/models"
	"fleetops/internal/services"
	"fleetops/internal/utils"
	"fleetops/internal/validators"

	"github.com/gin-gonic/gin"
)

type PreparationHandler struct {
	preparationService services.PreparationService
}

func NewPreparationHandler(preparationService services.PreparationService) *PreparationHandler {
	return &PreparationHandler{
		preparationService: preparationService,
	}
}

// CreatePreparation opens a preparation sheet for a vehicle
func (h *PreparationHandler) CreatePreparation(c *gin.Context) {
	var request validators.PreparationCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	preparation, err := h.preparationService.CreatePreparation(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Preparation created successfully", preparation)
}

// GetPreparation retrieves one preparation with all task states
func (h *PreparationHandler) GetPreparation(c *gin.Context) {
	preparationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	preparation, err := h.preparationService.GetPreparation(c.Request.Context(), preparationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Preparation retrieved successfully", preparation)
}

// SearchPreparations searches preparations by license plate
func (h *PreparationHandler) SearchPreparations(c *gin.Context) {
	plate := c.Query("license_plate")
	if plate == "" {
		utils.BadRequestResponse(c, "license_plate query parameter required")
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.preparationService.SearchByPlate(c.Request.Context(), plate, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, result.Total),
		Total:      result.Total,
		Count:      len(result.Preparations),
	}
	utils.SuccessResponseWithMeta(c, "Preparations retrieved successfully", result.Preparations, meta)
}

// StartTask begins one preparation task
func (h *PreparationHandler) StartTask(c *gin.Context) {
	preparationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	taskType := models.TaskType(c.Param("task"))

	var request validators.TaskStartRequest
	if err := c.ShouldBindJSON(&request); err != nil && err != io.EOF {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	preparation, err := h.preparationService.StartTask(c.Request.Context(), caller, preparationID, taskType, request.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Task started successfully", preparation)
}

// CompleteTask closes one task with its after-photo evidence in a single
// multipart request. Photos go under the "photos" field; refueling adds an
// "amount" field in liters.
func (h *PreparationHandler) CompleteTask(c *gin.Context) {
	preparationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	taskType := models.TaskType(c.Param("task"))

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form: "+err.Error())
		return
	}

	request := &validators.TaskCompleteRequest{Notes: c.PostForm("notes")}
	if raw := c.PostForm("amount"); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid amount")
			return
		}
		request.Amount = &amount
	}

	files := make([]services.FileUpload, 0, len(form.File["photos"]))
	var closers []io.Closer
	defer func() {
		for _, closer := range closers {
			closer.Close()
		}
	}()

	for _, header := range form.File["photos"] {
		if err := utils.ValidateFileSize(header, utils.MaxPhotoSize); err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}
		upload, closer, err := fileUploadFromHeader(header, "", "")
		if err != nil {
			utils.BadRequestResponse(c, "Could not read photo "+header.Filename)
			return
		}
		closers = append(closers, closer)
		files = append(files, upload)
	}

	preparation, err := h.preparationService.CompleteTask(c.Request.Context(), caller, preparationID, taskType, request, files)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Task completed successfully", preparation)
}

// AddTaskPhoto attaches one supplemental photo to a task
func (h *PreparationHandler) AddTaskPhoto(c *gin.Context) {
	preparationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	taskType := models.TaskType(c.Param("task"))

	header, err := c.FormFile("photo")
	if err != nil {
		utils.BadRequestResponse(c, "photo file required")
		return
	}
	if err := utils.ValidateFileSize(header, utils.MaxPhotoSize); err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	upload, closer, err := fileUploadFromHeader(header, "", c.PostForm("description"))
	if err != nil {
		utils.BadRequestResponse(c, "Could not read photo")
		return
	}
	defer closer.Close()

	preparation, err := h.preparationService.AddTaskPhoto(c.Request.Context(), caller, preparationID, taskType, upload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Photo added successfully", preparation)
}

// CompletePreparation closes the preparation once at least one task is done
func (h *PreparationHandler) CompletePreparation(c *gin.Context) {
	preparationID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	caller, ok := callerFromContext(c)
	if !ok {
		return
	}

	var request validators.PreparationCompleteRequest
	if err := c.ShouldBindJSON(&request); err != nil && err != io.EOF {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	preparation, err := h.preparationService.CompletePreparation(c.Request.Context(), caller, preparationID, request.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Preparation completed successfully", preparation)
}
