package validators

import (
	"fmt"
	"regexp"
	"strings"

	"fleetops/internal/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("license_plate", validateLicensePlate)
	validate.RegisterValidation("photo_slot", validatePhotoSlot)
	validate.RegisterValidation("task_type", validateTaskType)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(fieldErr.Field()),
				Tag:     fieldErr.Tag(),
				Value:   fmt.Sprintf("%v", fieldErr.Value()),
				Message: messageForTag(fieldErr),
			})
		}
	}

	return validationErrors
}

func messageForTag(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "this field is required"
	case "object_id":
		return "must be a valid object ID"
	case "license_plate":
		return "must be a valid license plate"
	case "photo_slot":
		return "must be one of the known photo slots"
	case "task_type":
		return "must be one of the known task types"
	case "min":
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fieldErr.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed validation for %q", fieldErr.Tag())
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	if oid, ok := fl.Field().Interface().(primitive.ObjectID); ok {
		return !oid.IsZero()
	}

	_, err := primitive.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

var licensePlatePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 -]{1,10}[A-Z0-9]$`)

func validateLicensePlate(fl validator.FieldLevel) bool {
	return licensePlatePattern.MatchString(strings.ToUpper(fl.Field().String()))
}

func validatePhotoSlot(fl validator.FieldLevel) bool {
	return models.IsValidMovementSlot(models.PhotoSlot(fl.Field().String()))
}

func validateTaskType(fl validator.FieldLevel) bool {
	return models.IsValidTaskType(models.TaskType(fl.Field().String()))
}
