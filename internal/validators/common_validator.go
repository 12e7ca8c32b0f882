package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/utils"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

func init() {
	validate = validator.New()

	// Report the json name so field errors match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// Register custom validation functions
	validate.RegisterValidation("trigger_type", validateTriggerType)
	validate.RegisterValidation("assignment_status", validateAssignmentStatus)
	validate.RegisterValidation("record_id", validateRecordID)
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

// Details flattens the errors into the response envelope's details map.
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		if _, seen := details[err.Field]; !seen {
			details[err.Field] = err.Message
		}
	}
	return details
}

// AppError converts the first failure into the dispatch error taxonomy.
func (v ValidationErrors) AppError() *utils.AppError {
	if len(v) == 0 {
		return nil
	}
	return utils.NewValidationError(v[0].Field, v[0].Message)
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

// fieldPath drops the struct name from the namespace, leaving e.g.
// "location.latitude".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "trigger_type":
		return "trigger_type must be manual or sensor"
	case "assignment_status":
		return "status must be one of en_route, completed, cancelled, reassigned"
	case "record_id":
		return "Invalid ID format"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateTriggerType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // defaults to manual
	}
	return models.TriggerType(value).IsValid()
}

// Only states a driver can request are accepted; pending is initial only.
func validateAssignmentStatus(fl validator.FieldLevel) bool {
	status := models.AssignmentStatus(fl.Field().String())
	return status.IsValid() && status != models.AssignmentStatusPending
}

// Record ids are ObjectID hex or uuid strings depending on the store, so
// only the character set is checked.
func validateRecordID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" {
		return true
	}
	if len(id) > 64 {
		return false
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// Helper functions for common validations
func IsValidRecordID(id string) bool {
	return id != "" && validate.Var(id, "record_id") == nil
}

func SanitizeInput(input string) string {
	// Remove HTML tags and trim whitespace
	cleaned := htmlTagRegex.ReplaceAllString(input, "")
	return strings.TrimSpace(cleaned)
}
