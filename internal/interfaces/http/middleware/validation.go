package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/interfaces/http/dto"
)

// SetupValidator configures the gin binding validator: error messages use
// the JSON/form field names, and the importer's task type gains a
// dedicated tag.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("tasktype", func(fl validator.FieldLevel) bool {
		return importer.TaskType(fl.Field().String()).IsValid()
	})
}

// HandleValidationError writes a 400 response describing what failed to
// validate
func HandleValidationError(c *gin.Context, err error) {
	message := "Request validation failed"

	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		var parts []string
		for _, e := range validationErrors {
			parts = append(parts, e.Field()+": "+validationMessage(e))
		}
		message = strings.Join(parts, "; ")
	}

	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeValidation,
		message,
		GetRequestID(c),
	))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "invalid UUID format"
	case "tasktype":
		return "must be one of: merchant, locations, catalog"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	default:
		return "invalid value"
	}
}
