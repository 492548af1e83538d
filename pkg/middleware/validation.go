package middleware

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wms-platform/fulfillment-service/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	enumsMu      sync.Mutex
	enums        = map[string][]string{}
)

// InitValidator configures gin's validator engine: json tag names in error
// fields plus every enum registered so far.
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			v = validator.New()
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		validate = v

		enumsMu.Lock()
		defer enumsMu.Unlock()
		for tag, values := range enums {
			_ = v.RegisterValidation(tag, enumValidator(values))
		}
	})
	return validate
}

// RegisterEnum adds a validation tag accepting exactly values. Register
// before InitValidator runs or the tag is applied to the live engine.
func RegisterEnum[T ~string](tag string, values ...T) {
	allowed := make([]string, len(values))
	for i, v := range values {
		allowed[i] = string(v)
	}

	enumsMu.Lock()
	enums[tag] = allowed
	enumsMu.Unlock()

	if validate != nil {
		_ = validate.RegisterValidation(tag, enumValidator(allowed))
	}
}

func enumValidator(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

// ValidationErrorFormatter formats validation errors into a field map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = formatValidationError(e)
		}
	}
	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "latitude", "longitude":
		return "must be a valid " + e.Tag()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		enumsMu.Lock()
		allowed, ok := enums[e.Tag()]
		enumsMu.Unlock()
		if ok {
			return "must be one of: " + strings.Join(allowed, " ")
		}
		return "is invalid"
	}
}

// BindJSON binds and validates the request body
func BindJSON(c *gin.Context, obj interface{}) *errors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// BindOptionalJSON is BindJSON for endpoints whose body may be empty
func BindOptionalJSON(c *gin.Context, obj interface{}) *errors.AppError {
	if c.Request.ContentLength == 0 {
		return ValidateStruct(obj)
	}
	return BindJSON(c, obj)
}

// ValidateStruct validates a struct outside of binding
func ValidateStruct(obj interface{}) *errors.AppError {
	if err := InitValidator().Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("validation failed: " + err.Error())
	}
	return nil
}
