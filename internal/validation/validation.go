package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validation functions
	if err := validate.RegisterValidation("baseurl", validateBaseURL); err != nil {
		panic(fmt.Sprintf("failed to register baseurl validation: %v", err))
	}
	if err := validate.RegisterValidation("bucket", validateBucketName); err != nil {
		panic(fmt.Sprintf("failed to register bucket validation: %v", err))
	}
}

// Validate validates a struct using tags
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// ValidateBucketName validates an object store bucket name separately
func ValidateBucketName(name string) error {
	return validate.Var(name, "bucket")
}

// Custom validation functions

func validateBaseURL(fl validator.FieldLevel) bool {
	urlStr := fl.Field().String()

	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// Base URL requirements:
	// - http or https with a host
	// - no query or fragment, paths are appended to it
	// - no trailing slash
	return (u.Scheme == "http" || u.Scheme == "https") &&
		u.Host != "" &&
		u.RawQuery == "" &&
		u.Fragment == "" &&
		!strings.HasSuffix(urlStr, "/")
}

func validateBucketName(fl validator.FieldLevel) bool {
	name := fl.Field().String()

	// Bucket names shared by GCS and S3:
	// - Length between 3 and 63 characters
	// - Lowercase letters, numbers, hyphens and dots
	// - Must start and end with a letter or number
	if len(name) < 3 || len(name) > 63 {
		return false
	}

	isAlnum := func(c rune) bool {
		return (unicode.IsLower(c) || unicode.IsDigit(c)) && c < unicode.MaxASCII
	}
	if !isAlnum(rune(name[0])) || !isAlnum(rune(name[len(name)-1])) {
		return false
	}

	for _, char := range name {
		if !isAlnum(char) && char != '-' && char != '.' {
			return false
		}
	}

	return true
}

// ValidationError represents a validation error
type ValidationError struct {
	Field string
	Error string
}

// FormatError formats a validation error into human-readable messages
func FormatError(err error) []ValidationError {
	var validationErrors []ValidationError

	if err == nil {
		return validationErrors
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			var message string

			switch e.Tag() {
			case "required", "required_if":
				message = fmt.Sprintf("%s is required", e.Field())
			case "oneof":
				message = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
			case "min", "max", "gt":
				message = fmt.Sprintf("%s is out of range", e.Field())
			case "baseurl":
				message = "Invalid base URL. Must be an http or https URL without query, fragment or trailing slash"
			case "bucket":
				message = "Bucket name must be 3-63 characters long and contain only lowercase letters, numbers, hyphens or dots"
			default:
				message = fmt.Sprintf("Invalid value for %s", e.Field())
			}

			validationErrors = append(validationErrors, ValidationError{
				Field: strings.ToLower(e.Field()),
				Error: message,
			})
		}
	}

	return validationErrors
}
