package config

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	// Report fields by their JSON keys, as they appear in the config file
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validation functions
	v.RegisterValidation("provider", validateProvider)
	v.RegisterValidation("log_level", validateLogLevel)
	v.RegisterValidation("log_format", validateLogFormat)

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration
func (v *Validator) Validate(config *Config) error {
	// Set default version if empty
	if config.Version == "" {
		config.Version = "1.0"
	}

	if err := v.validate.Struct(config); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				field := strings.TrimPrefix(e.Namespace(), "Config.")
				return ValidationError{
					Field:   field,
					Message: field + ": " + describe(e),
					Value:   e.Value(),
				}
			}
		}
		return err
	}

	return nil
}

// describe turns a failed tag into a short human message
func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "url":
		return fmt.Sprintf("%q is not a URL", e.Value())
	case "hostname_port":
		return fmt.Sprintf("%q is not a host:port address", e.Value())
	case "provider":
		return fmt.Sprintf("unsupported provider %q", e.Value())
	case "log_level":
		return fmt.Sprintf("unknown log level %q", e.Value())
	case "log_format":
		return fmt.Sprintf("unknown log format %q (json or text)", e.Value())
	default:
		return fmt.Sprintf("failed %s validation with value '%v'", e.Tag(), e.Value())
	}
}

// validateProvider validates model provider values
func validateProvider(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Allow empty, will be filled by defaults
	}
	return slices.Contains([]string{"gemini"}, value)
}

// validateLogLevel validates log level values
func validateLogLevel(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, value)
}

// validateLogFormat validates log format values
func validateLogFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"json", "text"}, value)
}
