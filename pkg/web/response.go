// Package web defines common response components for the delivery layer.
package web

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Response holds the common response envelope for all APIs.
type Response struct {
	AccessToken          string    `json:"access_token,omitempty"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at,omitempty"`
	Data                 any       `json:"data,omitempty"`
	Error                string    `json:"error,omitempty"`
}

// Error wraps a given err into the common response envelope.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg renders the first validation error as a field-level message.
func GetErrorMsg(ve validator.ValidationErrors) string {
	if len(ve) == 0 {
		return ""
	}

	field := ve[0]

	switch field.Tag() {
	case "required":
		return field.Field() + " field is required"
	case "email":
		return field.Field() + " field must be a valid email address"
	case "alphanum":
		return field.Field() + " field must contain only letters and numbers"
	case "min":
		return field.Field() + " field must be at least " + field.Param() + " characters"
	case "max":
		return field.Field() + " field must be at most " + field.Param() + " characters"
	case "gt":
		return field.Field() + " field must be greater than " + field.Param()
	case "oneof":
		return field.Field() + " field must be one of: " + field.Param()
	}

	return field.Field() + " field is invalid"
}
