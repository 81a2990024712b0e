// Package web defines common components for a web application.
package web

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	Data       any    `json:"data,omitempty"`
	Code       string `json:"code,omitempty"`
	Error      string `json:"error,omitempty"`
	Violations any    `json:"violations,omitempty"`
}

// Error wraps a given err into a json friendly response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg renders a binding violation as a short human readable suffix
// to the offending field name.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " is required"
	case "min":
		return fmt.Sprintf(" must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf(" must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf(" must be greater than %s", fe.Param())
	case "currency":
		return " is not a supported currency"
	case "oneof":
		return fmt.Sprintf(" must be one of [%s]", fe.Param())
	default:
		return " is invalid"
	}
}
