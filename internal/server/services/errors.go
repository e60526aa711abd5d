package services

import (
	"sort"
	"strings"
)

// Field error messages shown next to form inputs.
const (
	msgEmailInvalid       = "Email is invalid"
	msgPasswordRequired   = "Password is required"
	msgPasswordTooShort   = "Password is too short"
	msgEmailTaken         = "A user already exists with this email"
	msgInvalidCredentials = "Invalid email or password"

	msgNameRequired     = "Name is required"
	msgTitleRequired    = "Title is required"
	msgSlugEmpty        = "Link can't be empty"
	msgSlugTaken        = "Another page already has this link, please pick a different one"
	msgImageDescription = "Image descriptions are required for images."
	msgLogoDescription  = "An image description is required for the logo."
	msgNotImage         = "File must be an image"
	msgTooLarge         = "File must be smaller than 5 MB"
)

// ValidationError carries one message per offending form field.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// err returns e, or nil when no field failed.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
