package model

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
}

// ValidateMenuItem checks a MenuItem for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the item is valid.
func ValidateMenuItem(m *MenuItem) error {
	var ve ValidationError

	name := strings.TrimSpace(m.Name)
	if name == "" {
		ve.add("name", "is required")
	} else if len([]rune(name)) > 200 {
		ve.add("name", "must be 200 characters or fewer")
	}

	if math.IsNaN(m.Price) || math.IsInf(m.Price, 0) {
		ve.add("price", "must be a finite number")
	} else if m.Price < 0 {
		ve.add("price", fmt.Sprintf("must be non-negative, got %v", m.Price))
	}

	if strings.TrimSpace(m.Category) == "" {
		ve.add("category", "is required")
	}

	if m.ImageURL != "" && !isHTTPURL(m.ImageURL) {
		ve.add("image_url", "must be an http or https URL")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidatePhoto checks a gallery Photo. The image URL is mandatory.
func ValidatePhoto(p *Photo) error {
	var ve ValidationError

	switch {
	case strings.TrimSpace(p.ImageURL) == "":
		ve.add("image_url", "is required")
	case !isHTTPURL(p.ImageURL):
		ve.add("image_url", "must be an http or https URL")
	}
	if len([]rune(p.Caption)) > 500 {
		ve.add("caption", "must be 500 characters or fewer")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateHero checks the hero banner content.
func ValidateHero(h *Hero) error {
	var ve ValidationError

	if strings.TrimSpace(h.Title) == "" {
		ve.add("title", "is required")
	}
	if h.ImageURL != "" && !isHTTPURL(h.ImageURL) {
		ve.add("image_url", "must be an http or https URL")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
