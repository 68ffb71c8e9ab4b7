// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package validation provides struct validation using
// go-playground/validator v10 through a thread-safe singleton, with
// custom validators for coordinate ranges.
//
// Example:
//
//	type TestLocationRequest struct {
//	    Latitude  float64 `validate:"latitude_deg"`
//	    Longitude float64 `validate:"longitude_deg"`
//	    RadiusM   float64 `validate:"gt=0"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil { ... }
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is one field-level validation failure.
type ValidationError struct {
	Field string
	Tag   string
	Param string
}

func (e ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("field %s failed %s=%s", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("field %s failed %s", e.Field, e.Tag)
}

// ValidationErrors aggregates all failures for one struct.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// getValidator returns the singleton, creating it on first use.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Coordinate range validators. The builtin latitude/longitude
		// tags only accept strings, these work on float fields.
		_ = validate.RegisterValidation("latitude_deg", func(fl validator.FieldLevel) bool {
			v := fl.Field().Float()
			return v >= -90 && v <= 90
		})
		_ = validate.RegisterValidation("longitude_deg", func(fl validator.FieldLevel) bool {
			v := fl.Field().Float()
			return v >= -180 && v <= 180
		})
	})
	return validate
}

// ValidateStruct validates a struct using its validate tags. Returns
// ValidationErrors with one entry per failing field, or nil.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError: the caller passed a non-struct.
		return fmt.Errorf("validate: %w", err)
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}
