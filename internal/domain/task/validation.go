package task

import (
	"fmt"
	"strings"
)

const maxNameLength = 256

// ValidateCreateRequest checks creation input.
func ValidateCreateRequest(req CreateRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if !req.Priority.Valid() {
		return fmt.Errorf("%w: priority %d", ErrInvalidInput, req.Priority)
	}
	if err := validateTime("due time", req.DueTime); err != nil {
		return err
	}
	return validateTime("expected time", req.ExpectTime)
}

// ValidateUpdateRequest checks the edits that are present.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return fmt.Errorf("%w: priority %d", ErrInvalidInput, *req.Priority)
	}
	if req.Efficiency != nil && !req.Efficiency.Valid() {
		return fmt.Errorf("%w: efficiency %d", ErrInvalidInput, *req.Efficiency)
	}
	if req.DueTime != nil {
		if err := validateTime("due time", *req.DueTime); err != nil {
			return err
		}
	}
	if req.ExpectTime != nil {
		if err := validateTime("expected time", *req.ExpectTime); err != nil {
			return err
		}
	}
	return nil
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(trimmed) > maxNameLength {
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidInput, maxNameLength)
	}
	return nil
}

func validateTime(field string, v int64) error {
	if v < Unset {
		return fmt.Errorf("%w: %s %d", ErrInvalidInput, field, v)
	}
	return nil
}
