// Package server provides the HTTP REST API for the resume studio.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/resume"
	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/tailor"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// Stable error codes surfaced to the UI alongside the message.
const (
	CodeUnknownSection   = "unknown_section"
	CodeStaleItemIndex   = "stale_item_index"
	CodeStaleBulletIndex = "stale_bullet_index"
)

// PatchErrorCode returns the stable code for a patch coordinate error, or ""
// if err is not one.
func PatchErrorCode(err error) string {
	var unknownSection *resume.ErrUnknownSection
	var staleItem *resume.ErrStaleItemIndex
	var staleBullet *resume.ErrStaleBulletIndex
	switch {
	case errors.As(err, &unknownSection):
		return CodeUnknownSection
	case errors.As(err, &staleItem):
		return CodeStaleItemIndex
	case errors.As(err, &staleBullet):
		return CodeStaleBulletIndex
	default:
		return ""
	}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var generatorErr *tailor.GeneratorError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case PatchErrorCode(err) != "":
		// Stale coordinates conflict with the current document state
		return http.StatusConflict
	case errors.As(err, &generatorErr):
		return http.StatusBadGateway
	}

	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrUserNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
