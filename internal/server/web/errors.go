package web

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/server/services"
)

const (
	msgEmailInvalid     = "Email is invalid"
	msgResetSent        = "Reset email sent. You can close this page."
	msgPasswordRequired = "Password is required"
	msgPasswordTooShort = "Password is too short"
	msgResetInvalid     = "Token is not valid."
	msgResetNotFound    = "Account not found. Please request a new reset link."
	msgVerified         = "You are verified!"
	msgVerifyFailed     = "Something went wrong. Please request a new link"
	msgVerifySent       = "Sent!"
	msgDeletedMost      = "🎉 You've deleted most of your data."
	msgDeletedAll       = "🎉 You've deleted your account."
	msgUnknownDeletion  = "Unknown deletion type"
	msgSaved            = "Saved"
)

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes field errors as 400 and everything else through
// mapErrorToStatus. Internal failures are logged and never leak details.
func (s *Server) respondError(c fiber.Ctx, err error) error {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return fieldErrors(c, ve.Fields)
	}

	status := mapErrorToStatus(err)
	switch status {
	case http.StatusNotFound:
		return c.Status(status).JSON(fiber.Map{"error": "not found"})
	case http.StatusUnauthorized:
		return c.Status(status).JSON(fiber.Map{"error": "unauthorized"})
	}

	s.logger.Error(c.Context(), "request failed", "path", c.Path(), "error", err.Error())
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func fieldErrors(c fiber.Ctx, fields map[string]string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"errors": fields})
}

func fieldError(c fiber.Ctx, field, msg string) error {
	return fieldErrors(c, map[string]string{field: msg})
}

func success(c fiber.Ctx, msg string) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": msg})
}

func redirect(c fiber.Ctx, to string) error {
	return c.Redirect().Status(http.StatusSeeOther).To(to)
}

// errorHandler catches errors that escaped a handler, including fiber's own
// routing and body-limit errors.
func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < http.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	s.logger.Error(c.Context(), "unhandled error", "path", c.Path(), "error", err.Error())
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
