package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/server/services"
)

func checked(c fiber.Ctx, field string) bool {
	return c.FormValue(field) == "on"
}

// checkedOr reads a checkbox that falls back to def when the field is not
// submitted at all. Only an explicit "off" or "false" clears it.
func checkedOr(c fiber.Ctx, field string, def bool) bool {
	switch c.FormValue(field) {
	case "":
		return def
	case "off", "false":
		return false
	default:
		return true
	}
}

func (s *Server) join(c fiber.Ctx) error {
	user, err := s.svc.Users.Signup(c.Context(), services.SignupInput{
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
		DoNotSell: checkedOr(c, "doNotSell", true),
	})
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.setSession(c, user.ID, false); err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, common.SafeRedirect(c.FormValue("redirectTo"), "/app/welcome"))
}

func (s *Server) login(c fiber.Ctx) error {
	user, err := s.svc.Users.Login(c.Context(), c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.setSession(c, user.ID, checked(c, "remember")); err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, common.SafeRedirect(c.FormValue("redirectTo"), "/app"))
}

func (s *Server) logout(c fiber.Ctx) error {
	s.clearSession(c)
	return redirect(c, "/")
}

// forgot answers the same way for known and unknown emails.
func (s *Server) forgot(c fiber.Ctx) error {
	email := common.NormalizeEmail(c.FormValue("email"))
	if !common.ValidateEmail(email) {
		return fieldError(c, "email", msgEmailInvalid)
	}

	if _, err := s.svc.Accounts.IssueResetToken(c.Context(), email); err != nil && !errors.Is(err, common.ErrUnknownEmail) {
		return s.respondError(c, err)
	}
	return success(c, msgResetSent)
}

// checkReset tells the reset form whether its link is still usable.
func (s *Server) checkReset(c fiber.Ctx) error {
	err := s.svc.Accounts.CheckResetToken(c.Context(), c.Params("token"))
	if errors.Is(err, common.ErrInvalidToken) {
		return fieldError(c, "token", msgResetInvalid)
	}
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"errors": nil})
}

func (s *Server) reset(c fiber.Ctx) error {
	userID, err := s.svc.Accounts.ConsumeResetToken(c.Context(), c.Params("token"), c.FormValue("password"))
	switch {
	case errors.Is(err, common.ErrPasswordRequired):
		return fieldError(c, "password", msgPasswordRequired)
	case errors.Is(err, common.ErrPasswordTooShort):
		return fieldError(c, "password", msgPasswordTooShort)
	case errors.Is(err, common.ErrAccountNotFound):
		return fieldError(c, "token", msgResetNotFound)
	case err != nil:
		return s.respondError(c, err)
	}

	if err := s.setSession(c, userID, false); err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, "/app")
}

func (s *Server) verify(c fiber.Ctx) error {
	user := currentUser(c)

	err := s.svc.Accounts.ConsumeVerificationToken(c.Context(), user.ID, c.Params("token"))
	if errors.Is(err, common.ErrInvalidToken) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgVerifyFailed})
	}
	if err != nil {
		return s.respondError(c, err)
	}
	return success(c, msgVerified)
}

func (s *Server) resendVerification(c fiber.Ctx) error {
	user := currentUser(c)

	if _, err := s.svc.Accounts.IssueVerificationToken(c.Context(), user.ID); err != nil {
		return s.respondError(c, err)
	}
	return success(c, msgVerifySent)
}

func (s *Server) undoSignup(c fiber.Ctx) error {
	user := currentUser(c)

	deleted, err := s.svc.Accounts.UndoSignup(c.Context(), user.ID, c.Params("token"))
	if err != nil {
		return s.respondError(c, err)
	}
	if deleted {
		s.clearSession(c)
	}
	return redirect(c, "/")
}
