package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/privnotes/notes/internal/server/services"
)

func (s *Server) me(c fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

func (s *Server) updateProfile(c fiber.Ctx) error {
	avatar, err := formUpload(c, "visualAvatar")
	if err != nil {
		return s.respondError(c, err)
	}

	user, err := s.svc.Profiles.UpdateProfile(c.Context(), currentUser(c).ID, services.ProfileInput{
		DoNotSell:         checked(c, "doNotSell"),
		Avatar:            avatar,
		AvatarDescription: c.FormValue("visualAvatarDescription"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) exportData(c fiber.Ctx) error {
	export, err := s.svc.Accounts.ExportData(c.Context(), currentUser(c).ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(export)
}

func (s *Server) deleteData(c fiber.Ctx) error {
	userID := currentUser(c).ID
	phrase := c.FormValue("confirmation")

	switch c.FormValue("deletionType") {
	case "most":
		if err := s.svc.Accounts.DeletePartialData(c.Context(), userID, phrase); err != nil {
			return s.respondError(c, err)
		}
		return success(c, msgDeletedMost)
	case "all":
		if err := s.svc.Accounts.DeleteAccount(c.Context(), userID, phrase); err != nil {
			return s.respondError(c, err)
		}
		s.clearSession(c)
		return success(c, msgDeletedAll)
	default:
		return fieldError(c, "deletionType", msgUnknownDeletion)
	}
}
