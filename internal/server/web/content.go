package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/privnotes/notes/internal/server/services"
	"github.com/privnotes/notes/internal/server/storage"
)

// formUpload reads an optional file field. An absent or empty file is no
// upload.
func formUpload(c fiber.Ctx, field string) (*storage.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh.Size == 0 {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	return &storage.Upload{Filename: fh.Filename, Data: data}, nil
}

func (s *Server) noteInput(c fiber.Ctx) (services.NoteInput, error) {
	img, err := formUpload(c, "image")
	if err != nil {
		return services.NoteInput{}, err
	}
	return services.NoteInput{
		Name:             c.FormValue("name"),
		Body:             c.FormValue("body"),
		Image:            img,
		ImageDescription: c.FormValue("imageDescription"),
	}, nil
}

func (s *Server) listNotes(c fiber.Ctx) error {
	list, err := s.svc.Notes.ListNotes(c.Context(), currentUser(c).ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"notes": list})
}

func (s *Server) getNote(c fiber.Ctx) error {
	note, err := s.svc.Notes.GetNote(c.Context(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(note)
}

func (s *Server) createNote(c fiber.Ctx) error {
	in, err := s.noteInput(c)
	if err != nil {
		return s.respondError(c, err)
	}

	note, err := s.svc.Notes.CreateNote(c.Context(), currentUser(c).ID, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, "/app/notes/"+note.ID)
}

func (s *Server) updateNote(c fiber.Ctx) error {
	in, err := s.noteInput(c)
	if err != nil {
		return s.respondError(c, err)
	}

	note, err := s.svc.Notes.UpdateNote(c.Context(), currentUser(c).ID, c.Params("id"), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, "/app/notes/"+note.ID)
}

func (s *Server) deleteNote(c fiber.Ctx) error {
	if err := s.svc.Notes.DeleteNote(c.Context(), currentUser(c).ID, c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, "/app/notes")
}

func (s *Server) pageInput(c fiber.Ctx) (services.PageInput, error) {
	img, err := formUpload(c, "image")
	if err != nil {
		return services.PageInput{}, err
	}
	return services.PageInput{
		Title:            c.FormValue("title"),
		Slug:             c.FormValue("slug"),
		Body:             c.FormValue("body"),
		Image:            img,
		ImageDescription: c.FormValue("imageDescription"),
	}, nil
}

func (s *Server) listPages(c fiber.Ctx) error {
	list, err := s.svc.Pages.ListPages(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"pages": list})
}

func (s *Server) getPage(c fiber.Ctx) error {
	page, err := s.svc.Pages.GetPage(c.Context(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

func (s *Server) createPage(c fiber.Ctx) error {
	in, err := s.pageInput(c)
	if err != nil {
		return s.respondError(c, err)
	}

	page, err := s.svc.Pages.CreatePage(c.Context(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, "/app/pages/"+page.ID)
}

func (s *Server) updatePage(c fiber.Ctx) error {
	in, err := s.pageInput(c)
	if err != nil {
		return s.respondError(c, err)
	}

	page, err := s.svc.Pages.UpdatePage(c.Context(), c.Params("id"), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, "/app/pages/"+page.ID)
}

func (s *Server) deletePage(c fiber.Ctx) error {
	if err := s.svc.Pages.DeletePage(c.Context(), c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return redirect(c, "/app/pages")
}

func (s *Server) getSite(c fiber.Ctx) error {
	site, err := s.svc.Sites.GetSiteSettings(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(site)
}

func (s *Server) saveSite(c fiber.Ctx) error {
	logo, err := formUpload(c, "logo")
	if err != nil {
		return s.respondError(c, err)
	}

	_, err = s.svc.Sites.SaveSiteSettings(c.Context(), services.SiteInput{
		Name:            c.FormValue("name"),
		Tagline:         c.FormValue("tagline"),
		Lede:            c.FormValue("lede"),
		Logo:            logo,
		LogoDescription: c.FormValue("logoDescription"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return success(c, msgSaved)
}

func (s *Server) listPublicPages(c fiber.Ctx) error {
	return s.listPages(c)
}

func (s *Server) publicPage(c fiber.Ctx) error {
	page, err := s.svc.Pages.GetPageBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

func (s *Server) publicSite(c fiber.Ctx) error {
	return s.getSite(c)
}

// media redirects to a short-lived presigned URL. Site objects are public;
// user objects are served to their owner only.
func (s *Server) media(c fiber.Ctx) error {
	rest := c.Params("*")
	owner, _, ok := strings.Cut(rest, "/")
	if !ok || owner == "" || strings.Contains(rest, "..") {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}

	if owner != storage.SiteOwner {
		user := currentUser(c)
		if user == nil || user.ID != owner {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
	}

	url, err := s.svc.Media.PresignGet(c.Context(), storage.KeyPrefix+rest)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect().Status(http.StatusFound).To(url)
}
