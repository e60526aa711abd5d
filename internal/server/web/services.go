package web

import (
	"context"

	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/services"
)

type Users interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Accounts interface {
	IssueVerificationToken(ctx context.Context, userID string) (string, error)
	ConsumeVerificationToken(ctx context.Context, userID, token string) error
	IssueResetToken(ctx context.Context, email string) (string, error)
	CheckResetToken(ctx context.Context, token string) error
	ConsumeResetToken(ctx context.Context, token, newPassword string) (string, error)
	DeletePartialData(ctx context.Context, userID, phrase string) error
	DeleteAccount(ctx context.Context, userID, phrase string) error
	UndoSignup(ctx context.Context, userID, token string) (bool, error)
	ExportData(ctx context.Context, userID string) (*models.DataExport, error)
}

type Profiles interface {
	UpdateProfile(ctx context.Context, userID string, in services.ProfileInput) (*models.User, error)
}

type Notes interface {
	ListNotes(ctx context.Context, userID string) ([]*models.Note, error)
	GetNote(ctx context.Context, userID, id string) (*models.Note, error)
	CreateNote(ctx context.Context, userID string, in services.NoteInput) (*models.Note, error)
	UpdateNote(ctx context.Context, userID, id string, in services.NoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, userID, id string) error
}

type Pages interface {
	ListPages(ctx context.Context) ([]*models.Page, error)
	GetPage(ctx context.Context, id string) (*models.Page, error)
	GetPageBySlug(ctx context.Context, slug string) (*models.Page, error)
	CreatePage(ctx context.Context, in services.PageInput) (*models.Page, error)
	UpdatePage(ctx context.Context, id string, in services.PageInput) (*models.Page, error)
	DeletePage(ctx context.Context, id string) error
}

type Sites interface {
	GetSiteSettings(ctx context.Context) (*models.SiteSettings, error)
	SaveSiteSettings(ctx context.Context, in services.SiteInput) (*models.SiteSettings, error)
}
