// Package services implements the account lifecycle and content rules on top
// of the repositories. Every operation receives the acting user explicitly.
package services

import (
	"context"

	"github.com/privnotes/notes/internal/server/mail"
)

// Mailer queues an email without waiting for delivery.
type Mailer interface {
	Notify(ctx context.Context, msg mail.Message)
}
