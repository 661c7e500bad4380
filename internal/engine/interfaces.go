package engine

import (
	"context"

	"github.com/Veraticus/visitor-sync/internal/model"
)

// PanelSession defines the contract for one authenticated panel conversation.
type PanelSession interface {
	Login(ctx context.Context, creds model.Credentials) (string, error)
	Update(ctx context.Context, update model.Update) error
}

// SessionFactory starts a new panel session with an empty cookie jar.
type SessionFactory func() (PanelSession, error)

// FileFetcher defines the contract for downloading the daily export.
type FileFetcher interface {
	Fetch(ctx context.Context, creds model.Credentials, fileName, dir string) (string, error)
}
