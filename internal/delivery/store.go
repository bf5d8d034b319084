package delivery

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
)

type Store interface {
	PutItem(ctx context.Context, it Item) error
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context, opts ListOpts) ([]Item, error)

	CreateSession(ctx context.Context, s Session) error
	UpdateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, itemID, candidate string) ([]Session, error)
}
