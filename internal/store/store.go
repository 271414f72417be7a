// Package store persists session documents. The live system treats the store
// as write-behind: the lobby goroutine owns the document and pushes full
// snapshots down; documents are only read back at boot and at join-by-code.
package store

import (
	"context"
	"errors"

	"github.com/scoutlink/alliance-backend/internal/session"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	// Create persists a new document, assigning doc.ID if it is empty.
	Create(ctx context.Context, doc *session.Document) error

	// Update overwrites the persisted document by ID.
	Update(ctx context.Context, doc *session.Document) error

	// FindByCode returns the newest active document with the given join code.
	FindByCode(ctx context.Context, code string) (*session.Document, error)

	// FindActive returns every document still marked active, for boot-time
	// session recovery.
	FindActive(ctx context.Context) ([]*session.Document, error)

	Delete(ctx context.Context, id string) error
}
