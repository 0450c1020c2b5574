package ports

import (
	"context"

	"github.com/takecare/core/internal/domain/entities"
)

// ListRepository is the remote document store for list aggregates. Every
// write replaces the whole list document; there are no partial field
// patches.
type ListRepository interface {
	Create(ctx context.Context, list *entities.List) error
	GetByID(ctx context.Context, id string) (*entities.List, error)
	Query(ctx context.Context, filter ListFilter) ([]*entities.List, error)
	Update(ctx context.Context, list *entities.List) error
	Delete(ctx context.Context, id string) error

	// BatchWrite persists all given lists in a single atomic write:
	// either every document is replaced or none is.
	BatchWrite(ctx context.Context, lists []*entities.List) error
}

// ListFilter narrows a Query to an actor's view of the store.
type ListFilter struct {
	OwnerID     *string
	RecipientID *string
	Limit       int
	Offset      int
}

// ObjectStore holds list photos. Lists reference objects by URL; deleting a
// list cascades into removing its photo.
type ObjectStore interface {
	Remove(ctx context.Context, url string) error
}
