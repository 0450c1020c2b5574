package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/ports"
)

// FirestoreListRepository stores list documents in a Firestore collection,
// one document per list aggregate.
type FirestoreListRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreListRepository creates a repository over an existing client.
func NewFirestoreListRepository(client *firestore.Client, collection string) *FirestoreListRepository {
	if collection == "" {
		collection = "lists"
	}
	return &FirestoreListRepository{client: client, collection: collection}
}

func (r *FirestoreListRepository) col() *firestore.CollectionRef {
	return r.client.Collection(r.collection)
}

// Create stores a new list document under its assigned ID.
func (r *FirestoreListRepository) Create(ctx context.Context, list *entities.List) error {
	if _, err := r.col().Doc(list.ID).Set(ctx, list); err != nil {
		return fmt.Errorf("failed to create list document: %w", err)
	}
	return nil
}

// GetByID fetches one list document.
func (r *FirestoreListRepository) GetByID(ctx context.Context, id string) (*entities.List, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, entities.ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list document: %w", err)
	}

	var list entities.List
	if err := snap.DataTo(&list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal list document: %w", err)
	}
	return &list, nil
}

// Query returns the lists matching the filter, oldest first.
func (r *FirestoreListRepository) Query(ctx context.Context, filter ports.ListFilter) ([]*entities.List, error) {
	q := r.col().Query
	if filter.OwnerID != nil {
		q = q.Where("ownerId", "==", *filter.OwnerID)
	}
	if filter.RecipientID != nil {
		q = q.Where("recipientId", "==", *filter.RecipientID)
	}
	q = q.OrderBy("createdAt", firestore.Asc)
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var lists []*entities.List
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate lists: %w", err)
		}

		var list entities.List
		if err := doc.DataTo(&list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal list document: %w", err)
		}
		lists = append(lists, &list)
	}

	return lists, nil
}

// Update replaces the whole list document.
func (r *FirestoreListRepository) Update(ctx context.Context, list *entities.List) error {
	if _, err := r.col().Doc(list.ID).Set(ctx, list); err != nil {
		return fmt.Errorf("failed to update list document: %w", err)
	}
	return nil
}

// Delete removes one list document.
func (r *FirestoreListRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete list document: %w", err)
	}
	return nil
}

// BatchWrite replaces all given documents inside one transaction, so the
// completion resets of a reconciliation cycle land all-or-nothing.
func (r *FirestoreListRepository) BatchWrite(ctx context.Context, lists []*entities.List) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, list := range lists {
			if err := tx.Set(r.col().Doc(list.ID), list); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to batch-write lists: %w", err)
	}
	return nil
}
