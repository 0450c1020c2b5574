package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/infrastructure/database"
	"github.com/takecare/core/internal/ports"
)

// PostgresListRepository stores list aggregates as JSONB documents, with
// owner and recipient denormalized into indexed columns for the two query
// paths. Self-hosted alternative to the hosted document store.
type PostgresListRepository struct {
	db *database.DB
}

// NewPostgresListRepository creates a new Postgres-backed repository.
func NewPostgresListRepository(db *database.DB) *PostgresListRepository {
	return &PostgresListRepository{db: db}
}

type listRow struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	RecipientID sql.NullString `db:"recipient_id"`
	Document    []byte         `db:"document"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// rowFromList flattens a list into its storage row.
func rowFromList(list *entities.List) (listRow, error) {
	doc, err := json.Marshal(list)
	if err != nil {
		return listRow{}, fmt.Errorf("failed to marshal list document: %w", err)
	}
	row := listRow{
		ID:        list.ID,
		OwnerID:   list.OwnerID,
		Document:  doc,
		UpdatedAt: list.UpdatedAt,
	}
	if list.RecipientID != "" {
		row.RecipientID = sql.NullString{String: list.RecipientID, Valid: true}
	}
	return row, nil
}

// listFromRow restores the aggregate from its JSONB document.
func listFromRow(row listRow) (*entities.List, error) {
	var list entities.List
	if err := json.Unmarshal(row.Document, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal list document: %w", err)
	}
	return &list, nil
}

const upsertListQuery = `
	INSERT INTO lists (id, owner_id, recipient_id, document, updated_at)
	VALUES (:id, :owner_id, :recipient_id, :document, :updated_at)
	ON CONFLICT (id) DO UPDATE
	SET owner_id = EXCLUDED.owner_id,
	    recipient_id = EXCLUDED.recipient_id,
	    document = EXCLUDED.document,
	    updated_at = EXCLUDED.updated_at`

// Create stores a new list document.
func (r *PostgresListRepository) Create(ctx context.Context, list *entities.List) error {
	row, err := rowFromList(list)
	if err != nil {
		return err
	}
	if _, err := r.db.DB.NamedExecContext(ctx, upsertListQuery, row); err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// GetByID fetches one list.
func (r *PostgresListRepository) GetByID(ctx context.Context, id string) (*entities.List, error) {
	var row listRow
	err := r.db.DB.GetContext(ctx, &row,
		`SELECT id, owner_id, recipient_id, document, updated_at FROM lists WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return listFromRow(row)
}

// Query returns the lists matching the filter, oldest first.
func (r *PostgresListRepository) Query(ctx context.Context, filter ports.ListFilter) ([]*entities.List, error) {
	query := `SELECT id, owner_id, recipient_id, document, updated_at FROM lists WHERE 1=1`
	args := []interface{}{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if filter.RecipientID != nil {
		args = append(args, *filter.RecipientID)
		query += fmt.Sprintf(" AND recipient_id = $%d", len(args))
	}

	query += ` ORDER BY document->>'created_at' ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []listRow
	if err := r.db.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}

	lists := make([]*entities.List, 0, len(rows))
	for _, row := range rows {
		list, err := listFromRow(row)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// Update replaces the whole list document.
func (r *PostgresListRepository) Update(ctx context.Context, list *entities.List) error {
	row, err := rowFromList(list)
	if err != nil {
		return err
	}
	res, err := r.db.DB.NamedExecContext(ctx,
		`UPDATE lists
		 SET owner_id = :owner_id, recipient_id = :recipient_id,
		     document = :document, updated_at = :updated_at
		 WHERE id = :id`, row)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ErrListNotFound
	}
	return nil
}

// Delete removes one list.
func (r *PostgresListRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.DB.ExecContext(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ErrListNotFound
	}
	return nil
}

// BatchWrite replaces all given documents inside one transaction.
func (r *PostgresListRepository) BatchWrite(ctx context.Context, lists []*entities.List) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		for _, list := range lists {
			row, err := rowFromList(list)
			if err != nil {
				return err
			}
			if _, err := tx.NamedExecContext(ctx, upsertListQuery, row); err != nil {
				return fmt.Errorf("failed to write list %s: %w", list.ID, err)
			}
		}
		return nil
	})
}
