package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/domain/repositories"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/estimaihq/takeoff-backend/pkg/errors"
)

const standardsTable = "construction_standards"

// StandardAdapter implements StandardRepository on PostgreSQL
type StandardAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewStandardAdapter creates a new standard adapter
func NewStandardAdapter(client *postgres.Client) repositories.StandardRepository {
	return &StandardAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// standardRow maps a record onto the table columns. An empty reference is
// stored as NULL, not as an empty string.
func standardRow(record *entities.StandardRecord) goqu.Record {
	return goqu.Record{
		"id":         record.ID,
		"content":    record.Content,
		"discipline": string(record.Discipline),
		"category":   string(record.Category),
		"source":     record.Source,
		"reference":  sql.NullString{String: record.Reference, Valid: record.Reference != ""},
	}
}

// Create inserts a standard record
func (a *StandardAdapter) Create(ctx context.Context, record *entities.StandardRecord) error {
	query, args, err := a.db.Insert(standardsTable).Rows(standardRow(record)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create standard record", err)
	}

	return nil
}

// CreateBatch inserts multiple standard records in a single transaction
func (a *StandardAdapter) CreateBatch(ctx context.Context, records []entities.StandardRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(records))
	for i := range records {
		rows = append(rows, standardRow(&records[i]))
	}

	query, args, err := a.db.Insert(standardsTable).Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build batch insert query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return apperrors.NewInternalError("failed to batch create standard records", err)
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit batch insert", err)
	}

	return nil
}

// GetByID retrieves a standard record by ID
func (a *StandardAdapter) GetByID(ctx context.Context, id int) (*entities.StandardRecord, error) {
	query, args, err := a.db.Select(
		"id", "content", "discipline", "category", "source", "reference",
	).From(standardsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record := &entities.StandardRecord{}
	var reference sql.NullString
	var discipline, category string

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&record.ID,
		&record.Content,
		&discipline,
		&category,
		&record.Source,
		&reference,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("standard record with id %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get standard record", err)
	}

	record.Discipline = entities.Discipline(discipline)
	record.Category = entities.Category(category)
	record.Reference = reference.String

	return record, nil
}

// List retrieves standard records with filters
func (a *StandardAdapter) List(ctx context.Context, filter repositories.StandardFilter) ([]entities.StandardRecord, error) {
	ds := a.db.Select(
		"id", "content", "discipline", "category", "source", "reference",
	).From(standardsTable)

	if filter.Discipline != "" {
		ds = ds.Where(goqu.Ex{"discipline": string(filter.Discipline)})
	}

	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": string(filter.Category)})
	}

	ds = ds.Order(goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list standard records", err)
	}
	defer rows.Close()

	var records []entities.StandardRecord
	for rows.Next() {
		var record entities.StandardRecord
		var reference sql.NullString
		var discipline, category string

		if err := rows.Scan(
			&record.ID,
			&record.Content,
			&discipline,
			&category,
			&record.Source,
			&reference,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan standard record", err)
		}

		record.Discipline = entities.Discipline(discipline)
		record.Category = entities.Category(category)
		record.Reference = reference.String

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating standard records", err)
	}

	return records, nil
}

func (a *StandardAdapter) deleteAllSQL() (string, []interface{}, error) {
	return a.db.Delete(standardsTable).ToSQL()
}

// DeleteAll removes every stored record. Reseeding clears the table first so
// the explicit primary keys in the corpus never collide with stale rows.
func (a *StandardAdapter) DeleteAll(ctx context.Context) error {
	query, args, err := a.deleteAllSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete standard records", err)
	}

	return nil
}

// Count returns the number of stored records
func (a *StandardAdapter) Count(ctx context.Context) (int, error) {
	query, args, err := a.db.From(standardsTable).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count standard records", err)
	}

	return count, nil
}
