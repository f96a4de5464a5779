package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"MediaScope/internal/domain"
	"MediaScope/internal/ports"
)

// PostgresRepository persists analysis history rows into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.HistoryRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation. A nil db turns the
// repository into a no-op so the pipeline runs without persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save inserts one completed analysis snapshot.
func (r *PostgresRepository) Save(ctx context.Context, row domain.HistoryRow) error {
	if r.db == nil {
		return nil
	}

	query := r.builder.
		Insert("analysis_history").
		Columns("created_at", "request_id", "name", "family", "top_label", "top_confidence", "source").
		Values(row.CreatedAt, row.RequestID, row.Name, string(row.Family), row.TopLabel, row.TopConfidence, row.Source).
		RunWith(r.db)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("insert history row: %w", err)
	}
	return nil
}

// ListRecent returns up to limit rows, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]domain.HistoryRow, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit < 1 {
		limit = 50
	}

	query := r.builder.
		Select("id", "created_at", "request_id", "name", "family", "top_label", "top_confidence", "source").
		From("analysis_history").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		RunWith(r.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var result []domain.HistoryRow
	for rows.Next() {
		var row domain.HistoryRow
		var family string
		if err := rows.Scan(&row.ID, &row.CreatedAt, &row.RequestID, &row.Name,
			&family, &row.TopLabel, &row.TopConfidence, &row.Source); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		row.Family = domain.ContentFamily(family)
		result = append(result, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// PruneBefore deletes rows created before the cutoff and reports how many
// were removed.
func (r *PostgresRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.db == nil {
		return 0, nil
	}

	query := r.builder.
		Delete("analysis_history").
		Where(sq.Lt{"created_at": cutoff}).
		RunWith(r.db)

	result, err := query.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned rows: %w", err)
	}
	return removed, nil
}

// Clear removes every stored row.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	query := r.builder.Delete("analysis_history").RunWith(r.db)
	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
