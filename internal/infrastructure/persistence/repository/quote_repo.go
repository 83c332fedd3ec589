package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// QuoteRepository implements port.QuoteRepository.
// Cost categories and flights are stored as JSON documents.
type QuoteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB, logger *zap.Logger) port.QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a quote and sets its ID
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	categories, err := json.Marshal(nonNilCategories(quote.Categories))
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	flights, err := json.Marshal(quote.Flights)
	if err != nil {
		return fmt.Errorf("failed to marshal flights: %w", err)
	}

	query := `
		INSERT INTO quotes (workspace_id, start_date, categories, flights)
		VALUES (?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		quote.WorkspaceID,
		nullDate(quote.StartDate),
		string(categories),
		string(flights),
	)
	if err != nil {
		r.logger.Error("Failed to create quote",
			zap.String("workspace_id", quote.WorkspaceID),
			zap.Error(err))
		return fmt.Errorf("failed to create quote: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	quote.ID = id
	return nil
}

// GetByID retrieves a quote, or nil when it does not exist
func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*entity.Quote, error) {
	query := `
		SELECT id, workspace_id, start_date, categories, flights, updated_at
		FROM quotes
		WHERE id = ?
	`

	var (
		quote      entity.Quote
		startDate  sql.NullString
		categories string
		flights    string
	)
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&quote.ID,
		&quote.WorkspaceID,
		&startDate,
		&categories,
		&flights,
		&quote.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quote by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	quote.StartDate = scanDate(startDate)
	quote.Categories = r.decodeCategories(id, categories)
	quote.Flights = r.decodeFlights(id, flights)
	return &quote, nil
}

// decodeCategories decodes each bucket on its own. A malformed bucket keeps
// its id and name with no items; a malformed document yields no buckets.
func (r *QuoteRepository) decodeCategories(quoteID int64, raw string) []entity.CostCategory {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var buckets []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &buckets); err != nil {
		r.logger.Warn("Malformed quote categories; treating as empty",
			zap.Int64("quote_id", quoteID), zap.Error(err))
		return nil
	}

	out := make([]entity.CostCategory, 0, len(buckets))
	for i, b := range buckets {
		var cat entity.CostCategory
		if err := json.Unmarshal(b, &cat); err != nil {
			var header struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			}
			_ = json.Unmarshal(b, &header)
			r.logger.Warn("Malformed quote cost bucket; treating as empty",
				zap.Int64("quote_id", quoteID),
				zap.Int("index", i),
				zap.String("bucket_id", header.ID),
				zap.Error(err))
			cat = entity.CostCategory{ID: header.ID, Name: header.Name}
		}
		out = append(out, cat)
	}
	return out
}

// decodeFlights falls back to no flights when the document is malformed
func (r *QuoteRepository) decodeFlights(quoteID int64, raw string) entity.FlightInfo {
	var flights entity.FlightInfo
	if strings.TrimSpace(raw) == "" {
		return flights
	}
	if err := json.Unmarshal([]byte(raw), &flights); err != nil {
		r.logger.Warn("Malformed quote flights; treating as none",
			zap.Int64("quote_id", quoteID), zap.Error(err))
		return entity.FlightInfo{}
	}
	return flights
}

// UpdateCategories replaces the cost categories of a quote
func (r *QuoteRepository) UpdateCategories(ctx context.Context, id int64, categories []entity.CostCategory) error {
	data, err := json.Marshal(nonNilCategories(categories))
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	query := `UPDATE quotes SET categories = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, string(data), id)
	if err != nil {
		r.logger.Error("Failed to update quote categories", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update quote categories: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("quote not found: %d", id)
	}
	return nil
}

func nonNilCategories(c []entity.CostCategory) []entity.CostCategory {
	if c == nil {
		return []entity.CostCategory{}
	}
	return c
}

var _ port.QuoteRepository = (*QuoteRepository)(nil)
