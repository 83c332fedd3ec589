package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// SheetRepository implements port.SheetRepository
type SheetRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSheetRepository creates a new confirmation sheet repository
func NewSheetRepository(db *sql.DB, logger *zap.Logger) port.SheetRepository {
	return &SheetRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a sheet and sets its ID
func (r *SheetRepository) Create(ctx context.Context, sheet *entity.ConfirmationSheet) error {
	query := `
		INSERT INTO confirmation_sheets (workspace_id, quote_id, parent_type, parent_id, title)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		sheet.WorkspaceID,
		sheet.QuoteID,
		sheet.ParentType,
		sheet.ParentID,
		sheet.Title,
	)
	if err != nil {
		r.logger.Error("Failed to create confirmation sheet",
			zap.Int64("quote_id", sheet.QuoteID),
			zap.String("parent_type", sheet.ParentType),
			zap.Int64("parent_id", sheet.ParentID),
			zap.Error(err))
		return fmt.Errorf("failed to create confirmation sheet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	sheet.ID = id
	return nil
}

// GetByID retrieves a sheet, or nil when it does not exist
func (r *SheetRepository) GetByID(ctx context.Context, id int64) (*entity.ConfirmationSheet, error) {
	query := `
		SELECT id, workspace_id, quote_id, parent_type, parent_id, title, created_at, updated_at
		FROM confirmation_sheets
		WHERE id = ?
	`

	var sheet entity.ConfirmationSheet
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&sheet.ID,
		&sheet.WorkspaceID,
		&sheet.QuoteID,
		&sheet.ParentType,
		&sheet.ParentID,
		&sheet.Title,
		&sheet.CreatedAt,
		&sheet.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get confirmation sheet by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get confirmation sheet: %w", err)
	}
	return &sheet, nil
}

var _ port.SheetRepository = (*SheetRepository)(nil)
