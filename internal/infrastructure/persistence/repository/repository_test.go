package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/garyjia/tour-confirmation/migrations"
	"github.com/garyjia/tour-confirmation/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(database.Config{Path: database.MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunMigrationsFS(migrations.FS, "."))
	return db.DB
}

func date(s string) *time.Time {
	return entity.ParseDate(s)
}

// seedSheet creates a quote and a sheet for tour 7
func seedSheet(t *testing.T, db *sql.DB) *entity.ConfirmationSheet {
	t.Helper()
	ctx := context.Background()

	quote := &entity.Quote{WorkspaceID: "ws-1", StartDate: date("2024-03-01")}
	require.NoError(t, NewQuoteRepository(db, zap.NewNop()).Create(ctx, quote))

	sheet := &entity.ConfirmationSheet{
		WorkspaceID: "ws-1",
		QuoteID:     quote.ID,
		ParentType:  entity.ParentTypeTour,
		ParentID:    7,
		Title:       "Hokkaido spring",
	}
	require.NoError(t, NewSheetRepository(db, zap.NewNop()).Create(ctx, sheet))
	return sheet
}

func sheetItem(sheetID int64, category entity.Category, supplier, title string, day *time.Time) *entity.ConfirmationSheetItem {
	return &entity.ConfirmationSheetItem{
		SheetID:      sheetID,
		WorkspaceID:  "ws-1",
		Category:     category,
		SupplierName: supplier,
		Title:        title,
		ServiceDate:  day,
		Quantity:     decimal.NewFromInt(1),
	}
}
