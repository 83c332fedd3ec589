package repository

import (
	"context"
	"testing"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQuoteRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuoteRepository(db, zap.NewNop())
	ctx := context.Background()

	quote := &entity.Quote{
		WorkspaceID: "ws-1",
		StartDate:   date("2024-03-01"),
		Categories: []entity.CostCategory{
			{ID: entity.BucketAccommodation, Name: "Accommodation", Items: []entity.CostItem{
				{
					Name:      "Hotel Nikko",
					Day:       entity.IntPtr(1),
					Slot:      entity.SlotNight,
					Quantity:  decimal.NewFromInt(2),
					UnitPrice: decimal.RequireFromString("3000"),
					RoomType:  "twin",
				},
			}},
		},
		Flights: entity.FlightInfo{
			Outbound: &entity.FlightLeg{Airline: "ANA", FlightNumber: "NH63", DepartureDate: "2024-03-01"},
		},
	}
	require.NoError(t, repo.Create(ctx, quote))
	require.NotZero(t, quote.ID)

	got, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "ws-1", got.WorkspaceID)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, "2024-03-01", got.StartDate.Format(entity.DateLayout))
	require.Len(t, got.Categories, 1)
	item := got.Categories[0].Items[0]
	assert.Equal(t, "Hotel Nikko", item.Name)
	assert.Equal(t, 1, *item.Day)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "twin", item.RoomType)
	require.NotNil(t, got.Flights.Outbound)
	assert.Equal(t, "NH63", got.Flights.Outbound.FlightNumber)
	assert.Nil(t, got.Flights.Return)
}

func TestQuoteRepository_GetByID_NotFound(t *testing.T) {
	repo := NewQuoteRepository(newTestDB(t), zap.NewNop())

	got, err := repo.GetByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQuoteRepository_UpdateCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuoteRepository(db, zap.NewNop())
	ctx := context.Background()

	quote := &entity.Quote{WorkspaceID: "ws-1"}
	require.NoError(t, repo.Create(ctx, quote))

	updated := []entity.CostCategory{
		{ID: entity.BucketMeals, Name: "Meals", Items: []entity.CostItem{{Name: "ABC Cafe", Day: entity.IntPtr(2), Slot: entity.SlotLunch}}},
	}
	require.NoError(t, repo.UpdateCategories(ctx, quote.ID, updated))

	got, err := repo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, entity.BucketMeals, got.Categories[0].ID)
	assert.Equal(t, entity.SlotLunch, got.Categories[0].Items[0].Slot)

	err = repo.UpdateCategories(ctx, 999, updated)
	assert.Error(t, err)
}

func TestQuoteRepository_GetByID_MalformedJSONDegrades(t *testing.T) {
	tests := []struct {
		name        string
		categories  string
		flights     string
		wantBuckets []string
		wantItems   []int
		wantFlight  bool
	}{
		{
			name:        "bad bucket keeps its id",
			categories:  `[{"id":"meals","items":[{"name":"ABC","day":"two"}]},{"id":"accommodation","items":[{"name":"Hotel Nikko","day":1,"slot":"night"}]}]`,
			flights:     `{"outbound":{"airline":"ANA","departure_date":"2024-03-01"}}`,
			wantBuckets: []string{"meals", "accommodation"},
			wantItems:   []int{0, 1},
			wantFlight:  true,
		},
		{
			name:       "object instead of list",
			categories: `{"meals":[]}`,
			flights:    `{}`,
		},
		{
			name:       "bad flights",
			categories: `[]`,
			flights:    `{"outbound":"NH63"}`,
		},
		{
			name:        "unreadable bucket",
			categories:  `[42,{"id":"other","items":[]}]`,
			flights:     `not json`,
			wantBuckets: []string{"", "other"},
			wantItems:   []int{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			repo := NewQuoteRepository(db, zap.NewNop())

			result, err := db.Exec(
				`INSERT INTO quotes (workspace_id, start_date, categories, flights) VALUES (?, ?, ?, ?)`,
				"ws-1", "2024-03-01", tt.categories, tt.flights)
			require.NoError(t, err)
			id, err := result.LastInsertId()
			require.NoError(t, err)

			got, err := repo.GetByID(context.Background(), id)
			require.NoError(t, err)
			require.NotNil(t, got)

			require.Len(t, got.Categories, len(tt.wantBuckets))
			for i, bucket := range tt.wantBuckets {
				assert.Equal(t, bucket, got.Categories[i].ID)
				assert.Len(t, got.Categories[i].Items, tt.wantItems[i])
			}
			assert.Equal(t, tt.wantFlight, got.Flights.Outbound != nil)
		})
	}
}
