package reconcile

import (
	"testing"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItinerary() []entity.ItineraryDay {
	return []entity.ItineraryDay{
		{Day: 1, Lunch: "ABC Cafe", Dinner: "Harbour Grill", Hotel: "Grand Hotel"},
		{Day: 2, Breakfast: "Hotel Breakfast", Lunch: "Noodle Bar", Hotel: "same as above"},
		{Day: 3, Breakfast: "酒店早餐", Dinner: "Sushi Ko", Hotel: "同上(Seaside Inn)"},
		{Day: 4, Lunch: "Airport Deli", Hotel: "Should Not Appear"},
	}
}

func bucket(cats []entity.CostCategory, id string) *entity.CostCategory {
	for i := range cats {
		if cats[i].ID == id {
			return &cats[i]
		}
	}
	return nil
}

func TestPriceSync_GeneratesBuckets(t *testing.T) {
	ps := NewPriceSync(DefaultOptions())
	others := entity.CostCategory{ID: entity.BucketActivities, Name: "Activities", Items: []entity.CostItem{{Name: "City walk"}}}

	out := ps.SyncMealsAndAccommodation(testItinerary(), []entity.CostCategory{others})
	require.Len(t, out, 3)
	assert.Equal(t, entity.BucketActivities, out[0].ID)
	assert.Equal(t, others.Items, out[0].Items)
	assert.Equal(t, entity.BucketMeals, out[1].ID)
	assert.Equal(t, entity.BucketAccommodation, out[2].ID)

	var meals []string
	for _, it := range out[1].Items {
		meals = append(meals, it.Description)
		assert.True(t, it.UnitPrice.IsZero())
		assert.True(t, it.Quantity.Equal(decimal.NewFromInt(1)))
	}
	assert.Equal(t, []string{
		"Day 1 lunch - ABC Cafe",
		"Day 1 dinner - Harbour Grill",
		"Day 2 lunch - Noodle Bar",
		"Day 3 dinner - Sushi Ko",
		"Day 4 lunch - Airport Deli",
	}, meals)

	var hotels []string
	for _, it := range out[2].Items {
		hotels = append(hotels, it.Name)
		assert.Equal(t, entity.SlotNight, it.Slot)
	}
	assert.Equal(t, []string{"Grand Hotel", "Grand Hotel", "Seaside Inn"}, hotels)
}

func TestPriceSync_CarriesPricesAcrossRename(t *testing.T) {
	ps := NewPriceSync(DefaultOptions())
	existing := []entity.CostCategory{
		{
			ID:   entity.BucketAccommodation,
			Name: "Accommodation",
			Items: []entity.CostItem{
				{Name: "Old Hotel", Day: entity.IntPtr(2), Slot: entity.SlotNight, UnitPrice: decimal.NewFromInt(3000), Total: decimal.NewFromInt(6000), Quantity: decimal.NewFromInt(2), RoomType: "twin"},
			},
		},
	}
	days := []entity.ItineraryDay{
		{Day: 1, Hotel: "Grand Hotel"},
		{Day: 2, Hotel: "New Hotel"},
		{Day: 3},
	}

	out := ps.SyncMealsAndAccommodation(days, existing)
	rooms := bucket(out, entity.BucketAccommodation)
	require.NotNil(t, rooms)
	require.Len(t, rooms.Items, 2)

	day2 := rooms.Items[1]
	assert.Equal(t, "New Hotel", day2.Name)
	assert.True(t, day2.UnitPrice.Equal(decimal.NewFromInt(3000)))
	assert.True(t, day2.Total.Equal(decimal.NewFromInt(6000)))
	assert.True(t, day2.Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "twin", day2.RoomType)

	day1 := rooms.Items[0]
	assert.True(t, day1.UnitPrice.IsZero())
	assert.Empty(t, day1.RoomType)

	assert.Equal(t, "Old Hotel", existing[0].Items[0].Name, "input must not be modified")
}

func TestPriceSync_RoomTypeOnlyOnAccommodation(t *testing.T) {
	ps := NewPriceSync(DefaultOptions())
	existing := []entity.CostCategory{
		{ID: entity.BucketMeals, Name: "Meals", Items: []entity.CostItem{
			{Name: "Old Cafe", Day: entity.IntPtr(1), Slot: entity.SlotLunch, UnitPrice: decimal.NewFromInt(800), Quantity: decimal.NewFromInt(4), RoomType: "twin"},
		}},
		{ID: entity.BucketAccommodation, Name: "Accommodation", Items: []entity.CostItem{
			{Name: "Old Hotel", Day: entity.IntPtr(1), Slot: entity.SlotNight, UnitPrice: decimal.NewFromInt(3000), Quantity: decimal.NewFromInt(2), RoomType: "twin"},
		}},
	}
	days := []entity.ItineraryDay{
		{Day: 1, Lunch: "ABC Cafe", Hotel: "Grand Hotel"},
		{Day: 2},
	}

	out := ps.SyncMealsAndAccommodation(days, existing)

	tests := []struct {
		bucket       string
		wantRoomType string
		wantQuantity int64
	}{
		{entity.BucketMeals, "", 4},
		{entity.BucketAccommodation, "twin", 2},
	}
	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			b := bucket(out, tt.bucket)
			require.NotNil(t, b)
			require.Len(t, b.Items, 1)
			assert.Equal(t, tt.wantRoomType, b.Items[0].RoomType)
			assert.True(t, b.Items[0].Quantity.Equal(decimal.NewFromInt(tt.wantQuantity)))
		})
	}
}

func TestPriceSync_LegacyItemsMatchByParsedName(t *testing.T) {
	ps := NewPriceSync(DefaultOptions())
	existing := []entity.CostCategory{{
		ID: entity.BucketMeals,
		Items: []entity.CostItem{
			{Name: "Day 1 lunch - Some Cafe", UnitPrice: decimal.NewFromInt(80), Total: decimal.NewFromInt(80)},
			{Name: "Welcome dinner", UnitPrice: decimal.NewFromInt(500), Total: decimal.NewFromInt(500)},
		},
	}}
	days := []entity.ItineraryDay{{Day: 1, Lunch: "ABC Cafe", Dinner: "Harbour Grill"}}

	out := ps.SyncMealsAndAccommodation(days, existing)
	meals := bucket(out, entity.BucketMeals)
	require.NotNil(t, meals)
	require.Len(t, meals.Items, 2)

	assert.True(t, meals.Items[0].UnitPrice.Equal(decimal.NewFromInt(80)))
	// an unparseable name must not fall back to day 1
	assert.True(t, meals.Items[1].UnitPrice.IsZero())
}

func TestPriceSync_FixedPoint(t *testing.T) {
	ps := NewPriceSync(DefaultOptions())

	first := ps.SyncMealsAndAccommodation(testItinerary(), nil)
	meals := bucket(first, entity.BucketMeals)
	meals.Items[0].UnitPrice = decimal.RequireFromString("88.50")
	meals.Items[0].Total = decimal.RequireFromString("177.00")
	rooms := bucket(first, entity.BucketAccommodation)
	rooms.Items[1].UnitPrice = decimal.NewFromInt(3000)
	rooms.Items[1].RoomType = "twin"

	second := ps.SyncMealsAndAccommodation(testItinerary(), first)
	third := ps.SyncMealsAndAccommodation(testItinerary(), second)

	assert.Equal(t, second, third)
	assert.Equal(t, "88.5", bucket(third, entity.BucketMeals).Items[0].UnitPrice.String())
	assert.Equal(t, "177", bucket(third, entity.BucketMeals).Items[0].Total.String())
	assert.Equal(t, "twin", bucket(third, entity.BucketAccommodation).Items[1].RoomType)
}

func TestPriceSync_ResolveHotel(t *testing.T) {
	ps := NewPriceSync(DefaultOptions())

	tests := []struct {
		name string
		text string
		prev string
		want string
	}{
		{name: "literal", text: " Grand Hotel ", prev: "X", want: "Grand Hotel"},
		{name: "marker with hotel", text: "Same as above (Seaside Inn)", prev: "X", want: "Seaside Inn"},
		{name: "chinese marker", text: "同上（海景酒店）", prev: "X", want: "海景酒店"},
		{name: "bare marker", text: "same as above", prev: "Grand Hotel", want: "Grand Hotel"},
		{name: "bare marker first night", text: "同上", prev: "", want: ""},
		{name: "empty", text: "", prev: "Grand Hotel", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ps.resolveHotel(tt.text, tt.prev))
		})
	}
}

func TestPriceSync_ExtractorSeesSyncedItems(t *testing.T) {
	ps := NewPriceSync(DefaultOptions())
	ex := NewExtractor(DefaultOptions())

	cats := ps.SyncMealsAndAccommodation([]entity.ItineraryDay{
		{Day: 1, Lunch: "ABC Cafe", Hotel: "Grand Hotel"},
		{Day: 2},
	}, nil)
	items := ex.Extract(&entity.Quote{StartDate: entity.ParseDate("2024-03-01"), Categories: cats}, entity.FlightInfo{})

	require.Len(t, items, 2)
	assert.Equal(t, entity.DeriveKey(entity.CategoryMeal, "ABC Cafe", "lunch", entity.ParseDate("2024-03-01")), items[0].Key())
	assert.Equal(t, entity.DeriveKey(entity.CategoryAccommodation, "Grand Hotel", "night", entity.ParseDate("2024-03-01")), items[1].Key())
}
