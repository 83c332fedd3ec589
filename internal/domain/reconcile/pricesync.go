package reconcile

import (
	"sort"
	"strings"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Display names of buckets the sync creates
const (
	mealsBucketName         = "Meals"
	accommodationBucketName = "Accommodation"
)

// PriceSync regenerates the meals and accommodation buckets of a quote from
// an itinerary while keeping the prices a human entered
type PriceSync struct {
	hotelBreakfast []string
	sameAsAbove    []string
}

// NewPriceSync creates a price sync with the given policy markers
func NewPriceSync(opts Options) *PriceSync {
	opts = opts.withDefaults()
	return &PriceSync{
		hotelBreakfast: opts.HotelBreakfastMarkers,
		sameAsAbove:    opts.SameAsAboveMarkers,
	}
}

type position struct {
	day  int
	slot entity.Slot
}

// SyncMealsAndAccommodation returns categories with the meals and
// accommodation buckets rebuilt from days. Generated items are matched to
// existing ones by (day, slot); a match carries forward unit price, total
// and quantity. Room type carries forward in the accommodation bucket only,
// since it means nothing on a meal. Other buckets pass through in place, and missing
// target buckets are appended. categories is not modified.
func (p *PriceSync) SyncMealsAndAccommodation(days []entity.ItineraryDay, categories []entity.CostCategory) []entity.CostCategory {
	ordered := sortDays(days)
	meals := p.mealItems(ordered)
	rooms := p.accommodationItems(ordered)

	out := make([]entity.CostCategory, 0, len(categories)+2)
	var hasMeals, hasRooms bool
	for _, c := range categories {
		switch c.ID {
		case entity.BucketMeals:
			c.Items = mergeBucket(cloneItems(meals), c.Items, entity.SlotNone, false)
			hasMeals = true
		case entity.BucketAccommodation:
			c.Items = mergeBucket(cloneItems(rooms), c.Items, entity.SlotNight, true)
			hasRooms = true
		}
		out = append(out, c)
	}

	if !hasMeals {
		out = append(out, entity.CostCategory{ID: entity.BucketMeals, Name: mealsBucketName, Items: meals})
	}
	if !hasRooms {
		out = append(out, entity.CostCategory{ID: entity.BucketAccommodation, Name: accommodationBucketName, Items: rooms})
	}
	return out
}

func (p *PriceSync) mealItems(days []entity.ItineraryDay) []entity.CostItem {
	items := []entity.CostItem{}
	for _, d := range days {
		for _, slot := range entity.MealSlots {
			text := strings.TrimSpace(d.Meal(slot))
			if text == "" || containsMarker(text, p.hotelBreakfast) {
				continue
			}
			items = append(items, generatedItem(d.Day, slot, text))
		}
	}
	return items
}

// accommodationItems yields one night per day except the last
func (p *PriceSync) accommodationItems(days []entity.ItineraryDay) []entity.CostItem {
	items := []entity.CostItem{}
	prev := ""
	for i, d := range days {
		if i == len(days)-1 {
			break
		}
		hotel := p.resolveHotel(d.Hotel, prev)
		if hotel == "" {
			continue
		}
		prev = hotel
		items = append(items, generatedItem(d.Day, entity.SlotNight, hotel))
	}
	return items
}

// resolveHotel expands "same as above (<hotel>)" to the hotel and a bare
// "same as above" to the previous night's hotel
func (p *PriceSync) resolveHotel(text, prev string) string {
	s := strings.TrimSpace(text)
	rest, ok := cutMarkerPrefix(s, p.sameAsAbove)
	if !ok {
		return s
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimLeft(rest, "(（")
	rest = strings.TrimRight(rest, ")）")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return prev
	}
	return rest
}

func generatedItem(day int, slot entity.Slot, name string) entity.CostItem {
	return entity.CostItem{
		Name:        name,
		Description: FormatLine(ParsedLine{Day: day, Slot: slot, Label: name}),
		Day:         entity.IntPtr(day),
		Slot:        slot,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.Zero,
		Total:       decimal.Zero,
	}
}

// mergeBucket carries prices from existing onto generated by position.
// Existing items with no readable position never match.
func mergeBucket(generated, existing []entity.CostItem, defaultSlot entity.Slot, keepRoomType bool) []entity.CostItem {
	byPosition := make(map[position]entity.CostItem, len(existing))
	for _, ci := range existing {
		pos, ok := positionOf(ci, defaultSlot)
		if !ok {
			continue
		}
		if _, dup := byPosition[pos]; !dup {
			byPosition[pos] = ci
		}
	}

	for i := range generated {
		pos := position{day: *generated[i].Day, slot: generated[i].Slot}
		old, ok := byPosition[pos]
		if !ok {
			continue
		}
		generated[i].UnitPrice = old.UnitPrice
		generated[i].Total = old.Total
		if !old.Quantity.IsZero() {
			generated[i].Quantity = old.Quantity
		}
		if keepRoomType {
			generated[i].RoomType = old.RoomType
		}
	}
	return generated
}

func positionOf(ci entity.CostItem, defaultSlot entity.Slot) (position, bool) {
	slot := ci.Slot
	var day int
	if ci.Day != nil {
		day = *ci.Day
	} else {
		parsed, ok := parseCostItem(ci)
		if !ok {
			return position{}, false
		}
		day = parsed.Day
		if slot == entity.SlotNone {
			slot = parsed.Slot
		}
	}
	if slot == entity.SlotNone {
		slot = defaultSlot
	}
	if day < 1 || slot == entity.SlotNone {
		return position{}, false
	}
	return position{day: day, slot: slot}, true
}

func sortDays(days []entity.ItineraryDay) []entity.ItineraryDay {
	out := make([]entity.ItineraryDay, len(days))
	copy(out, days)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func cloneItems(items []entity.CostItem) []entity.CostItem {
	out := make([]entity.CostItem, len(items))
	copy(out, items)
	return out
}
