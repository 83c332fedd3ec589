package reconcile

import (
	"strings"
	"time"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Flight item titles. Direction is part of the title so that an outbound and
// a return leg on the same airline and day keep distinct keys.
const (
	titleOutboundFlight = "outbound flight"
	titleReturnFlight   = "return flight"
)

// bucketCategories maps quote cost buckets to service item categories
var bucketCategories = map[string]entity.Category{
	entity.BucketAccommodation: entity.CategoryAccommodation,
	entity.BucketMeals:         entity.CategoryMeal,
	entity.BucketActivities:    entity.CategoryActivity,
	entity.BucketOther:         entity.CategoryOther,
}

// CategoryForBucket returns the category a quote bucket feeds
func CategoryForBucket(bucketID string) (entity.Category, bool) {
	cat, ok := bucketCategories[strings.ToLower(strings.TrimSpace(bucketID))]
	return cat, ok
}

// Extractor normalizes a quote into service items
type Extractor struct {
	selfArranged []string
}

// NewExtractor creates an extractor with the given policy markers
func NewExtractor(opts Options) *Extractor {
	opts = opts.withDefaults()
	return &Extractor{selfArranged: opts.SelfArrangedMarkers}
}

// Extract returns the service items of a quote: flight legs first, then the
// items of every mapped cost bucket in bucket order. Missing or malformed
// data yields fewer items, never an error.
func (e *Extractor) Extract(quote *entity.Quote, flights entity.FlightInfo) []entity.ServiceItem {
	var items []entity.ServiceItem

	if it, ok := e.flightItem(flights.Outbound, entity.LegOutbound, titleOutboundFlight); ok {
		items = append(items, it)
	}
	if it, ok := e.flightItem(flights.Return, entity.LegReturn, titleReturnFlight); ok {
		items = append(items, it)
	}

	if quote == nil {
		return items
	}

	for _, bucket := range quote.Categories {
		category, ok := CategoryForBucket(bucket.ID)
		if !ok {
			continue
		}
		for _, ci := range bucket.Items {
			if it, ok := e.costItem(ci, bucket.ID, category, quote.StartDate); ok {
				items = append(items, it)
			}
		}
	}

	return items
}

func (e *Extractor) flightItem(leg *entity.FlightLeg, direction, title string) (entity.ServiceItem, bool) {
	if leg == nil {
		return entity.ServiceItem{}, false
	}
	supplier := strings.TrimSpace(leg.Airline)
	if supplier == "" {
		supplier = strings.TrimSpace(leg.FlightNumber)
	}
	if supplier == "" || containsMarker(supplier, e.selfArranged) {
		return entity.ServiceItem{}, false
	}

	return entity.ServiceItem{
		Category:         entity.CategoryTransport,
		SupplierName:     supplier,
		Title:            title,
		ServiceDate:      entity.ParseDate(leg.DepartureDate),
		Quantity:         decimal.NewFromInt(1),
		Leg:              direction,
		FlightNumber:     leg.FlightNumber,
		DepartureAirport: leg.DepartureAirport,
		ArrivalAirport:   leg.ArrivalAirport,
	}, true
}

func (e *Extractor) costItem(ci entity.CostItem, bucketID string, category entity.Category, start *time.Time) (entity.ServiceItem, bool) {
	name := strings.TrimSpace(ci.Name)
	supplier := strings.TrimSpace(ci.Supplier)
	if name == "" && supplier == "" {
		return entity.ServiceItem{}, false
	}
	if containsMarker(name, e.selfArranged) || containsMarker(supplier, e.selfArranged) {
		return entity.ServiceItem{}, false
	}

	day := ci.Day
	slot := ci.Slot
	label := name
	if day == nil {
		if p, ok := parseCostItem(ci); ok {
			day = entity.IntPtr(p.Day)
			if slot == entity.SlotNone {
				slot = p.Slot
			}
			if p.Label != "" {
				label = p.Label
			}
		}
	}

	if supplier == "" {
		supplier = label
	}
	title := label
	if slot != entity.SlotNone {
		title = string(slot)
	}

	qty := ci.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	var unitPrice *decimal.Decimal
	if !ci.UnitPrice.IsZero() {
		p := ci.UnitPrice
		unitPrice = &p
	}

	return entity.ServiceItem{
		Category:     category,
		SupplierName: supplier,
		Title:        title,
		ServiceDate:  serviceDate(start, day),
		Quantity:     qty,
		UnitPrice:    unitPrice,
		BucketID:     bucketID,
	}, true
}

// parseCostItem reads a legacy item's position from its name, then its description
func parseCostItem(ci entity.CostItem) (ParsedLine, bool) {
	if p, ok := ParseLine(ci.Name); ok {
		return p, true
	}
	return ParseLine(ci.Description)
}

// serviceDate offsets the trip start by day-1
func serviceDate(start *time.Time, day *int) *time.Time {
	if start == nil || day == nil || *day < 1 {
		return nil
	}
	d := entity.DateOnly(*start).AddDate(0, 0, *day-1)
	return &d
}
