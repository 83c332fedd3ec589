package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the mutable planning document the extractor reads and the
// itinerary sync writes back into
type Quote struct {
	ID          int64          `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	StartDate   *time.Time     `json:"start_date,omitempty"`
	Categories  []CostCategory `json:"categories"`
	Flights     FlightInfo     `json:"flights"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Category returns the bucket with the given id, or nil
func (q *Quote) Category(id string) *CostCategory {
	for i := range q.Categories {
		if q.Categories[i].ID == id {
			return &q.Categories[i]
		}
	}
	return nil
}

// CostCategory is an ordered, named bucket of cost items
type CostCategory struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []CostItem `json:"items"`
}

// CostItem is a single priced line in a quote bucket.
// Day and Slot are structured position fields; legacy rows may only carry
// them inside Name or Description.
type CostItem struct {
	Name        string          `json:"name"`
	Supplier    string          `json:"supplier,omitempty"`
	Description string          `json:"description,omitempty"`
	Day         *int            `json:"day,omitempty"`
	Slot        Slot            `json:"slot,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	RoomType    string          `json:"room_type,omitempty"`
}

// IsPriced reports whether a human has entered a price on the item
func (c CostItem) IsPriced() bool {
	return !c.UnitPrice.IsZero() || !c.Total.IsZero()
}

// FlightInfo holds the optional outbound and return legs of a trip
type FlightInfo struct {
	Outbound *FlightLeg `json:"outbound,omitempty"`
	Return   *FlightLeg `json:"return,omitempty"`
}

// FlightLeg describes one flight leg
type FlightLeg struct {
	Airline          string `json:"airline"`
	FlightNumber     string `json:"flight_number"`
	DepartureAirport string `json:"departure_airport"`
	ArrivalAirport   string `json:"arrival_airport"`
	DepartureTime    string `json:"departure_time"`
	ArrivalTime      string `json:"arrival_time"`
	DepartureDate    string `json:"departure_date"`
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
