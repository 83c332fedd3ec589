package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceItem is one normalized bookable or informational line extracted from a quote.
// It is derived fresh on every reconciliation pass and never persisted directly.
type ServiceItem struct {
	Category     Category         `json:"category"`
	SupplierName string           `json:"supplier_name"`
	Title        string           `json:"title"`
	ServiceDate  *time.Time       `json:"service_date,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`

	// Leg is set for items synthesized from flight legs
	Leg string `json:"leg,omitempty"`
	// BucketID is the quote cost bucket the item was read from
	BucketID string `json:"bucket_id,omitempty"`

	FlightNumber     string   `json:"flight_number,omitempty"`
	DepartureAirport string   `json:"departure_airport,omitempty"`
	ArrivalAirport   string   `json:"arrival_airport,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	ResourceID       string   `json:"resource_id,omitempty"`
}

// Key derives the item's identity key
func (i ServiceItem) Key() IdentityKey {
	return DeriveKey(i.Category, i.SupplierName, i.Title, i.ServiceDate)
}

// IsFlight reports whether the item was synthesized from a flight leg
func (i ServiceItem) IsFlight() bool {
	return i.Leg == LegOutbound || i.Leg == LegReturn
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date, returning nil for blank or malformed input
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339, "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d := DateOnly(t)
			return &d
		}
	}
	return nil
}

// CompareDates orders dates ascending with nil first
func CompareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}
