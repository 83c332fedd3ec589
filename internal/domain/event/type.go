package event

// Type identifies the type of domain event
type Type string

const (
	TypeSheetItemInserted    Type = "sheet_item.inserted"
	TypeSheetRegenerated     Type = "sheet.regenerated"
	TypeQuoteItinerarySynced Type = "quote.itinerary_synced"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSheetItemInserted,
		TypeSheetRegenerated,
		TypeQuoteItinerarySynced:
		return true
	default:
		return false
	}
}
