package entity

// Category classifies a service item
type Category string

// Category constants for ServiceItem
const (
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryMeal          Category = "meal"
	CategoryActivity      Category = "activity"
	CategoryOther         Category = "other"
)

// Categories lists every category in canonical order
var Categories = []Category{
	CategoryTransport,
	CategoryAccommodation,
	CategoryMeal,
	CategoryActivity,
	CategoryOther,
}

// IsValid reports whether c is one of the defined categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryTransport, CategoryAccommodation, CategoryMeal, CategoryActivity, CategoryOther:
		return true
	default:
		return false
	}
}

// Quote cost bucket identifiers
const (
	BucketMeals         = "meals"
	BucketAccommodation = "accommodation"
	BucketActivities    = "activities"
	BucketOther         = "other"
)

// Slot identifies the part of a day a cost item belongs to
type Slot string

// Slot constants for CostItem and ParsedLine
const (
	SlotNone      Slot = ""
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotNight     Slot = "night"
)

// MealSlots lists meal slots in the order they are generated
var MealSlots = []Slot{SlotBreakfast, SlotLunch, SlotDinner}

// Flight legs
const (
	LegNone     = ""
	LegOutbound = "outbound"
	LegReturn   = "return"
)

// Booking status constants for ConfirmationSheetItem
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
)

// Parent document types owning a confirmed snapshot
const (
	ParentTypeTour    = "tour"
	ParentTypePackage = "package"
)

// Outbox status constants
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
	OutboxStatusDead    = "DEAD"
)
