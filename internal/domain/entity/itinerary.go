package entity

// ItineraryDay is one day of an itinerary document
type ItineraryDay struct {
	Day       int    `json:"day" yaml:"day" binding:"required,min=1"`
	Breakfast string `json:"breakfast" yaml:"breakfast"`
	Lunch     string `json:"lunch" yaml:"lunch"`
	Dinner    string `json:"dinner" yaml:"dinner"`
	Hotel     string `json:"hotel" yaml:"hotel"`
}

// Meal returns the meal text for a slot
func (d ItineraryDay) Meal(slot Slot) string {
	switch slot {
	case SlotBreakfast:
		return d.Breakfast
	case SlotLunch:
		return d.Lunch
	case SlotDinner:
		return d.Dinner
	default:
		return ""
	}
}
