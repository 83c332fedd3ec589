package reconcile

import "strings"

// Options holds the policy markers used by the extractor and the price sync
type Options struct {
	// SelfArrangedMarkers exclude cost items the client arranges themselves
	SelfArrangedMarkers []string `mapstructure:"self_arranged_markers"`
	// HotelBreakfastMarkers identify breakfasts bundled into the room rate
	HotelBreakfastMarkers []string `mapstructure:"hotel_breakfast_markers"`
	// SameAsAboveMarkers identify a hotel continuation from the previous night
	SameAsAboveMarkers []string `mapstructure:"same_as_above_markers"`
}

// DefaultOptions returns the markers used when none are configured
func DefaultOptions() Options {
	return Options{
		SelfArrangedMarkers:   []string{"self-arranged", "自理"},
		HotelBreakfastMarkers: []string{"hotel breakfast", "酒店早餐"},
		SameAsAboveMarkers:    []string{"same as above", "同上"},
	}
}

// withDefaults fills empty marker lists from DefaultOptions
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if len(o.SelfArrangedMarkers) == 0 {
		o.SelfArrangedMarkers = def.SelfArrangedMarkers
	}
	if len(o.HotelBreakfastMarkers) == 0 {
		o.HotelBreakfastMarkers = def.HotelBreakfastMarkers
	}
	if len(o.SameAsAboveMarkers) == 0 {
		o.SameAsAboveMarkers = def.SameAsAboveMarkers
	}
	return o
}

// containsMarker reports whether s contains any marker, ignoring case
func containsMarker(s string, markers []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// cutMarkerPrefix strips a leading marker, ignoring case
func cutMarkerPrefix(s string, markers []string) (string, bool) {
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m != "" && len(s) >= len(m) && strings.EqualFold(s[:len(m)], m) {
			return s[len(m):], true
		}
	}
	return s, false
}
