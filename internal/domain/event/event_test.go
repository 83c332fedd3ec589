package event

import (
	"testing"
	"time"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      string
	}{
		{
			name:      "sheet item inserted",
			eventType: TypeSheetItemInserted,
			want:      "sheet_item.inserted",
		},
		{
			name:      "sheet regenerated",
			eventType: TypeSheetRegenerated,
			want:      "sheet.regenerated",
		},
		{
			name:      "quote itinerary synced",
			eventType: TypeQuoteItinerarySynced,
			want:      "quote.itinerary_synced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{
			name:      "valid - sheet item inserted",
			eventType: TypeSheetItemInserted,
			want:      true,
		},
		{
			name:      "valid - sheet regenerated",
			eventType: TypeSheetRegenerated,
			want:      true,
		},
		{
			name:      "valid - quote itinerary synced",
			eventType: TypeQuoteItinerarySynced,
			want:      true,
		},
		{
			name:      "invalid - unknown type",
			eventType: Type("unknown.type"),
			want:      false,
		},
		{
			name:      "invalid - empty string",
			eventType: Type(""),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"sheet_item_id": int64(42),
		"category":      "meal",
	}

	event := NewEvent(TypeSheetItemInserted, 7, "ws-001", payload)

	if event == nil {
		t.Fatal("NewEvent() returned nil")
	}

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}

	if event.Type != TypeSheetItemInserted {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeSheetItemInserted)
	}

	if event.AggregateID != 7 {
		t.Errorf("Event AggregateID = %v, want %v", event.AggregateID, 7)
	}

	if event.WorkspaceID != "ws-001" {
		t.Errorf("Event WorkspaceID = %v, want %v", event.WorkspaceID, "ws-001")
	}

	if event.Payload["category"] != "meal" {
		t.Errorf("Event Payload[category] = %v, want %v", event.Payload["category"], "meal")
	}

	if event.CorrelationID == "" || event.CorrelationID == event.ID {
		t.Error("Event CorrelationID should be set independently of ID")
	}

	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestEvent_GetPayloadInt(t *testing.T) {
	event := NewEvent(TypeSheetItemInserted, 1, "ws-1", map[string]interface{}{
		"int64":   int64(100),
		"int":     50,
		"float64": 75.0,
		"string":  "not a number",
	})

	tests := []struct {
		name string
		key  string
		want int64
	}{
		{name: "int64 value", key: "int64", want: 100},
		{name: "int value", key: "int", want: 50},
		{name: "float64 value (json decoded)", key: "float64", want: 75},
		{name: "non-int value", key: "string", want: 0},
		{name: "missing key", key: "nonexistent", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := event.GetPayloadInt(tt.key); got != tt.want {
				t.Errorf("GetPayloadInt(%v) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEvent_GetPayloadString(t *testing.T) {
	event := NewEvent(TypeSheetItemInserted, 1, "ws-1", map[string]interface{}{
		"category": "meal",
		"number":   123,
	})

	if got := event.GetPayloadString("category"); got != "meal" {
		t.Errorf("GetPayloadString(category) = %v, want meal", got)
	}
	if got := event.GetPayloadString("number"); got != "" {
		t.Errorf("GetPayloadString(number) = %v, want empty", got)
	}
	if got := event.GetPayloadString("nonexistent"); got != "" {
		t.Errorf("GetPayloadString(nonexistent) = %v, want empty", got)
	}
}
