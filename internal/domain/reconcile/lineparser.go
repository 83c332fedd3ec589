package reconcile

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/garyjia/tour-confirmation/internal/domain/entity"
)

// ParsedLine is the structured position of a free-text cost line such as
// "Day 3 lunch - ABC Cafe"
type ParsedLine struct {
	Day   int         `json:"day"`
	Slot  entity.Slot `json:"slot,omitempty"`
	Label string      `json:"label,omitempty"`
}

var slotWords = []struct {
	word string
	slot entity.Slot
}{
	{"breakfast", entity.SlotBreakfast},
	{"lunch", entity.SlotLunch},
	{"dinner", entity.SlotDinner},
	{"night", entity.SlotNight},
	{"早餐", entity.SlotBreakfast},
	{"午餐", entity.SlotLunch},
	{"晚餐", entity.SlotDinner},
	{"住宿", entity.SlotNight},
}

var lineSeparators = []string{"-", "–", "—", ":", "："}

// maxDayDigits bounds the day number; itineraries never run past 9999 days
const maxDayDigits = 4

// ParseLine reads a day, an optional slot and a label from text.
// Accepted day forms are "D3", "Day 3", "Day3" and "第3天". It returns false
// when no day can be read; callers must not substitute a default day.
func ParseLine(text string) (ParsedLine, bool) {
	s := strings.TrimSpace(text)

	day, rest, ok := readDay(s)
	if !ok {
		return ParsedLine{}, false
	}

	rest = trimLeftSpace(rest)
	slot, rest := readSlot(rest)
	rest = trimLeftSpace(rest)
	for _, sep := range lineSeparators {
		if strings.HasPrefix(rest, sep) {
			rest = rest[len(sep):]
			break
		}
	}

	return ParsedLine{Day: day, Slot: slot, Label: strings.TrimSpace(rest)}, true
}

// FormatLine renders p in the form ParseLine reads back
func FormatLine(p ParsedLine) string {
	var b strings.Builder
	b.WriteString("Day ")
	b.WriteString(strconv.Itoa(p.Day))
	if p.Slot != entity.SlotNone {
		b.WriteByte(' ')
		b.WriteString(string(p.Slot))
	}
	if p.Label != "" {
		b.WriteString(" - ")
		b.WriteString(p.Label)
	}
	return b.String()
}

func readDay(s string) (int, string, bool) {
	switch {
	case strings.HasPrefix(s, "第"):
		n, rest, ok := readNumber(trimLeftSpace(s[len("第"):]))
		if !ok {
			return 0, s, false
		}
		rest = trimLeftSpace(rest)
		if !strings.HasPrefix(rest, "天") {
			return 0, s, false
		}
		return n, rest[len("天"):], true
	case hasPrefixFold(s, "day"):
		return readLatinDay(s[len("day"):])
	case hasPrefixFold(s, "d"):
		return readLatinDay(s[len("d"):])
	default:
		return 0, s, false
	}
}

func readLatinDay(s string) (int, string, bool) {
	n, rest, ok := readNumber(trimLeftSpace(s))
	if !ok {
		return 0, s, false
	}
	// "D3X" is a code, not a day
	if rest != "" && isASCIILetter(rest[0]) {
		return 0, s, false
	}
	return n, rest, true
}

func readNumber(s string) (int, string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i > maxDayDigits {
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n < 1 {
		return 0, s, false
	}
	return n, s[i:], true
}

func readSlot(s string) (entity.Slot, string) {
	for _, w := range slotWords {
		if !hasPrefixFold(s, w.word) {
			continue
		}
		rest := s[len(w.word):]
		if rest != "" && isASCIILetter(rest[0]) {
			continue
		}
		return w.slot, rest
	}
	return entity.SlotNone, s
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func trimLeftSpace(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}
