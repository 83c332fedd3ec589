package entity

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DateLayout is the calendar date layout used in keys and payloads
const DateLayout = "2006-01-02"

// emptyDateSentinel stands in for a missing service date
const emptyDateSentinel = "-"

// IdentityKey identifies "the same obligation" across reconciliation passes.
// It is the only join predicate between a quote, a snapshot and a sheet.
type IdentityKey string

// String returns the encoded key
func (k IdentityKey) String() string {
	return string(k)
}

// DeriveKey builds the identity key for a service obligation.
//
// Text fields are normalized (NFC, trimmed, whitespace collapsed, case folded)
// and length-prefixed so that values containing the separator cannot collide:
//
//	meal|8:abc cafe|5:lunch|2024-03-01
func DeriveKey(category Category, supplier, title string, date *time.Time) IdentityKey {
	s := normalizeKeyField(supplier)
	t := normalizeKeyField(title)

	var b strings.Builder
	b.Grow(len(category) + len(s) + len(t) + 24)
	b.WriteString(string(category))
	b.WriteByte('|')
	writeLengthPrefixed(&b, s)
	b.WriteByte('|')
	writeLengthPrefixed(&b, t)
	b.WriteByte('|')
	b.WriteString(formatKeyDate(date))
	return IdentityKey(b.String())
}

func writeLengthPrefixed(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

func normalizeKeyField(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

func formatKeyDate(date *time.Time) string {
	if date == nil || date.IsZero() {
		return emptyDateSentinel
	}
	return date.Format(DateLayout)
}

// KeySet is a set of identity keys
type KeySet map[IdentityKey]struct{}

// NewKeySet creates a key set holding keys
func NewKeySet(keys ...IdentityKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts k
func (s KeySet) Add(k IdentityKey) {
	s[k] = struct{}{}
}

// Has reports whether k is in the set
func (s KeySet) Has(k IdentityKey) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of keys
func (s KeySet) Len() int {
	return len(s)
}

// Clone returns an independent copy of the set
func (s KeySet) Clone() KeySet {
	c := make(KeySet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}
