package service

import "errors"

var (
	// ErrSheetNotFound is returned when the confirmation sheet does not exist
	ErrSheetNotFound = errors.New("confirmation sheet not found")
	// ErrQuoteNotFound is returned when the quote behind a sheet or sync does not exist
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrLockNotObtained is returned when another run holds the sheet or quote
	ErrLockNotObtained = errors.New("another reconciliation is in progress")
	// ErrInvalidItinerary is returned for itinerary input that cannot be synced
	ErrInvalidItinerary = errors.New("invalid itinerary")
)
