package domain

import "errors"

// Ошибки, которые use cases возвращают наружу
var (
	ErrNoSavedFilters      = errors.New("no saved filters")
	ErrInvalidNumericInput = errors.New("invalid numeric input")
	ErrUnknownOption       = errors.New("unknown filter option")
	ErrUnknownField        = errors.New("unknown filter field")
	ErrDialogNotOpen       = errors.New("filter dialog is not open")
	ErrPageOutOfRange      = errors.New("page out of range")
	ErrFiltersNotReady     = errors.New("filters are not initialized yet")
	ErrSessionNotFound     = errors.New("browse session not found")
	ErrPropertyNotFound    = errors.New("property not found")
	ErrInvalidPhone        = errors.New("invalid phone number")
	ErrInquiryNotFound     = errors.New("inquiry not found")
)
