package domain

import "time"

// Order is a read-only projection from the order system, used only to
// enrich ticket subjects and descriptions.
type Order struct {
	ID          int64
	AccountID   int64
	OrderNumber *string
	StoreID     *string
	CreatedAt   *time.Time
}

// StoreKindExpress marks dark-store ("express") locations, which are shown
// to staff by street address rather than title.
const StoreKindExpress = "express"

// Store is a read-only projection of a retail location.
type Store struct {
	ID     string
	Title  *string
	Kind   *string
	Street *string
}

// DisplayTitle resolves the human-readable store name.
func (s *Store) DisplayTitle() string {
	if s == nil {
		return ""
	}
	if s.Kind != nil && *s.Kind == StoreKindExpress && s.Street != nil {
		return *s.Street
	}
	if s.Title != nil {
		return *s.Title
	}
	return ""
}
