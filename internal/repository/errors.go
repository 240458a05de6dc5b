package repository

import "errors"

var (
	// ErrThreadAlreadyBound: a ticket's thread binding is set once at
	// creation and never overwritten.
	ErrThreadAlreadyBound = errors.New("ticket thread already bound")
	// ErrAlreadyRated: a finalized ticket accepts exactly one rating.
	ErrAlreadyRated = errors.New("ticket already rated")
	// ErrTicketNotFound is returned by updates targeting a missing row.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrAccountNotFound is returned by updates targeting a missing account.
	ErrAccountNotFound = errors.New("account not found")
)
