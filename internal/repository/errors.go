// Package repository defines error types that are reused across
// multiple repositories.  These sentinel values allow higher layers
// to distinguish between failure scenarios: a conditional order
// update that found the row in another status is a business conflict,
// not a database fault.
package repository

import "errors"

// ErrOrderNotFound is returned when no order row exists for the
// requested serial number.
var ErrOrderNotFound = errors.New("order not found")

// ErrStatusConflict is returned when a conditional order status
// update matched zero rows because the order has already moved to a
// different status.  Callers translate this into a client-visible
// conflict.
var ErrStatusConflict = errors.New("order status conflict")

// ErrPriceNotFound is returned when no fare row exists for a
// (segment, seat class) combination.
var ErrPriceNotFound = errors.New("price not found")
