// Package service orchestrates the allocation engine into purchases
// and order lifecycle transitions.
package service

import (
	"fmt"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// RemoteError reports a downstream dependency failing after seats
// were already committed to the ledger.  The committed assignments
// ride along so the caller can choose between retrying the lookup and
// rolling the purchase back; the seats are never dropped silently.
type RemoteError struct {
	Dependency string
	Committed  []model.SeatAssignment
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote dependency %s failed with %d seats committed: %v", e.Dependency, len(e.Committed), e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// StatusConflictError reports an order lifecycle transition attempted
// from a status that is not the edge's source.
type StatusConflictError struct {
	OrderSN string
	From    string
	To      string
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("order %s: cannot transition %s -> %s", e.OrderSN, e.From, e.To)
}
