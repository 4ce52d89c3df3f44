// Package cachesync keeps the denormalized remaining-ticket view in
// step with the seat ledger.  It is the only writer to that cache:
// the listing path reads it, the allocation path never touches it,
// and correctness of actual selling rests on the ledger's conditional
// transitions, never on this pipeline.
package cachesync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// CacheWriter is the narrow slice of the cache the syncer needs: one
// atomic signed increment on a hash field.
type CacheWriter interface {
	IncrField(ctx context.Context, key, field string, delta int64) error
}

// Syncer folds ordered ChangeEvent batches into remaining-count
// deltas.  Batches must be applied in delivery order; grouping within
// a batch only merges increments for the same (segment, seat class)
// and cannot reorder the net effect.
type Syncer struct {
	cache CacheWriter
}

// NewSyncer returns a Syncer writing through the given cache.
func NewSyncer(cache CacheWriter) *Syncer {
	return &Syncer{cache: cache}
}

// delta accumulates the net change for one (segment, seat class) key
// of the batch.
type delta struct {
	key   string
	field string
	net   int64
}

// Apply consumes one change-feed batch.  Only AVAILABLE<->LOCKED
// transitions move the remaining count; everything else on the feed
// (LOCKED->SOLD included) is filtered out.  Deltas are summed per
// (segment, seat class) and written as a single increment each to
// keep cache round-trips down.  An error aborts the batch so the
// feed can redeliver it.
func (s *Syncer) Apply(ctx context.Context, events []model.ChangeEvent) error {
	var groups []*delta
	index := make(map[string]*delta)
	for _, ev := range events {
		d, ok := ev.CountDelta()
		if !ok {
			continue
		}
		key := ev.Segment.CacheKey()
		field := strconv.Itoa(ev.Class.Code())
		g, seen := index[key+"#"+field]
		if !seen {
			g = &delta{key: key, field: field}
			index[key+"#"+field] = g
			groups = append(groups, g)
		}
		g.net += d
	}
	for _, g := range groups {
		if g.net == 0 {
			continue
		}
		if err := s.cache.IncrField(ctx, g.key, g.field, g.net); err != nil {
			return fmt.Errorf("apply remaining-count delta %s/%s: %w", g.key, g.field, err)
		}
	}
	return nil
}
