package allocation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/train-ticket-inventory/internal/model"
)

// PoolConfig sizes the coordinator's worker pool.  Values come from
// deployment configuration, never from constants in this package.
type PoolConfig struct {
	Workers     int           // concurrent allocation tasks
	QueueDepth  int           // pending task buffer
	TaskTimeout time.Duration // per class-group allocation time limit
}

// Coordinator splits a purchase into per-seat-class groups, resolves
// one strategy per group, runs the groups on a bounded worker pool and
// joins the results.  The outcome is all-or-nothing across classes:
// when any group fails, seats locked by its siblings are released
// before the failure is returned.
type Coordinator struct {
	dispatcher *Dispatcher
	ledger     SeatLedger
	cfg        PoolConfig

	tasks chan func()
	stop  sync.Once
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewCoordinator starts the worker pool and returns the coordinator.
// Close must be called to stop the workers.
func NewCoordinator(dispatcher *Dispatcher, ledger SeatLedger, cfg PoolConfig) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueDepth < 0 {
		cfg.QueueDepth = 0
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 5 * time.Second
	}
	c := &Coordinator{
		dispatcher: dispatcher,
		ledger:     ledger,
		cfg:        cfg,
		tasks:      make(chan func(), cfg.QueueDepth),
		done:       make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// Close stops the worker pool after in-flight tasks finish.
func (c *Coordinator) Close() {
	c.stop.Do(func() { close(c.done) })
	c.wg.Wait()
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case task := <-c.tasks:
			task()
		}
	}
}

// classGroup is one per-seat-class slice of a purchase, in the order
// the class first appears in the request.
type classGroup struct {
	class      model.SeatClass
	passengers []model.PassengerSeatRequest
	strategy   Strategy
}

// partition groups passengers by requested seat class, preserving
// first-appearance order of classes and request order within a class.
func partition(passengers []model.PassengerSeatRequest) []*classGroup {
	var groups []*classGroup
	index := make(map[model.SeatClass]*classGroup)
	for _, p := range passengers {
		g, ok := index[p.Class]
		if !ok {
			g = &classGroup{class: p.Class}
			index[p.Class] = g
			groups = append(groups, g)
		}
		g.passengers = append(g.passengers, p)
	}
	return groups
}

// Allocate assigns a seat to every passenger of the purchase or fails
// with zero net seat-state change.  Strategy resolution for every
// class happens before any group runs, so an unsupported combination
// fails the whole purchase immediately.
func (c *Coordinator) Allocate(ctx context.Context, vehicle model.VehicleClass, seg model.Segment, passengers []model.PassengerSeatRequest) ([]model.SeatAssignment, error) {
	if len(passengers) == 0 {
		return nil, fmt.Errorf("allocate: empty passenger list")
	}
	groups := partition(passengers)
	for _, g := range groups {
		s, err := c.dispatcher.Resolve(vehicle, g.class)
		if err != nil {
			return nil, err
		}
		g.strategy = s
	}

	// Fast path: a single seat class needs no fan-out.
	if len(groups) == 1 {
		tctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout)
		defer cancel()
		return c.runGroup(tctx, seg, groups[0])
	}

	results := make([][]model.SeatAssignment, len(groups))
	errs := make([]error, len(groups))
	var join sync.WaitGroup
	for i, g := range groups {
		join.Add(1)
		task := func() {
			defer join.Done()
			defer func() {
				// A panicking strategy must not skip the sibling
				// rollback below; convert it to a group failure.
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("allocation task for %s panicked: %v", g.class, r)
				}
			}()
			tctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout)
			defer cancel()
			results[i], errs[i] = c.runGroup(tctx, seg, g)
		}
		select {
		case c.tasks <- task:
		case <-ctx.Done():
			join.Done()
			errs[i] = fmt.Errorf("submit allocation task: %w", ctx.Err())
		}
	}
	join.Wait()

	var firstErr error
	for _, err := range errs {
		if err != nil {
			firstErr = err
			break
		}
	}
	if firstErr != nil {
		// All-or-nothing across classes: undo the groups that did
		// succeed before surfacing the first failure in class order.
		for j, res := range results {
			if errs[j] == nil {
				c.releaseAll(seg, res)
			}
		}
		return nil, firstErr
	}

	out := make([]model.SeatAssignment, 0, len(passengers))
	for _, res := range results {
		out = append(out, res...)
	}
	return out, nil
}

func (c *Coordinator) runGroup(ctx context.Context, seg model.Segment, g *classGroup) ([]model.SeatAssignment, error) {
	return g.strategy.Allocate(ctx, seg, g.class, g.passengers)
}

// releaseAll is the cross-class compensation step.  It runs on a
// fresh context: the purchase context may already be cancelled, and
// the rollback must still make it to the ledger.
func (c *Coordinator) releaseAll(seg model.Segment, assignments []model.SeatAssignment) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.TaskTimeout)
	defer cancel()
	for _, a := range assignments {
		if err := c.ledger.Release(ctx, seg, a.Seat); err != nil {
			log.Printf("coordinator: compensating release of %s seat %d-%s failed: %v",
				seg, a.Seat.CarriageID, a.Seat.SeatNumber, err)
		}
	}
}
