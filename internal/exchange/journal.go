package exchange

import (
	"context"

	"github.com/xtrntr/marketplace/internal/events"
)

// journal collects the undo steps and pending events of one operation. Undo steps run in reverse order when
// the operation fails; events are only emitted once it has succeeded.
type journal struct {
	undo   []func(ctx context.Context) error
	events []events.Event
}

func (j *journal) onUndo(fn func(ctx context.Context) error) {
	j.undo = append(j.undo, fn)
}

func (j *journal) emit(ev events.Event) {
	j.events = append(j.events, ev)
}

// rollback runs every undo step, newest first, and returns the errors of the steps that failed.
func (j *journal) rollback(ctx context.Context) []error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	j.events = nil
	return errs
}

// atomically runs fn under the exchange lock. Either every effect of fn stays and its events are emitted, or
// every recorded effect is undone and nothing is emitted. Events are emitted before the lock is released so
// observers see them in commit order. Undo steps and emitters get a context that outlives the caller's
// cancellation, so a committed or half-applied operation is always finished.
func (e *Exchange) atomically(ctx context.Context, op string, fn func(j *journal) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j := &journal{}
	err := fn(j)
	e.metrics.ObserveOperation(op, err)
	settle := context.WithoutCancel(ctx)
	if err != nil {
		for _, uerr := range j.rollback(settle) {
			e.logger.Error().Err(uerr).Str("op", op).Msg("failed to undo custody move")
		}
		e.logger.Info().Str("op", op).Err(err).Msg("operation rejected")
		return err
	}

	e.metrics.SetOpen(len(e.orders), len(e.bids))
	for _, ev := range j.events {
		e.logger.Debug().
			Str("op", op).
			Str("event", string(ev.Type)).
			Str("collection", ev.Collection).
			Str("asset_id", ev.AssetID).
			Msg("committed")
		e.emitter.Emit(settle, ev)
	}
	return nil
}
