package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"blip_sim/internal/domain"
	"blip_sim/internal/event"
)

// Inbox returns the event channel. Producers send events here.
func (s *Simulator) Inbox() chan<- event.Event {
	return s.inbox
}

// Done is closed once Run has returned.
func (s *Simulator) Done() <-chan struct{} {
	return s.done
}

// Run starts the event loop and the real-time clock feeding it.
// This MUST be run in a single goroutine, and only once.
func (s *Simulator) Run(ctx context.Context) {
	slog.Info("Simulator started (single-goroutine event loop)",
		slog.Float64("speed", s.settings.Speed),
		slog.Duration("resolution", s.settings.TickResolution),
	)

	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState("panic_dump.json")
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	if s.settings.Speed > 0 && s.settings.TickResolution > 0 {
		go s.clockLoop(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Simulator stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ev)
		}
	}
}

// clockLoop converts elapsed wall time into pooled AdvanceEvents.
func (s *Simulator) clockLoop(ctx context.Context) {
	ticker := time.NewTicker(s.settings.TickResolution)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			ev := event.AcquireAdvanceEvent()
			ev.Ts = now.UnixMicro()
			ev.By = time.Duration(float64(elapsed) * s.settings.Speed)

			select {
			case s.inbox <- ev:
			case <-ctx.Done():
				event.ReleaseAdvanceEvent(ev)
				return
			}
		}
	}
}

func (s *Simulator) processEvent(ev event.Event) {
	start := time.Now()
	s.lastSeq++
	ev.SetSeq(s.lastSeq)

	switch e := ev.(type) {
	case *event.AdvanceEvent:
		s.Advance(e.By)
		event.ReleaseAdvanceEvent(e)
	case *event.CommandEvent:
		var (
			o   domain.Order
			err error
		)
		switch e.Kind {
		case event.TypeAccept:
			o, err = s.AcceptOrder(e.OrderID)
		case event.TypeRelease:
			o, err = s.ReleaseOrder(e.OrderID)
		default:
			err = fmt.Errorf("unsupported command %s", e.Kind)
		}
		if err != nil {
			slog.Warn("Command rejected",
				slog.String("type", e.Kind.String()),
				slog.String("id", e.OrderID),
				slog.Any("error", err),
			)
		}
		e.Reply <- event.Reply{Order: o, Err: err}
	default:
		slog.Warn("Unknown event type", slog.String("type", ev.GetType().String()))
	}

	s.metrics.RecordEvent(time.Since(start).Nanoseconds())
}

// Accept submits an accept command to the Run loop and waits for its outcome.
func (s *Simulator) Accept(ctx context.Context, id string) (domain.Order, error) {
	return s.submit(ctx, event.NewCommand(event.TypeAccept, id))
}

// Release submits a release command to the Run loop and waits for its outcome.
func (s *Simulator) Release(ctx context.Context, id string) (domain.Order, error) {
	return s.submit(ctx, event.NewCommand(event.TypeRelease, id))
}

func (s *Simulator) submit(ctx context.Context, cmd *event.CommandEvent) (domain.Order, error) {
	select {
	case s.inbox <- cmd:
	case <-ctx.Done():
		return domain.Order{}, ctx.Err()
	case <-s.done:
		return domain.Order{}, domain.ErrSimulatorStopped
	}

	select {
	case r := <-cmd.Reply:
		return r.Order, r.Err
	case <-ctx.Done():
		return domain.Order{}, ctx.Err()
	case <-s.done:
		return domain.Order{}, domain.ErrSimulatorStopped
	}
}

// DumpState writes the entire internal state to a file (for post-mortem).
// When Run recovers a panic, the handler's deferred Unlock has already run,
// so the read lock here is free to take.
func (s *Simulator) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	s.mu.RLock()
	defer s.mu.RUnlock()

	data := struct {
		LastSeq   uint64                  `json:"last_seq"`
		Version   uint64                  `json:"version"`
		ClockMs   int64                   `json:"clock_ms"`
		NewOrders []domain.OrderView      `json:"new_orders"`
		InEscrow  []domain.OrderView      `json:"in_escrow"`
		Completed []domain.OrderView      `json:"completed"`
		Index     map[string]domain.Stage `json:"index"`
		Pending   int                     `json:"pending_jobs"`
	}{
		LastSeq:   s.lastSeq,
		Version:   s.version,
		ClockMs:   s.sched.Now().Milliseconds(),
		NewOrders: orderViews(s.newOrders),
		InEscrow:  orderViews(s.inEscrow),
		Completed: orderViews(s.completed),
		Index:     s.index,
		Pending:   s.sched.Pending(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}

func orderViews(orders []domain.Order) []domain.OrderView {
	out := make([]domain.OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, domain.NewOrderView(o))
	}
	return out
}
