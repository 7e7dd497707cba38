package engine

import (
	"fmt"
	"log/slog"

	"blip_sim/internal/domain"
	"blip_sim/internal/strategy"
)

// maxIDAttempts bounds regeneration when a fresh id collides with a live one.
const maxIDAttempts = 3

func (s *Simulator) acceptLocked(id string) (domain.Order, error) {
	i, err := s.find(id, domain.StageNew, s.newOrders)
	if err != nil {
		return domain.Order{}, fmt.Errorf("accept: %w", err)
	}

	o := s.newOrders[i]
	s.newOrders = removeAt(s.newOrders, i)

	o.Stage = domain.StageEscrow
	o.Progress = s.settings.AcceptProgress
	s.inEscrow = append([]domain.Order{o}, s.inEscrow...)
	s.index[o.ID] = domain.StageEscrow
	s.metrics.RecordAccepted()

	s.showNotification("Order accepted", fmt.Sprintf("%s from %s locked in escrow", o.Amount, o.UserName))
	slog.Debug("Order accepted", slog.String("id", o.ID), slog.Int("progress", o.Progress))
	return o, nil
}

func (s *Simulator) releaseLocked(id string) (domain.Order, error) {
	i, err := s.find(id, domain.StageEscrow, s.inEscrow)
	if err != nil {
		return domain.Order{}, fmt.Errorf("release: %w", err)
	}

	o := s.inEscrow[i]
	s.inEscrow = removeAt(s.inEscrow, i)

	o.Stage = domain.StageCompleted
	s.complete(o, domain.PathReleased)
	s.metrics.RecordReleased()

	s.showNotification("Funds released", fmt.Sprintf("%s released to %s", o.Fiat, o.UserName))
	slog.Debug("Order released", slog.String("id", o.ID))
	return o, nil
}

// find returns the position of id in orders, which must be the column for want.
func (s *Simulator) find(id string, want domain.Stage, orders []domain.Order) (int, error) {
	got, ok := s.index[id]
	if !ok {
		return -1, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if got != want {
		return -1, &domain.StageError{OrderID: id, Want: want, Got: got}
	}
	for i := range orders {
		if orders[i].ID == id {
			return i, nil
		}
	}
	// Index and columns disagree; treat as a programming defect.
	panic(fmt.Sprintf("INDEX_DRIFT: %s indexed in %s but missing from column", id, want))
}

func (s *Simulator) admissionTick() {
	if len(s.newOrders) >= s.settings.NewQueueCap {
		return
	}

	var o domain.Order
	for attempt := 0; ; attempt++ {
		o = s.gen.Generate(s.simTime())
		if _, taken := s.index[o.ID]; !taken {
			break
		}
		if attempt+1 >= maxIDAttempts {
			slog.Warn("Skipping admission after id collisions", slog.String("id", o.ID))
			return
		}
	}

	s.newOrders = append([]domain.Order{o}, s.newOrders...)
	s.index[o.ID] = domain.StageNew
	s.metrics.RecordGenerated()

	s.showNotification("New order received", fmt.Sprintf("%s wants to sell %s", o.UserName, o.Amount))
}

func (s *Simulator) autoMatchTick() {
	if s.matcher == nil || s.matcher.Decide(len(s.newOrders)) != strategy.Match {
		return
	}
	n := len(s.newOrders)
	if n == 0 {
		return
	}

	o := s.newOrders[n-1]
	s.newOrders = s.newOrders[:n-1]

	o.Stage = domain.StageEscrow
	o.Progress = s.settings.AutoMatchProgress
	s.inEscrow = append(s.inEscrow, o)
	s.index[o.ID] = domain.StageEscrow
	s.metrics.RecordAutoMatched()

	s.showNotification("Merchant matched", fmt.Sprintf("%s auto-matched, funds in escrow", o.Amount))
}

func (s *Simulator) progressTick() {
	if len(s.inEscrow) == 0 {
		return
	}

	remaining := s.inEscrow[:0]
	var settled []domain.Order
	for _, o := range s.inEscrow {
		if o.Progress < domain.ProgressComplete {
			o.Progress += s.settings.ProgressStep
		}
		if o.Progress >= domain.ProgressComplete {
			o.Progress = domain.ProgressComplete
			o.Stage = domain.StageCompleted
			o.Time = domain.TimeJustSettled
			settled = append(settled, o)
			continue
		}
		remaining = append(remaining, o)
	}
	s.inEscrow = remaining

	for _, o := range settled {
		s.complete(o, domain.PathProgressed)
	}
	if len(settled) > 0 {
		first := settled[0]
		s.showNotification("Settlement complete", fmt.Sprintf("%s paid out to %s", first.Fiat, first.UserName))
	}
}

// complete appends o to Completed, records it, and evicts past capacity.
func (s *Simulator) complete(o domain.Order, path string) {
	s.completed = append(s.completed, o)
	s.index[o.ID] = domain.StageCompleted
	s.metrics.RecordSettled()

	if s.ledger != nil {
		if err := s.ledger.RecordSettlement(domain.NewSettledOrder(o, path, s.sched.Now(), s.simTime())); err != nil {
			s.metrics.RecordLedgerError()
			slog.Error("Failed to record settlement", slog.String("id", o.ID), slog.Any("error", err))
		}
	}

	if limit := s.settings.CompletedCapacity; limit > 0 {
		for len(s.completed) > limit {
			evicted := s.completed[0]
			s.completed = removeAt(s.completed, 0)
			delete(s.index, evicted.ID)
			s.metrics.RecordEvicted()
		}
	}
}

// showNotification replaces the toast. Only the hide job scheduled by the
// latest call clears it.
func (s *Simulator) showNotification(title, desc string) {
	s.notification = domain.Notification{Visible: true, Title: title, Desc: desc}
	s.notifyGen++
	s.sched.After(JobHideNotification, s.settings.NotificationTTL, s.notifyGen)
	s.metrics.RecordNotification()
}

func removeAt(orders []domain.Order, i int) []domain.Order {
	out := make([]domain.Order, 0, len(orders)-1)
	out = append(out, orders[:i]...)
	return append(out, orders[i+1:]...)
}
