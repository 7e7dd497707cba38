package service

import (
	"context"
	"sync"

	"blip_sim/internal/domain"
)

// DashboardService caches the latest simulator snapshot for readers and fans
// state changes out to subscribers off the simulator goroutine.
type DashboardService struct {
	mu        sync.RWMutex
	latest    domain.Snapshot
	visible   int
	listeners []func(domain.Dashboard)
	updates   chan domain.Snapshot
}

// NewDashboardService creates a service rendering visible items per column.
func NewDashboardService(visible int) *DashboardService {
	return &DashboardService{
		visible: visible,
		updates: make(chan domain.Snapshot, 1), // latest wins
	}
}

// Publish stores snap and queues it for subscribers. It never blocks, so it is
// safe to call from the simulator's update callback.
func (s *DashboardService) Publish(snap domain.Snapshot) {
	s.mu.Lock()
	if snap.Version < s.latest.Version {
		s.mu.Unlock()
		return
	}
	s.latest = snap
	s.mu.Unlock()

	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		// Drop the stale queued snapshot and retry.
		select {
		case <-s.updates:
		default:
		}
	}
}

// Snapshot returns the latest full snapshot.
func (s *DashboardService) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Dashboard returns the sliced view of the latest snapshot.
func (s *DashboardService) Dashboard() domain.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest.Dashboard(s.visible)
}

// Subscribe registers fn to receive every processed update.
func (s *DashboardService) Subscribe(fn func(domain.Dashboard)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// StartUpdateProcessor starts a background goroutine delivering queued updates to subscribers.
func (s *DashboardService) StartUpdateProcessor(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-s.updates:
				s.ProcessUpdate(snap)
			}
		}
	}()
}

// ProcessUpdate renders snap and hands it to every subscriber.
func (s *DashboardService) ProcessUpdate(snap domain.Snapshot) {
	s.mu.RLock()
	listeners := make([]func(domain.Dashboard), len(s.listeners))
	copy(listeners, s.listeners)
	visible := s.visible
	s.mu.RUnlock()

	view := snap.Dashboard(visible)
	for _, fn := range listeners {
		fn(view)
	}
}
