package engine

import (
	"log/slog"
	"sync"
	"time"

	"blip_sim/internal/domain"
	"blip_sim/internal/event"
	"blip_sim/internal/generator"
	"blip_sim/internal/infra"
	"blip_sim/internal/strategy"
)

// Settings holds the timing and sizing knobs of the pipeline.
type Settings struct {
	AdmissionInterval time.Duration
	AutoMatchInterval time.Duration
	ProgressInterval  time.Duration
	NotificationTTL   time.Duration

	NewQueueCap       int // Admission adds only while New is shorter than this
	ProgressStep      int
	AcceptProgress    int
	AutoMatchProgress int
	CompletedCapacity int // 0 = unbounded

	Speed          float64       // Simulated seconds per real second
	TickResolution time.Duration // Real-time granularity of the clock loop
	InboxSize      int
}

// DefaultSettings mirrors the marketing dashboard widget.
func DefaultSettings() Settings {
	return Settings{
		AdmissionInterval: 8 * time.Second,
		AutoMatchInterval: 10 * time.Second,
		ProgressInterval:  2 * time.Second,
		NotificationTTL:   2 * time.Second,
		NewQueueCap:       3,
		ProgressStep:      20,
		AcceptProgress:    60,
		AutoMatchProgress: 40,
		CompletedCapacity: 0,
		Speed:             1.0,
		TickResolution:    100 * time.Millisecond,
		InboxSize:         256,
	}
}

// Simulator owns the three order columns and the notification toast.
// All mutation happens under mu; the Run loop is the only writer in production.
type Simulator struct {
	settings Settings
	gen      *generator.Generator
	matcher  strategy.AutoMatcher
	sched    *Scheduler

	newOrders []domain.Order
	inEscrow  []domain.Order
	completed []domain.Order
	index     map[string]domain.Stage

	notification domain.Notification
	notifyGen    uint64

	epoch   time.Time
	version uint64
	lastSeq uint64

	inbox chan event.Event
	done  chan struct{}

	ledger   domain.SettlementLedger
	metrics  *infra.Metrics
	onUpdate func(domain.Snapshot)

	mu sync.RWMutex
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLedger records every settled order.
func WithLedger(l domain.SettlementLedger) Option {
	return func(s *Simulator) { s.ledger = l }
}

// WithMetrics routes counters to m instead of a private instance.
func WithMetrics(m *infra.Metrics) Option {
	return func(s *Simulator) { s.metrics = m }
}

// WithOnUpdate registers the state-change boundary callback.
// It runs with the simulator lock held and must not call back into the simulator.
func WithOnUpdate(fn func(domain.Snapshot)) Option {
	return func(s *Simulator) { s.onUpdate = fn }
}

// WithEpoch fixes the wall-clock instant that simulated time zero maps to.
func WithEpoch(t time.Time) Option {
	return func(s *Simulator) { s.epoch = t }
}

// NewSimulator mounts the pipeline: the seed orders go into New and the three
// interval transitions are scheduled.
func NewSimulator(settings Settings, gen *generator.Generator, matcher strategy.AutoMatcher, opts ...Option) *Simulator {
	if settings.InboxSize <= 0 {
		settings.InboxSize = DefaultSettings().InboxSize
	}

	s := &Simulator{
		settings: settings,
		gen:      gen,
		matcher:  matcher,
		sched:    NewScheduler(),
		index:    make(map[string]domain.Stage),
		epoch:    time.Now(),
		inbox:    make(chan event.Event, settings.InboxSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = &infra.Metrics{}
	}

	for _, o := range gen.SeedOrders() {
		s.newOrders = append(s.newOrders, o)
		s.index[o.ID] = domain.StageNew
	}

	s.sched.Every(JobProgress, settings.ProgressInterval)
	s.sched.Every(JobAutoMatch, settings.AutoMatchInterval)
	s.sched.Every(JobAdmission, settings.AdmissionInterval)

	return s
}

// Settings returns the configuration the simulator was built with.
func (s *Simulator) Settings() Settings {
	return s.settings
}

// Metrics returns the counters the simulator writes to.
func (s *Simulator) Metrics() *infra.Metrics {
	return s.metrics
}

// AcceptOrder moves id from New to the top of Escrow at the accept progress.
// It fails without touching state when id is not in New.
func (s *Simulator) AcceptOrder(id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.acceptLocked(id)
	if err != nil {
		s.metrics.RecordRejected()
		return domain.Order{}, err
	}
	s.publishLocked()
	return o, nil
}

// ReleaseOrder moves id from Escrow to the end of Completed.
// It fails without touching state when id is not in Escrow.
func (s *Simulator) ReleaseOrder(id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.releaseLocked(id)
	if err != nil {
		s.metrics.RecordRejected()
		return domain.Order{}, err
	}
	s.publishLocked()
	return o, nil
}

// Advance moves the simulated clock forward by d, applying every scheduled
// transition that falls inside the window.
func (s *Simulator) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fired := s.sched.Advance(d, s.fire); fired > 0 {
		s.publishLocked()
	}
}

// Clock returns the current simulated time.
func (s *Simulator) Clock() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sched.Now()
}

// Snapshot returns a deep copy of the current state (external read).
func (s *Simulator) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		NewOrders:    cloneOrders(s.newOrders),
		InEscrow:     cloneOrders(s.inEscrow),
		Completed:    cloneOrders(s.completed),
		Notification: s.notification,
		Clock:        s.sched.Now(),
		Version:      s.version,
	}
}

func (s *Simulator) publishLocked() {
	s.version++
	if s.onUpdate != nil {
		s.onUpdate(s.snapshotLocked())
	}
}

// simTime maps the simulated clock onto wall-clock time.
func (s *Simulator) simTime() time.Time {
	return s.epoch.Add(s.sched.Now())
}

func (s *Simulator) fire(job Job) {
	switch job.Kind {
	case JobProgress:
		s.progressTick()
	case JobAutoMatch:
		s.autoMatchTick()
	case JobAdmission:
		s.admissionTick()
	case JobHideNotification:
		if job.Gen == s.notifyGen {
			s.notification.Visible = false
		}
	default:
		slog.Warn("Unknown job kind", slog.String("kind", job.Kind.String()))
	}
}

func cloneOrders(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, len(orders))
	copy(out, orders)
	return out
}
