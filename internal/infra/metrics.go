package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	eventsProcessed    atomic.Uint64
	ordersGenerated    atomic.Uint64
	ordersAccepted     atomic.Uint64
	ordersAutoMatched  atomic.Uint64
	ordersSettled      atomic.Uint64
	ordersReleased     atomic.Uint64
	ordersEvicted      atomic.Uint64
	notificationsShown atomic.Uint64
	commandsRejected   atomic.Uint64
	ledgerErrors       atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	wsClients atomic.Int32
}

// GlobalMetrics is the process-wide metrics instance.
var GlobalMetrics = &Metrics{}

// RecordEvent records an inbox event processing with latency.
func (m *Metrics) RecordEvent(latencyNs int64) {
	m.eventsProcessed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

func (m *Metrics) RecordGenerated()    { m.ordersGenerated.Add(1) }
func (m *Metrics) RecordAccepted()     { m.ordersAccepted.Add(1) }
func (m *Metrics) RecordAutoMatched()  { m.ordersAutoMatched.Add(1) }
func (m *Metrics) RecordSettled()      { m.ordersSettled.Add(1) }
func (m *Metrics) RecordReleased()     { m.ordersReleased.Add(1) }
func (m *Metrics) RecordEvicted()      { m.ordersEvicted.Add(1) }
func (m *Metrics) RecordNotification() { m.notificationsShown.Add(1) }
func (m *Metrics) RecordRejected()     { m.commandsRejected.Add(1) }
func (m *Metrics) RecordLedgerError()  { m.ledgerErrors.Add(1) }

// IncrementClients increments connected websocket clients by 1.
func (m *Metrics) IncrementClients() {
	m.wsClients.Add(1)
}

// DecrementClients decrements connected websocket clients by 1.
func (m *Metrics) DecrementClients() {
	m.wsClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	EventsProcessed    uint64    `json:"events_processed"`
	OrdersGenerated    uint64    `json:"orders_generated"`
	OrdersAccepted     uint64    `json:"orders_accepted"`
	OrdersAutoMatched  uint64    `json:"orders_auto_matched"`
	OrdersSettled      uint64    `json:"orders_settled"`
	OrdersReleased     uint64    `json:"orders_released"`
	OrdersEvicted      uint64    `json:"orders_evicted"`
	NotificationsShown uint64    `json:"notifications_shown"`
	CommandsRejected   uint64    `json:"commands_rejected"`
	LedgerErrors       uint64    `json:"ledger_errors"`
	AvgLatencyNs       int64     `json:"avg_latency_ns"`
	WSClients          int32     `json:"ws_clients"`
	Timestamp          time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		EventsProcessed:    m.eventsProcessed.Load(),
		OrdersGenerated:    m.ordersGenerated.Load(),
		OrdersAccepted:     m.ordersAccepted.Load(),
		OrdersAutoMatched:  m.ordersAutoMatched.Load(),
		OrdersSettled:      m.ordersSettled.Load(),
		OrdersReleased:     m.ordersReleased.Load(),
		OrdersEvicted:      m.ordersEvicted.Load(),
		NotificationsShown: m.notificationsShown.Load(),
		CommandsRejected:   m.commandsRejected.Load(),
		LedgerErrors:       m.ledgerErrors.Load(),
		AvgLatencyNs:       avgLatency,
		WSClients:          m.wsClients.Load(),
		Timestamp:          time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.eventsProcessed.Store(0)
	m.ordersGenerated.Store(0)
	m.ordersAccepted.Store(0)
	m.ordersAutoMatched.Store(0)
	m.ordersSettled.Store(0)
	m.ordersReleased.Store(0)
	m.ordersEvicted.Store(0)
	m.notificationsShown.Store(0)
	m.commandsRejected.Store(0)
	m.ledgerErrors.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.wsClients.Store(0)
}
