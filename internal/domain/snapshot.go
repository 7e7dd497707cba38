package domain

import "time"

// OrderView is the JSON shape of an order handed to renderers.
// Progress is omitted for New orders.
type OrderView struct {
	Order
	Progress *int `json:"progress,omitempty"`
}

// NewOrderView builds the render view of an order.
func NewOrderView(o Order) OrderView {
	return OrderView{Order: o, Progress: o.DisplayProgress()}
}

// Snapshot is a point-in-time copy of the whole simulator state.
type Snapshot struct {
	NewOrders    []Order       `json:"new_orders"`
	InEscrow     []Order       `json:"in_escrow"`
	Completed    []Order       `json:"completed"`
	Notification Notification  `json:"notification"`
	Clock        time.Duration `json:"clock_ns"` // Simulated time since start
	Version      uint64        `json:"version"`  // Increments on every state change
}

// Dashboard is the sliced view the marketing widget actually renders.
type Dashboard struct {
	NewOrders      []OrderView  `json:"new_orders"`
	InEscrow       []OrderView  `json:"in_escrow"`
	LastCompleted  *OrderView   `json:"last_completed,omitempty"`
	Notification   Notification `json:"notification"`
	NewCount       int          `json:"new_count"`
	EscrowCount    int          `json:"escrow_count"`
	CompletedCount int          `json:"completed_count"`
	Version        uint64       `json:"version"`
}

// Dashboard slices New and Escrow to at most visible entries.
func (s *Snapshot) Dashboard(visible int) Dashboard {
	d := Dashboard{
		NewOrders:      views(s.NewOrders, visible),
		InEscrow:       views(s.InEscrow, visible),
		Notification:   s.Notification,
		NewCount:       len(s.NewOrders),
		EscrowCount:    len(s.InEscrow),
		CompletedCount: len(s.Completed),
		Version:        s.Version,
	}
	if n := len(s.Completed); n > 0 {
		last := NewOrderView(s.Completed[n-1])
		d.LastCompleted = &last
	}
	return d
}

// Locate returns the stage holding id, if any.
func (s *Snapshot) Locate(id string) (Stage, bool) {
	for _, set := range []struct {
		stage  Stage
		orders []Order
	}{
		{StageNew, s.NewOrders},
		{StageEscrow, s.InEscrow},
		{StageCompleted, s.Completed},
	} {
		for i := range set.orders {
			if set.orders[i].ID == id {
				return set.stage, true
			}
		}
	}
	return "", false
}

func views(orders []Order, limit int) []OrderView {
	if limit < 0 || limit > len(orders) {
		limit = len(orders)
	}
	out := make([]OrderView, 0, limit)
	for _, o := range orders[:limit] {
		out = append(out, NewOrderView(o))
	}
	return out
}
