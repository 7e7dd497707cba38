package domain

import (
	"time"
)

// SettledOrder is the ledger row written when an order reaches Completed.
// Seed ids repeat on every start, so OrderID is not unique across runs.
type SettledOrder struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     string    `gorm:"index" json:"order_id"`
	Amount      string    `json:"amount"`
	Rate        string    `json:"rate"`
	Fiat        string    `json:"fiat"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	Priority    string    `json:"priority" gorm:"index"`
	Path        string    `json:"path"` // "released" or "progressed"
	SimClock    int64     `json:"sim_clock_ms"`
	SettledAt   time.Time `json:"settled_at" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}

// Settlement paths recorded in SettledOrder.Path.
const (
	PathReleased   = "released"
	PathProgressed = "progressed"
)

// NewSettledOrder copies the display fields of a completed order.
func NewSettledOrder(o Order, path string, clock time.Duration, at time.Time) *SettledOrder {
	return &SettledOrder{
		OrderID:     o.ID,
		Amount:      o.Amount,
		Rate:        o.Rate,
		Fiat:        o.Fiat,
		UserName:    o.UserName,
		Description: o.Description,
		Priority:    o.Priority,
		Path:        path,
		SimClock:    clock.Milliseconds(),
		SettledAt:   at,
	}
}
