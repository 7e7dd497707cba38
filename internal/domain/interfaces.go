package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// SettlementLedger records orders once they reach the terminal stage.
type SettlementLedger interface {
	RecordSettlement(rec *SettledOrder) error
}

// RateProvider supplies the live USDT -> fiat base rate. A zero rate means unknown.
type RateProvider interface {
	Start(ctx context.Context) error
	GetRate() decimal.Decimal
}
