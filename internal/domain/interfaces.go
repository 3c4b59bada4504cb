package domain

import (
	"context"
	"time"
)

// PriceSource supplies a price for a symbol on a given day. ok is
// false when no price exists for that day - a non-fatal, non-retryable
// answer. A non-nil error signals a transport failure (typically a
// *TransportError) and may be retried by the caller. Implementations
// may block on the network; they must honour ctx cancellation.
type PriceSource interface {
	Price(ctx context.Context, symbol string, day time.Time) (price float64, ok bool, err error)
}

// SectorLookup maps a symbol to a sector category. Unknown symbols map
// to "other".
type SectorLookup interface {
	Sector(symbol string) string
}

// BetaLookup maps a symbol to a market beta. Unknown symbols map to 1.0.
type BetaLookup interface {
	Beta(symbol string) float64
}

// PriceFunc adapts a plain function to the PriceSource interface.
type PriceFunc func(ctx context.Context, symbol string, day time.Time) (float64, bool, error)

// Price implements PriceSource.
func (f PriceFunc) Price(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
	return f(ctx, symbol, day)
}
