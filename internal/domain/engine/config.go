package engine

import (
	"context"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

// Method selects the lot consumption order.
type Method string

const (
	// FIFO consumes the oldest purchase lots first.
	FIFO Method = "FIFO"
	// LIFO consumes the newest purchase lots first.
	LIFO Method = "LIFO"
)

// Valid reports whether the method is supported.
func (m Method) Valid() bool {
	return m == FIFO || m == LIFO
}

// Config is supplied once at engine construction and read-only afterwards.
// Keeping it explicit (no ambient lookup) lets FIFO and LIFO engines run
// side by side against the same stores.
type Config struct {
	// Method is the inventory ordering mode.
	Method Method
}

// DefaultConfig returns a FIFO configuration.
func DefaultConfig() Config {
	return Config{Method: FIFO}
}

// Validate implements basic config checking at construction time.
func (c Config) Validate(ctx context.Context) error {
	if !c.Method.Valid() {
		return apperror.NewValidation("inventory method must be FIFO or LIFO").
			WithDetail("field", "method").
			WithDetail("value", string(c.Method))
	}
	return nil
}

// Notifier receives low-stock signals after mutating operations.
// The default implementation does nothing; delivery channels belong to
// the surrounding application.
type Notifier interface {
	LowStock(ctx context.Context, productID, warehouseID id.ID, remaining types.Quantity)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// LowStock implements Notifier.
func (NopNotifier) LowStock(context.Context, id.ID, id.ID, types.Quantity) {}

// ThresholdFunc supplies the low-stock threshold for a product.
// A nil func disables low-stock checks entirely.
type ThresholdFunc func(ctx context.Context, productID id.ID) (types.Quantity, error)
