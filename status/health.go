package status

import "sync/atomic"

// HealthSource is the read-only view of the application health flags.
type HealthSource interface {
	ErrorActive() bool
	WarningActive() bool
}

// Bits of the application health mask.
const (
	WarningBit uint32 = 0x08
	ErrorBit   uint32 = 0x10
	healthMask        = WarningBit | ErrorBit
)

// HealthBits is a process wide health bitmask. Components raise and clear
// bits from any goroutine, the resolver only reads them.
type HealthBits struct {
	bits atomic.Uint32
}

// Set raises the given bits. Bits outside the health mask are ignored.
func (h *HealthBits) Set(bit uint32) {
	h.bits.Or(bit & healthMask)
}

func (h *HealthBits) Clear(bit uint32) {
	h.bits.And(^bit)
}

// SetError raises or clears the error bit.
func (h *HealthBits) SetError(active bool) {
	if active {
		h.Set(ErrorBit)
	} else {
		h.Clear(ErrorBit)
	}
}

// SetWarning raises or clears the warning bit.
func (h *HealthBits) SetWarning(active bool) {
	if active {
		h.Set(WarningBit)
	} else {
		h.Clear(WarningBit)
	}
}

func (h *HealthBits) ErrorActive() bool {
	return h.bits.Load()&ErrorBit != 0
}

func (h *HealthBits) WarningActive() bool {
	return h.bits.Load()&WarningBit != 0
}
