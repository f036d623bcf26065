package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinHorizon     = 1
	MaxHorizon     = 365
	DefaultHorizon = MinHorizon
)

var ErrHorizonOutOfRange = fmt.Errorf("horizon must be within [%d, %d]", MinHorizon, MaxHorizon)

// Horizon is the number of future periods to forecast
type Horizon int

// NewHorizon rejects values outside of [MinHorizon, MaxHorizon]
func NewHorizon(n int) (Horizon, error) {
	if n < MinHorizon || n > MaxHorizon {
		return 0, fmt.Errorf("got %d, %w", n, ErrHorizonOutOfRange)
	}
	return Horizon(n), nil
}

// ClampHorizon bounds n to [MinHorizon, MaxHorizon]
func ClampHorizon(n int) Horizon {
	return Horizon(max(MinHorizon, min(MaxHorizon, n)))
}

// ParseHorizon reads a form value falling back to the default when empty or not an integer
func ParseHorizon(s string) Horizon {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultHorizon
	}
	return ClampHorizon(n)
}

func (h Horizon) Validate() error {
	_, err := NewHorizon(int(h))
	return err
}
