package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flag not found")

// KillSwitch disables swap execution across the service when set to true.
// Quotes keep flowing so the UI stays informative; only Execute is gated.
const KillSwitch = "swap.disabled"

type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
