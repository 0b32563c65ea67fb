package bus

import (
	"fmt"

	"github.com/openrecon/kite/internal/domain"
)

// New creates a new event bus based on configuration.
// Standalone tier: in-process channel bus. Distributed tier: NATS.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
