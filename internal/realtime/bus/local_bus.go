package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/kinship-backend/internal/domain/events"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

// localBus delivers in-process. It backs deployments without Redis and tests.
type localBus struct {
	log *logger.Logger

	mu       sync.RWMutex
	handlers []func(events.AwardEvent)
	closed   bool
}

func NewLocalBus(log *logger.Logger) Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &localBus{log: log.With("service", "LocalAwardBus")}
}

func (b *localBus) Publish(ctx context.Context, evt events.AwardEvent) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("award bus closed")
	}
	b.log.Debug("award event", "kind", evt.Kind, "user_id", evt.UserID)
	for _, h := range b.handlers {
		h(evt)
	}
	return nil
}

func (b *localBus) StartForwarder(ctx context.Context, onEvent func(evt events.AwardEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("award bus closed")
	}
	b.handlers = append(b.handlers, onEvent)
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
