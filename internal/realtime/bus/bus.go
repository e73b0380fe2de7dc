package bus

import (
	"context"

	"github.com/yungbote/kinship-backend/internal/domain/events"
)

// Bus carries award events to whatever delivers them to users.
type Bus interface {
	Publish(ctx context.Context, evt events.AwardEvent) error
	StartForwarder(ctx context.Context, onEvent func(evt events.AwardEvent)) error
	Close() error
}
