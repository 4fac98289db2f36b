package ws

import (
	"github.com/meetgrid/presence/internal/domain"
	"github.com/meetgrid/presence/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Broadcaster announces presence transitions to every open connection. The
// callers guarantee the exactly-once contract: Join reports only the 0→1
// transition and RemoveConnection only the drop to zero, so every invocation
// here corresponds to a real status change.
type Broadcaster struct {
	registry *Registry
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
}

func NewBroadcaster(registry *Registry, logger *zap.SugaredLogger, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger,
		metrics:  m,
	}
}

func (b *Broadcaster) Announce(userID string, status domain.PresenceStatus) {
	b.metrics.StatusChanges.WithLabelValues(string(status)).Inc()
	b.registry.BroadcastAll(NewUserStatus(userID, status))
	b.logger.Infow("presence change", "user", userID, "status", status)
}
