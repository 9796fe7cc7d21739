// Package catalog maintains an always-current menu snapshot. The
// storefront treats every catalog change as a full replacement, never a
// diff: a change notification triggers a complete reload.
package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"storefront-system/internal/logger"
	"storefront-system/internal/messaging"
)

// UpdateEvent is the payload of a catalog change notification. Its
// contents are informational only; any delivery triggers a full reload.
type UpdateEvent struct {
	Kind      string `json:"kind,omitempty"`
	ChangedID string `json:"changed_id,omitempty"`
}

// Service holds the current snapshot and refreshes it on demand.
type Service struct {
	store   *Store
	logger  *logger.Logger
	current atomic.Pointer[Snapshot]
}

// NewService creates a catalog service. Call Reload before serving.
func NewService(store *Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
	}
}

// Current returns the latest snapshot, or nil before the first load.
func (s *Service) Current() *Snapshot {
	return s.current.Load()
}

// Reload replaces the snapshot with a fresh load. On failure the
// previous snapshot stays in place.
func (s *Service) Reload(ctx context.Context) error {
	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}

	s.current.Store(snapshot)
	s.logger.Info("catalog_reloaded", "Catalog snapshot replaced", "", map[string]interface{}{
		"categories": len(snapshot.Categories),
		"items":      len(snapshot.Items),
	})
	return nil
}

// HandleUpdate is the messaging handler for catalog change deliveries.
// A reload failure is returned so the delivery is requeued and the
// stale-but-consistent previous snapshot keeps serving.
func (s *Service) HandleUpdate(ctx context.Context, body []byte) error {
	var event UpdateEvent
	if err := messaging.ParseMessage(body, &event); err != nil {
		s.logger.Error("catalog_event_invalid", "Ignoring malformed catalog event", "", err, nil)
		return nil
	}

	s.logger.Debug("catalog_event_received", "Catalog change notification", "", map[string]interface{}{
		"kind":       event.Kind,
		"changed_id": event.ChangedID,
	})

	return s.Reload(ctx)
}

// Subscribe consumes the catalog updates queue until ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context, consumer *messaging.Consumer) error {
	return consumer.StartConsuming(ctx, s.HandleUpdate)
}
