package usecase

import (
	"context"
	"time"

	"github.com/NxTech4021/dl-backend-sub000/internal/domain/event"
	"github.com/NxTech4021/dl-backend-sub000/internal/platform/logging"
)

// EventDispatcher delivers recorded domain events to the notification sink
// after the owning transaction has committed. A failed delivery is logged and
// dropped; business outcomes never depend on it.
type EventDispatcher struct {
	notifier Notifier
	logger   *logging.Logger
}

func NewEventDispatcher(notifier Notifier, logger *logging.Logger) *EventDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &EventDispatcher{notifier: notifier, logger: logger}
}

func (d *EventDispatcher) Dispatch(ctx context.Context, events []event.Event) {
	if d == nil || d.notifier == nil {
		return
	}
	for _, ev := range events {
		if len(ev.UserIDs) == 0 {
			continue
		}
		if err := d.notifier.Notify(ctx, ev.UserIDs, ev.Kind, ev.Payload); err != nil {
			d.logger.WarnContext(ctx, "event delivery failed",
				"kind", ev.Kind, "match_id", ev.MatchID, "error", err)
		}
	}
}

// eventRecorder accumulates events during one engine operation. Services
// record while mutating and hand the batch to the dispatcher only after the
// transaction commits.
type eventRecorder struct {
	now    func() time.Time
	events []event.Event
}

func newEventRecorder(now func() time.Time) *eventRecorder {
	if now == nil {
		now = time.Now
	}
	return &eventRecorder{now: now}
}

func (r *eventRecorder) record(kind, matchID string, userIDs []string, payload map[string]any) {
	r.events = append(r.events, event.Event{
		Kind:       kind,
		MatchID:    matchID,
		UserIDs:    userIDs,
		Payload:    payload,
		OccurredAt: r.now(),
	})
}
