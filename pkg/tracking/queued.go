package tracking

import (
	"time"

	"github.com/matst80/slask-browse/pkg/common"
	"github.com/matst80/slask-browse/pkg/types"
)

// QueuedTracking moves event delivery off the search path. Events are
// handed to the inner tracker from a background queue.
type QueuedTracking struct {
	inner types.Tracking
	queue *common.QueueHandler[types.SearchEvent]
}

func NewQueuedTracking(inner types.Tracking, interval time.Duration) *QueuedTracking {
	return &QueuedTracking{
		inner: inner,
		queue: common.NewQueueHandler(func(events []types.SearchEvent) {
			for _, event := range events {
				inner.TrackSearch(event)
			}
		}, 50, interval),
	}
}

func (q *QueuedTracking) TrackSearch(event types.SearchEvent) {
	q.queue.Add(event)
}

// Close delivers queued events before closing the inner tracker.
func (q *QueuedTracking) Close() error {
	q.queue.Close()
	return q.inner.Close()
}
