package tracking

import (
	"log"
	"net/http"

	"github.com/matst80/slask-browse/pkg/types"
)

// SessionTracking is implemented by trackers that also record new sessions.
type SessionTracking interface {
	types.Tracking
	TrackSession(instanceId string, r *http.Request)
}

// LogTracking writes search events to the log. Used when no broker is
// configured.
type LogTracking struct{}

func (LogTracking) TrackSearch(event types.SearchEvent) {
	log.Printf("[%s] %s search %q: %d results (downgraded: %v)", event.InstanceId, event.Endpoint, event.Query, event.Results, event.Downgraded)
}

func (LogTracking) TrackSession(instanceId string, r *http.Request) {
	log.Printf("[%s] new session from %s", instanceId, clientIp(r))
}

func (LogTracking) Close() error {
	return nil
}
