package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/matst80/slask-browse/pkg/common"
	"github.com/matst80/slask-browse/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskbrowse_api_requests_total",
		Help: "Processed api requests by route",
	}, []string{"route"})
	hierarchyInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskbrowse_hierarchy_invalidations_total",
		Help: "Hierarchy invalidations applied to the held sessions",
	})
)

const defaultPollTimeout = 25 * time.Second

type WebServer struct {
	Sessions    *SessionStore
	Tracking    common.SessionTracker
	Invalidator Invalidator
	PollTimeout time.Duration
}

type ResultsResponse struct {
	Snapshot
	Query    string              `json:"query"`
	Order    types.OrderKey      `json:"order"`
	Semantic bool                `json:"semantic"`
	State    string              `json:"state"`
	Filters  []types.FilterEntry `json:"filters"`
}

type FiltersResponse struct {
	Filters       []types.FilterEntry `json:"filters"`
	ActiveFilters int                 `json:"activeFilters"`
}

func (ws *WebServer) handle(route string, fn func(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error) http.HandlerFunc {
	inner := common.JsonHandler(ws.Tracking, fn)
	return func(w http.ResponseWriter, r *http.Request) {
		apiRequests.WithLabelValues(route).Inc()
		inner(w, r)
	}
}

func (ws *WebServer) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/results", ws.handle("results", ws.Results))
	mux.HandleFunc("POST /api/filter", ws.handle("filter", ws.SetFilter))
	mux.HandleFunc("DELETE /api/filter", ws.handle("filter", ws.RemoveFilter))
	mux.HandleFunc("DELETE /api/filters", ws.handle("filters", ws.ClearFilters))
	mux.HandleFunc("POST /api/query", ws.handle("query", ws.SetQuery))
	mux.HandleFunc("POST /api/order", ws.handle("order", ws.SetOrder))
	mux.HandleFunc("POST /api/mode", ws.handle("mode", ws.SetMode))
	mux.HandleFunc("GET /api/hierarchy", ws.handle("hierarchy", ws.Hierarchy))
	mux.HandleFunc("GET /api/courses", ws.handle("courses", ws.Courses))
	mux.HandleFunc("POST /api/hierarchy/invalidate", ws.handle("invalidate", ws.Invalidate))
	mux.HandleFunc("OPTIONS /api/", common.RespondToOptions)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func resultsResponse(session *Session, snapshot Snapshot) ResultsResponse {
	b := session.Browser
	return ResultsResponse{
		Snapshot: snapshot,
		Query:    b.Query(),
		Order:    b.Order(),
		Semantic: b.Semantic(),
		State:    b.State().String(),
		Filters:  b.Entries(),
	}
}

func filtersResponse(session *Session) FiltersResponse {
	return FiltersResponse{
		Filters:       session.Browser.Entries(),
		ActiveFilters: session.Browser.ActiveCount(),
	}
}

// Results answers with the current results. With ?after=<version> it waits
// until results newer than that version are rendered or the poll times out.
func (ws *WebServer) Results(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	session := ws.Sessions.Get(sessionId)
	after := r.URL.Query().Get("after")
	if after == "" {
		return enc.Encode(resultsResponse(session, session.Results.Current()))
	}
	version, err := strconv.ParseUint(after, 10, 64)
	if err != nil {
		return common.BadRequest(fmt.Errorf("invalid version %q", after))
	}
	timeout := ws.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	return enc.Encode(resultsResponse(session, session.Results.Wait(ctx, version)))
}

func rangeOf(req *types.FilterRequest, defaults types.NumberRange) (float64, float64) {
	min, max := defaults.Min, defaults.Max
	if req.Min != nil {
		min = *req.Min
	}
	if req.Max != nil {
		max = *req.Max
	}
	return min, max
}

func (ws *WebServer) SetFilter(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	req, err := types.GetFilterRequest(r)
	if err != nil {
		return common.BadRequest(err)
	}
	session := ws.Sessions.Get(sessionId)
	switch req.Key {
	case "price":
		session.Browser.SetPriceRange(rangeOf(req, types.DefaultPriceRange))
	case "pages":
		session.Browser.SetPagesRange(rangeOf(req, types.DefaultPagesRange))
	default:
		key, ok := types.ParseFacetKey(req.Key)
		if !ok {
			return common.BadRequest(fmt.Errorf("unknown facet %q", req.Key))
		}
		spec, _ := types.LookupFacet(key)
		value, err := req.ToValue(spec)
		if err != nil {
			return common.BadRequest(err)
		}
		if err := session.Browser.SetFilter(key, value); err != nil {
			return common.BadRequest(err)
		}
	}
	return enc.Encode(filtersResponse(session))
}

func (ws *WebServer) RemoveFilter(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	name := r.URL.Query().Get("key")
	session := ws.Sessions.Get(sessionId)
	switch name {
	case "price":
		session.Browser.SetPriceRange(types.DefaultPriceRange.Min, types.DefaultPriceRange.Max)
	case "pages":
		session.Browser.SetPagesRange(types.DefaultPagesRange.Min, types.DefaultPagesRange.Max)
	default:
		key, ok := types.ParseFacetKey(name)
		if !ok {
			return common.BadRequest(fmt.Errorf("unknown facet %q", name))
		}
		session.Browser.RemoveFilter(key)
	}
	return enc.Encode(filtersResponse(session))
}

func (ws *WebServer) ClearFilters(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	session := ws.Sessions.Get(sessionId)
	session.Browser.ClearFilters()
	return enc.Encode(filtersResponse(session))
}

func (ws *WebServer) SetQuery(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	req, err := types.GetQueryRequest(r)
	if err != nil {
		return common.BadRequest(err)
	}
	var order types.OrderKey
	if req.Sort != "" {
		key, ok := types.ParseOrderKey(req.Sort)
		if !ok {
			return common.BadRequest(fmt.Errorf("unknown order %q", req.Sort))
		}
		order = key
	}
	session := ws.Sessions.Get(sessionId)
	if order != "" {
		session.Browser.SetOrder(order)
	}
	session.Browser.SetQuery(req.Query)
	w.WriteHeader(http.StatusAccepted)
	return enc.Encode(resultsResponse(session, session.Results.Current()))
}

func (ws *WebServer) SetOrder(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	req, err := types.GetQueryRequest(r)
	if err != nil {
		return common.BadRequest(err)
	}
	key, ok := types.ParseOrderKey(req.Sort)
	if !ok {
		return common.BadRequest(fmt.Errorf("unknown order %q", req.Sort))
	}
	session := ws.Sessions.Get(sessionId)
	session.Browser.SetOrder(key)
	return enc.Encode(resultsResponse(session, session.Results.Current()))
}

func (ws *WebServer) SetMode(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	req, err := types.GetModeRequest(r)
	if err != nil {
		return common.BadRequest(err)
	}
	session := ws.Sessions.Get(sessionId)
	session.Browser.SetSemantic(req.Semantic)
	return enc.Encode(map[string]bool{"semantic": session.Browser.Semantic()})
}

func (ws *WebServer) Hierarchy(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	session := ws.Sessions.Get(sessionId)
	return enc.Encode(session.Browser.Hierarchy(r.Context()))
}

func (ws *WebServer) Courses(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	session := ws.Sessions.Get(sessionId)
	return enc.Encode(session.Browser.Courses(r.Context()))
}

// InvalidateHierarchy drops the cached hierarchy of every held session.
func (ws *WebServer) InvalidateHierarchy() int {
	n := 0
	ws.Sessions.Each(func(s *Session) {
		s.Browser.InvalidateHierarchy()
		n++
	})
	hierarchyInvalidations.Inc()
	return n
}

func (ws *WebServer) Invalidate(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error {
	n := ws.InvalidateHierarchy()
	if ws.Invalidator != nil {
		if err := ws.Invalidator.Publish(); err != nil {
			log.Printf("failed to publish hierarchy invalidation: %v", err)
		}
	}
	return enc.Encode(map[string]int{"sessions": n})
}
