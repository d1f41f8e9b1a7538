package dispatch

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"github.com/matst80/slask-browse/pkg/query"
	"github.com/matst80/slask-browse/pkg/transport"
	"github.com/matst80/slask-browse/pkg/types"
)

type State uint8

const (
	Idle State = iota
	Debouncing
	Fetching
	Applying
	Superseded
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	case Applying:
		return "applying"
	case Superseded:
		return "superseded"
	}
	return "idle"
}

type Config struct {
	TextDebounce   time.Duration
	FilterDebounce time.Duration
	FetchTimeout   time.Duration
	MinQueryLength int
	Semantic       bool
}

func DefaultConfig() Config {
	return Config{
		TextDebounce:   300 * time.Millisecond,
		FilterDebounce: 500 * time.Millisecond,
		FetchTimeout:   10 * time.Second,
		MinQueryLength: 2,
	}
}

// FilterSource is the filter state the dispatcher composes from.
type FilterSource interface {
	Snapshot() types.Filters
	ActiveCount() int
}

type Orderer interface {
	Order(items []types.ResultItem, key types.OrderKey) []types.ResultItem
}

// ModeStore persists the search mode after a downgrade.
type ModeStore interface {
	SaveSearchMode(semantic bool) error
}

type Options struct {
	InstanceId string
	Transport  types.SearchTransport
	Filters    FilterSource
	Renderer   types.Renderer
	Orderer    Orderer
	Modes      ModeStore
	Tracking   types.Tracking
	Clock      clock.Clock
}

// Dispatcher decides when and where to search for one browsing instance.
// Every dispatch gets a new generation; only the newest generation may
// change results.
type Dispatcher struct {
	mu         sync.Mutex
	opts       Options
	config     Config
	clock      clock.Clock
	state      State
	text       string
	order      types.OrderKey
	semantic   bool
	timer      *clock.Timer
	pending    uint64
	// filtersPending is set while the timer carries an unapplied filter change.
	filtersPending bool
	generation uint64
	cancel     context.CancelFunc
	collection []types.ResultItem
	filtered   []types.ResultItem
	hasResults bool
	closed     bool
}

func NewDispatcher(opts Options, config Config) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	defaults := DefaultConfig()
	if config.TextDebounce <= 0 {
		config.TextDebounce = defaults.TextDebounce
	}
	if config.FilterDebounce <= 0 {
		config.FilterDebounce = defaults.FilterDebounce
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = defaults.FetchTimeout
	}
	if config.MinQueryLength <= 0 {
		config.MinQueryLength = defaults.MinQueryLength
	}
	return &Dispatcher{
		opts:     opts,
		config:   config,
		clock:    opts.Clock,
		order:    types.OrderRelevance,
		semantic: config.Semantic,
	}
}

// QueryChanged schedules a search for text after the text debounce. Text
// shorter than the minimum length never searches: it drops the previous text
// and a pending text-only search, leaving the shown results as they are.
func (d *Dispatcher) QueryChanged(text string) {
	text = strings.TrimSpace(text)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if text != "" && utf8.RuneCountInString(text) < d.config.MinQueryLength {
		ignoredQueries.Inc()
		d.text = ""
		if d.timer != nil && !d.filtersPending {
			d.stopTimerLocked()
			d.state = Idle
			if d.cancel != nil {
				d.state = Fetching
			}
		}
		return
	}
	d.text = text
	filtersPending := d.filtersPending
	d.scheduleLocked(d.config.TextDebounce)
	d.filtersPending = filtersPending
}

func (d *Dispatcher) FiltersChanged() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.scheduleLocked(d.config.FilterDebounce)
	d.filtersPending = true
}

// Refresh dispatches immediately, dropping any pending debounce.
func (d *Dispatcher) Refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopTimerLocked()
	d.dispatchLocked()
}

// OrderChanged re-orders the current results without searching again.
func (d *Dispatcher) OrderChanged(key types.OrderKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.order = key
	if d.closed || !d.hasResults {
		return
	}
	d.renderLocked()
}

// SetCollection hands in a pre-fetched local collection. When the current
// selection needs no remote search it is applied right away.
func (d *Dispatcher) SetCollection(items []types.ResultItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.collection = slices.Clone(items)
	if d.collection == nil {
		d.collection = []types.ResultItem{}
	}
	if d.closed {
		return
	}
	comp := query.Compose(d.opts.Filters.Snapshot(), d.text)
	if !comp.UseRemoteSearch {
		d.stopTimerLocked()
		d.generation++
		d.cancelLocked()
		d.applyLocked(d.collection, comp)
	}
}

func (d *Dispatcher) SetSemantic(semantic bool) {
	d.mu.Lock()
	d.semantic = semantic
	d.mu.Unlock()
	d.persistMode(semantic)
}

func (d *Dispatcher) Semantic() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.semantic
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *Dispatcher) Order() types.OrderKey {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order
}

// Close stops pending timers and abandons in-flight searches.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopTimerLocked()
	d.generation++
	d.cancelLocked()
	d.state = Idle
}

func (d *Dispatcher) persistMode(semantic bool) {
	if d.opts.Modes == nil {
		return
	}
	if err := d.opts.Modes.SaveSearchMode(semantic); err != nil {
		log.Printf("[%s] failed to persist search mode: %v", d.opts.InstanceId, err)
	}
}

func (d *Dispatcher) stopTimerLocked() {
	d.pending++
	d.filtersPending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Dispatcher) cancelLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Dispatcher) scheduleLocked(delay time.Duration) {
	d.stopTimerLocked()
	seq := d.pending
	d.state = Debouncing
	d.timer = d.clock.AfterFunc(delay, func() {
		d.fire(seq)
	})
}

func (d *Dispatcher) fire(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || seq != d.pending {
		return
	}
	d.timer = nil
	d.filtersPending = false
	d.dispatchLocked()
}

func (d *Dispatcher) dispatchLocked() {
	comp := query.Compose(d.opts.Filters.Snapshot(), d.text)
	d.generation++
	d.cancelLocked()
	gen := d.generation

	if !comp.UseRemoteSearch && d.collection != nil {
		localDispatches.Inc()
		d.applyLocked(d.collection, comp)
		return
	}

	r := &request{
		generation:     gen,
		composition:    comp,
		kind:           types.StandardSearch,
		loadCollection: !comp.UseRemoteSearch,
	}
	if comp.UseRemoteSearch && d.semantic && comp.Text != "" {
		r.kind = types.SemanticSearch
	}
	ctx, cancel := d.clock.WithTimeout(context.Background(), d.config.FetchTimeout)
	d.cancel = cancel
	d.state = Fetching
	go d.fetch(ctx, cancel, r)
}

type request struct {
	generation     uint64
	composition    *query.Composition
	kind           types.EndpointKind
	loadCollection bool
	downgraded     bool
}

func (r *request) params() map[string]string {
	if r.loadCollection {
		return map[string]string{}
	}
	return r.composition.Params
}

func (d *Dispatcher) fetch(ctx context.Context, cancel context.CancelFunc, r *request) {
	start := d.clock.Now()
	page, err := d.opts.Transport.Search(ctx, r.kind, r.params())
	cancel()

	if err != nil && r.kind == types.SemanticSearch && transport.IsSemanticUnavailable(err) {
		ctx, cancel, ok := d.downgrade(r, err)
		if !ok {
			return
		}
		page, err = d.opts.Transport.Search(ctx, r.kind, r.params())
		cancel()
	}
	searchDuration.WithLabelValues(r.kind.String()).Observe(d.clock.Since(start).Seconds())
	d.complete(r, page, err)
}

// downgrade switches the instance to standard search and prepares the
// single retry. It reports false when the request was superseded meanwhile.
func (d *Dispatcher) downgrade(r *request, cause error) (context.Context, context.CancelFunc, bool) {
	d.mu.Lock()
	if r.generation != d.generation {
		d.mu.Unlock()
		supersededResponses.Inc()
		return nil, nil, false
	}
	log.Printf("[%s] semantic search failed, retrying with standard search: %v", d.opts.InstanceId, cause)
	downgrades.Inc()
	d.semantic = false
	r.kind = types.StandardSearch
	r.downgraded = true
	ctx, cancel := d.clock.WithTimeout(context.Background(), d.config.FetchTimeout)
	d.cancel = cancel
	d.mu.Unlock()

	d.persistMode(false)
	return ctx, cancel, true
}

func (d *Dispatcher) complete(r *request, page *types.ResultPage, err error) {
	d.mu.Lock()
	if r.generation != d.generation {
		d.mu.Unlock()
		supersededResponses.Inc()
		return
	}
	d.cancel = nil

	if err != nil {
		d.state = Idle
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(ErrTimeout, err)
		}
		searchErrors.WithLabelValues(r.kind.String()).Inc()
		log.Printf("[%s] search failed: %v", d.opts.InstanceId, err)
		d.opts.Renderer.ReportError(err)
		d.mu.Unlock()
		return
	}

	items := page.Items
	if items == nil {
		items = []types.ResultItem{}
	}
	if r.loadCollection {
		d.collection = items
	}
	remoteDispatches.WithLabelValues(r.kind.String()).Inc()
	d.applyLocked(items, r.composition)
	event := types.SearchEvent{
		InstanceId: d.opts.InstanceId,
		Endpoint:   r.kind.String(),
		Query:      r.composition.Text,
		Params:     r.params(),
		Results:    len(items),
		Downgraded: r.downgraded,
	}
	d.mu.Unlock()

	if d.opts.Tracking != nil {
		d.opts.Tracking.TrackSearch(event)
	}
}

func (d *Dispatcher) applyLocked(items []types.ResultItem, comp *query.Composition) {
	d.state = Applying
	d.filtered = comp.Predicate.Apply(items)
	d.hasResults = true
	d.renderLocked()
	d.state = Idle
}

func (d *Dispatcher) renderLocked() {
	ordered := d.opts.Orderer.Order(d.filtered, d.order)
	d.opts.Renderer.Render(ordered, d.opts.Filters.ActiveCount())
}
