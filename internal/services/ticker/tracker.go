package ticker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vadiminshakov/exdesk/internal/domain"
)

// Getter returns a normalized ticker.
type Getter interface {
	GetTicker(ctx context.Context, base, quote domain.Currency) (domain.TickerSnapshot, error)
}

// State what the tracker currently shows.
type State struct {
	Pair     domain.Pair           `json:"pair"`
	Snapshot domain.TickerSnapshot `json:"snapshot"`
	Loading  bool                  `json:"loading"`
	Error    string                `json:"error,omitempty"`
}

// Request handle of a single tracked lookup.
type Request struct {
	Token  uint64
	done   chan struct{}
	cancel context.CancelFunc
}

// Done is closed once the lookup finished, whether its result was applied or discarded.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Cancel abandons the lookup.
func (r *Request) Cancel() {
	r.cancel()
}

// Tracker follows the pair currently selected by the user. Each Request supersedes
// the previous one: the previous lookup is canceled and its late result is dropped.
type Tracker struct {
	getter Getter
	logger *zap.Logger

	mu      sync.Mutex
	current uint64
	cancel  context.CancelFunc
	state   State
	onApply func(State)
}

// NewTracker creates a tracker.
func NewTracker(getter Getter, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tracker{
		getter: getter,
		logger: logger,
		state:  State{Snapshot: domain.NeutralSnapshot()},
	}
}

// OnApply registers a callback invoked with every applied state.
func (t *Tracker) OnApply(fn func(State)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.onApply = fn
}

// Request starts tracking base/quote and returns immediately.
func (t *Tracker) Request(ctx context.Context, base, quote domain.Currency) *Request {
	reqCtx, cancel := context.WithCancel(ctx)
	pair := domain.NewPair(base, quote)

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.current++
	token := t.current
	t.cancel = cancel
	t.state = State{Pair: pair, Snapshot: t.state.Snapshot, Loading: true}
	t.mu.Unlock()

	req := &Request{Token: token, done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(req.done)

		snapshot, err := t.getter.GetTicker(reqCtx, base, quote)
		t.apply(reqCtx, token, pair, snapshot, err)
	}()

	return req
}

// State returns the state of the latest applied request.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Close cancels the in-flight request, if any.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) apply(ctx context.Context, token uint64, pair domain.Pair, snapshot domain.TickerSnapshot, err error) {
	t.mu.Lock()

	if token != t.current {
		t.mu.Unlock()
		t.logger.Debug("dropping stale ticker response", zap.String("pair", pair.String()), zap.Uint64("token", token))
		return
	}
	if ctx.Err() != nil {
		// canceled without a successor: stop loading, keep the last snapshot
		t.state.Loading = false
		t.mu.Unlock()
		return
	}

	state := State{Pair: pair, Snapshot: snapshot}
	if err != nil {
		state.Error = err.Error()
	}
	t.state = state
	onApply := t.onApply
	t.mu.Unlock()

	if onApply != nil {
		onApply(state)
	}
}
