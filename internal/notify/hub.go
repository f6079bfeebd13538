package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout bounds how long a registration may stay pending.
	DefaultTimeout = 60 * time.Minute

	// DefaultBuffer is the capacity of the publish queue.
	DefaultBuffer = 64
)

var (
	ErrTimeout    = errors.New("wait timed out")
	ErrSuperseded = errors.New("wait replaced by a newer registration")
	ErrClosed     = errors.New("notification hub closed")
)

// Key identifies a single waiting slot: one player of one game.
type Key struct {
	GameID string
	Token  string
}

// tokenPrefix keeps credentials out of logs.
func (k Key) tokenPrefix() string {
	if len(k.Token) > 8 {
		return k.Token[:8]
	}
	return k.Token
}

// Result is the single resolution of a registration: either a delivered value or an error
// such as ErrTimeout.
type Result[T any] struct {
	Value T
	Err   error
}

// Registration is a one-shot wait on a key. It resolves exactly once.
type Registration[T any] struct {
	hub      *Hub[T]
	key      Key
	done     chan Result[T]
	onReady  func(Result[T])
	resolved atomic.Bool
	timer    *time.Timer
}

func (r *Registration[T]) Key() Key { return r.key }

// Done yields the resolution once it happens.
func (r *Registration[T]) Done() <-chan Result[T] { return r.done }

// Wait blocks until the registration resolves or ctx ends. A cancelled wait removes the
// registration; if a delivery raced the cancellation the delivered value wins.
func (r *Registration[T]) Wait(ctx context.Context) (T, error) {
	select {
	case res := <-r.done:
		return res.Value, res.Err
	case <-ctx.Done():
		if r.Cancel(ctx.Err()) {
			var zero T
			return zero, ctx.Err()
		}
		res := <-r.done
		return res.Value, res.Err
	}
}

// Cancel withdraws the registration and resolves it with err. It reports false when the
// registration had already been resolved.
func (r *Registration[T]) Cancel(err error) bool {
	r.hub.remove(r)
	return r.resolve(Result[T]{Err: err})
}

func (r *Registration[T]) resolve(res Result[T]) bool {
	if !r.resolved.CompareAndSwap(false, true) {
		return false
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.done <- res
	if r.onReady != nil {
		r.onReady(res)
	}
	return true
}

// delivery is a published value paired with the registration it matched when published.
type delivery[T any] struct {
	reg   *Registration[T]
	value T
}

// Hub holds at most one pending registration per key and resolves it when a published value
// maps to that key. Matching happens at publish time; Run delivers in publish order.
type Hub[T any] struct {
	keyOf   func(T) Key
	timeout time.Duration

	// pubMu keeps queue order equal to matching order.
	pubMu sync.Mutex

	mu        sync.Mutex
	waiting   map[Key]*Registration[T]
	observers []func(T)
	closed    bool

	events chan delivery[T]
	done   chan struct{}
}

// NewHub creates a hub. keyOf names the key that becomes ready for a published value.
// Non-positive timeout or buffer fall back to the defaults.
func NewHub[T any](keyOf func(T) Key, timeout time.Duration, buffer int) *Hub[T] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub[T]{
		keyOf:   keyOf,
		timeout: timeout,
		waiting: make(map[Key]*Registration[T]),
		events:  make(chan delivery[T], buffer),
		done:    make(chan struct{}),
	}
}

// Register creates a registration for key, replacing and resolving with ErrSuperseded any
// registration already pending there.
func (h *Hub[T]) Register(key Key) (*Registration[T], error) {
	return h.AwaitTurn(key, nil)
}

// AwaitTurn registers onReady to be called once with the resolution for key. onReady runs on
// the resolving goroutine and must not block.
func (h *Hub[T]) AwaitTurn(key Key, onReady func(Result[T])) (*Registration[T], error) {
	reg := &Registration[T]{
		hub:     h,
		key:     key,
		done:    make(chan Result[T], 1),
		onReady: onReady,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	prev := h.waiting[key]
	h.waiting[key] = reg
	reg.timer = time.AfterFunc(h.timeout, func() { h.expire(reg) })
	h.mu.Unlock()

	if prev != nil {
		prev.resolve(Result[T]{Err: ErrSuperseded})
		log.Debug().
			Str("gameID", key.GameID).
			Str("token", key.tokenPrefix()).
			Msg("Replaced pending wait")
	}
	log.Debug().
		Str("gameID", key.GameID).
		Str("token", key.tokenPrefix()).
		Dur("timeout", h.timeout).
		Msg("Registered wait")
	return reg, nil
}

// Await registers for key and blocks until it resolves or ctx ends.
func (h *Hub[T]) Await(ctx context.Context, key Key) (T, error) {
	reg, err := h.Register(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return reg.Wait(ctx)
}

// Observe adds a function that sees every published value after waiters are resolved.
func (h *Hub[T]) Observe(fn func(T)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}

// Publish takes the registration pending on v's key, if any, and queues both for delivery.
// A registration made after Publish returns never sees v. Publish blocks while the queue is
// full.
func (h *Hub[T]) Publish(v T) error {
	key := h.keyOf(v)

	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	reg := h.waiting[key]
	delete(h.waiting, key)
	h.mu.Unlock()

	select {
	case h.events <- delivery[T]{reg: reg, value: v}:
		return nil
	case <-h.done:
		if reg != nil {
			reg.resolve(Result[T]{Err: ErrClosed})
		}
		return ErrClosed
	}
}

// Run delivers published values until ctx ends or the hub is closed.
func (h *Hub[T]) Run(ctx context.Context) error {
	for {
		select {
		case d := <-h.events:
			h.deliver(d)
		case <-h.done:
			return ErrClosed
		case <-ctx.Done():
			h.Close()
			return ctx.Err()
		}
	}
}

func (h *Hub[T]) deliver(d delivery[T]) {
	h.mu.Lock()
	observers := h.observers
	h.mu.Unlock()

	if d.reg != nil && d.reg.resolve(Result[T]{Value: d.value}) {
		log.Debug().
			Str("gameID", d.reg.key.GameID).
			Str("token", d.reg.key.tokenPrefix()).
			Msg("Delivered turn notification")
	}
	for _, fn := range observers {
		fn(d.value)
	}
}

func (h *Hub[T]) expire(reg *Registration[T]) {
	h.remove(reg)
	if reg.resolve(Result[T]{Err: ErrTimeout}) {
		log.Info().
			Str("gameID", reg.key.GameID).
			Str("token", reg.key.tokenPrefix()).
			Msg("Wait timed out")
	}
}

// remove drops reg from its slot if it is still the one registered there.
func (h *Hub[T]) remove(reg *Registration[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.waiting[reg.key] == reg {
		delete(h.waiting, reg.key)
	}
}

// Pending reports whether a registration is waiting on key.
func (h *Hub[T]) Pending(key Key) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.waiting[key]
	return ok
}

// Len is the number of pending registrations.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiting)
}

// Close resolves every pending registration with ErrClosed and stops Run. Values still
// queued are dropped and the registrations they matched resolve with ErrClosed.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	pending := h.waiting
	h.waiting = make(map[Key]*Registration[T])
	h.mu.Unlock()

	close(h.done)
	for _, reg := range pending {
		reg.resolve(Result[T]{Err: ErrClosed})
	}

	// In-flight publishers see done and release pubMu.
	h.pubMu.Lock()
	defer h.pubMu.Unlock()
drain:
	for {
		select {
		case d := <-h.events:
			if d.reg != nil {
				d.reg.resolve(Result[T]{Err: ErrClosed})
			}
		default:
			break drain
		}
	}
	log.Info().Int("pending", len(pending)).Msg("Notification hub closed")
}
