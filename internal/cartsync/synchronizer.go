// Package cartsync keeps a local mirror of the user's server-side cart.
//
// The mirror is only ever replaced wholesale by a server response (or by a
// locally built empty cart after clear/checkout); it is never patched.
// Operations of different kinds may run concurrently and the last response
// to arrive wins. WithSerializedMutations queues mutations instead.
package cartsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/cartsync/internal/auth"
	"github.com/fjod/cartsync/internal/domain"
	"github.com/fjod/cartsync/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type Option func(*Synchronizer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// WithOnChange registers fn to receive a copy of the state after every
// change. fn runs on the goroutine of the operation that made the change.
func WithOnChange(fn func(State)) Option {
	return func(s *Synchronizer) {
		s.onChange = fn
	}
}

// WithSerializedMutations queues add, update, remove, clear, and checkout so
// that at most one is in flight. LoadCart is never queued.
func WithSerializedMutations() Option {
	return func(s *Synchronizer) {
		s.serial = semaphore.NewWeighted(1)
	}
}

type Synchronizer struct {
	backend  Backend
	auth     auth.Provider
	logger   *zap.Logger
	onChange func(State)
	serial   *semaphore.Weighted

	// mu guards state for memory safety only; it is never held across a
	// network call.
	mu    sync.Mutex
	state State
}

// New returns a synchronizer with no snapshot. Call LoadCart to seed it.
func New(backend Backend, provider auth.Provider, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		backend: backend,
		auth:    provider,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Synchronizer) Snapshot() *domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot
}

func (s *Synchronizer) Pending() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Pending
}

func (s *Synchronizer) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastError
}

func (s *Synchronizer) LastNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastNotice
}

func (s *Synchronizer) LastCompletedOrder() *domain.OrderRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastCompletedOrder
}

func (s *Synchronizer) CheckoutDescription() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CheckoutDescription
}

// ClearMessages drops the one-shot error and notice after the consumer has
// shown them.
func (s *Synchronizer) ClearMessages() {
	s.update(func(st *State) {
		st.LastError = ""
		st.LastNotice = ""
	})
}

func (s *Synchronizer) ClearLastCompletedOrder() {
	s.update(func(st *State) {
		st.LastCompletedOrder = nil
	})
}

// SetCheckoutDescription records the order note being typed and clears any
// pending messages.
func (s *Synchronizer) SetCheckoutDescription(description string) {
	s.update(func(st *State) {
		st.CheckoutDescription = description
		st.LastError = ""
		st.LastNotice = ""
	})
}

// Derived read-only queries over the current snapshot.

func (s *Synchronizer) ItemCount() int {
	return s.Snapshot().ItemCount()
}

func (s *Synchronizer) IsEmpty() bool {
	return s.Snapshot().IsEmpty()
}

func (s *Synchronizer) HasProduct(productID int64) bool {
	return s.Snapshot().HasProduct(productID)
}

func (s *Synchronizer) ProductQuantity(productID int64) int {
	return s.Snapshot().ProductQuantity(productID)
}

// update applies fn under the lock and publishes the resulting state.
func (s *Synchronizer) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	st := s.state
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(st)
	}
}

// begin raises op's flag and drops any stale error from an earlier call.
func (s *Synchronizer) begin(op Operation) {
	s.update(func(st *State) {
		st.Pending.set(op, true)
		st.LastError = ""
	})
}

// succeed clears op's flag and applies the result in one step.
func (s *Synchronizer) succeed(op Operation, start time.Time, fn func(st *State)) {
	s.update(func(st *State) {
		st.Pending.set(op, false)
		if fn != nil {
			fn(st)
		}
	})
	recordOperation(op, "success", time.Since(start))
}

// fail clears op's flag and publishes err. The snapshot is left untouched.
func (s *Synchronizer) fail(ctx context.Context, op Operation, start time.Time, err *Error) *Error {
	s.update(func(st *State) {
		st.Pending.set(op, false)
		st.LastError = err.Message
	})
	recordOperation(op, err.Kind.String(), time.Since(start))
	s.logFailure(ctx, op, err)
	return err
}

// reject publishes a failure found before any call was made. The pending
// flags belong to whatever is still in flight and are left alone.
func (s *Synchronizer) reject(ctx context.Context, op Operation, start time.Time, err *Error) *Error {
	s.update(func(st *State) {
		st.LastError = err.Message
	})
	recordOperation(op, err.Kind.String(), time.Since(start))
	s.logFailure(ctx, op, err)
	return err
}

func (s *Synchronizer) logFailure(ctx context.Context, op Operation, err *Error) {
	s.log(ctx).Warn("cart operation failed",
		zap.String("operation", op.String()),
		zap.String("kind", err.Kind.String()),
		zap.Int("status", err.Status),
		zap.String("message", err.Message),
		zap.Error(err.Cause),
	)
}

// credential returns the bearer token or a session-expired error.
func (s *Synchronizer) credential(ctx context.Context, op Operation) (string, *Error) {
	token, ok := s.auth.Credential(ctx)
	if !ok {
		return "", sessionExpired(op)
	}
	return token, nil
}

// acquire waits for the mutation queue when serialized mode is on.
func (s *Synchronizer) acquire(ctx context.Context, op Operation) (func(), *Error) {
	if s.serial == nil {
		return func() {}, nil
	}
	if err := s.serial.Acquire(ctx, 1); err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, Message: fmt.Sprintf(MsgConnectionError, err), Cause: err}
	}
	return func() { s.serial.Release(1) }, nil
}

func (s *Synchronizer) log(ctx context.Context) *zap.Logger {
	return logger.WithTrace(ctx, s.logger)
}
