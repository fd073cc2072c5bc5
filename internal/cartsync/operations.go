package cartsync

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/cartsync/internal/domain"
	"go.uber.org/zap"
)

// LoadCart replaces the snapshot with the server's cart. A 404 is an empty
// cart, not an error. On failure the previous snapshot is kept.
func (s *Synchronizer) LoadCart(ctx context.Context) (*domain.CartSnapshot, error) {
	start := time.Now()
	s.begin(OpLoad)

	token, cerr := s.credential(ctx, OpLoad)
	if cerr != nil {
		return nil, s.fail(ctx, OpLoad, start, cerr)
	}

	cart, err := s.backend.GetCart(ctx, token)
	if err != nil {
		status, ok := statusOf(err)
		if !ok || status != http.StatusNotFound {
			return nil, s.fail(ctx, OpLoad, start, classify(OpLoad, err))
		}
		// no cart resource yet
		cart = domain.EmptyCart()
	}

	s.succeed(OpLoad, start, func(st *State) {
		st.Snapshot = cart
	})
	s.log(ctx).Debug("cart loaded",
		zap.Int("lines", len(cart.Items)),
		zap.Int("total_items", cart.TotalItemCount),
		zap.String("total_amount", cart.TotalAmount.String()),
	)
	return cart, nil
}

// Refresh reloads the cart. It is the manual retry affordance.
func (s *Synchronizer) Refresh(ctx context.Context) (*domain.CartSnapshot, error) {
	return s.LoadCart(ctx)
}

// AddItem asks the server to add quantity of productID. Whether that creates
// a line or increments an existing one is the server's decision.
func (s *Synchronizer) AddItem(ctx context.Context, productID int64, quantity int) (*domain.CartSnapshot, error) {
	start := time.Now()
	if quantity < 1 {
		return nil, s.reject(ctx, OpAdd, start, validation(OpAdd, MsgInvalidQuantity))
	}

	s.begin(OpAdd)
	release, qerr := s.acquire(ctx, OpAdd)
	if qerr != nil {
		return nil, s.fail(ctx, OpAdd, start, qerr)
	}
	defer release()

	token, cerr := s.credential(ctx, OpAdd)
	if cerr != nil {
		return nil, s.fail(ctx, OpAdd, start, cerr)
	}

	cart, err := s.backend.AddItem(ctx, token, productID, quantity)
	if err != nil {
		return nil, s.fail(ctx, OpAdd, start, classify(OpAdd, err))
	}

	s.succeed(OpAdd, start, func(st *State) {
		st.Snapshot = cart
		st.LastNotice = MsgItemAdded
	})
	s.log(ctx).Debug("item added",
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("total_items", cart.TotalItemCount),
	)
	return cart, nil
}

// UpdateItemQuantity sets the quantity of a line. A quantity of zero or less
// is sent as a removal instead.
func (s *Synchronizer) UpdateItemQuantity(ctx context.Context, lineID int64, quantity int) (*domain.CartSnapshot, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, lineID)
	}

	start := time.Now()
	s.begin(OpUpdate)
	release, qerr := s.acquire(ctx, OpUpdate)
	if qerr != nil {
		return nil, s.fail(ctx, OpUpdate, start, qerr)
	}
	defer release()

	token, cerr := s.credential(ctx, OpUpdate)
	if cerr != nil {
		return nil, s.fail(ctx, OpUpdate, start, cerr)
	}

	cart, err := s.backend.UpdateItemQuantity(ctx, token, lineID, quantity)
	if err != nil {
		return nil, s.fail(ctx, OpUpdate, start, classify(OpUpdate, err))
	}

	s.succeed(OpUpdate, start, func(st *State) {
		st.Snapshot = cart
		st.LastNotice = MsgQuantityUpdated
	})
	return cart, nil
}

// RemoveItem deletes a line and then reloads the cart, since removal
// responses do not carry the updated cart. If the removal succeeds but the
// reload fails, the reload's error is returned and the old snapshot stays.
func (s *Synchronizer) RemoveItem(ctx context.Context, lineID int64) (*domain.CartSnapshot, error) {
	start := time.Now()
	s.begin(OpRemove)
	release, qerr := s.acquire(ctx, OpRemove)
	if qerr != nil {
		return nil, s.fail(ctx, OpRemove, start, qerr)
	}
	defer release()

	token, cerr := s.credential(ctx, OpRemove)
	if cerr != nil {
		return nil, s.fail(ctx, OpRemove, start, cerr)
	}

	if err := s.backend.RemoveItem(ctx, token, lineID); err != nil {
		return nil, s.fail(ctx, OpRemove, start, classify(OpRemove, err))
	}

	s.succeed(OpRemove, start, func(st *State) {
		st.LastNotice = MsgItemRemoved
	})
	s.log(ctx).Debug("item removed, reloading cart", zap.Int64("line_id", lineID))

	return s.LoadCart(ctx)
}

// Clear empties the cart on the server and replaces the snapshot with a
// locally built empty cart.
func (s *Synchronizer) Clear(ctx context.Context) (*domain.CartSnapshot, error) {
	start := time.Now()
	s.begin(OpClear)
	release, qerr := s.acquire(ctx, OpClear)
	if qerr != nil {
		return nil, s.fail(ctx, OpClear, start, qerr)
	}
	defer release()

	token, cerr := s.credential(ctx, OpClear)
	if cerr != nil {
		return nil, s.fail(ctx, OpClear, start, cerr)
	}

	if err := s.backend.ClearCart(ctx, token); err != nil {
		return nil, s.fail(ctx, OpClear, start, classify(OpClear, err))
	}

	cart := domain.EmptyCart()
	s.succeed(OpClear, start, func(st *State) {
		st.Snapshot = cart
		st.LastNotice = MsgCartCleared
	})
	return cart, nil
}

// Checkout places an order for the current cart. Every order needs a
// non-blank description and a non-empty cart; both are checked locally
// before any call. A 2xx response without an order reference is a business
// failure and leaves the snapshot as it was.
func (s *Synchronizer) Checkout(ctx context.Context, description string) (*domain.OrderRef, error) {
	start := time.Now()
	s.update(func(st *State) {
		st.CheckoutDescription = description
	})

	note := strings.TrimSpace(description)
	if note == "" {
		return nil, s.reject(ctx, OpCheckout, start, validation(OpCheckout, MsgDescriptionRequired))
	}
	if s.Snapshot().IsEmpty() {
		return nil, s.reject(ctx, OpCheckout, start, validation(OpCheckout, MsgCartEmpty))
	}

	s.begin(OpCheckout)
	release, qerr := s.acquire(ctx, OpCheckout)
	if qerr != nil {
		return nil, s.fail(ctx, OpCheckout, start, qerr)
	}
	defer release()

	token, cerr := s.credential(ctx, OpCheckout)
	if cerr != nil {
		return nil, s.fail(ctx, OpCheckout, start, cerr)
	}

	result, err := s.backend.Checkout(ctx, token, note)
	if err != nil {
		return nil, s.fail(ctx, OpCheckout, start, classify(OpCheckout, err))
	}
	if !result.Succeeded() {
		msg := MsgCheckoutFailed
		if result != nil && result.Message != "" {
			msg = result.Message
		}
		return nil, s.fail(ctx, OpCheckout, start, &Error{Op: OpCheckout, Kind: KindConflict, Message: msg})
	}

	ref := result.Ref()
	s.succeed(OpCheckout, start, func(st *State) {
		st.Snapshot = domain.EmptyCart()
		st.LastCompletedOrder = ref
		st.CheckoutDescription = ""
		st.LastNotice = MsgOrderPlaced
	})
	s.log(ctx).Info("checkout completed", zap.Int64("order_id", ref.ID))
	return ref, nil
}
