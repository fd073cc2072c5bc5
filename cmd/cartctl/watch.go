package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fjod/cartsync/internal/cartsync"
	"github.com/fjod/cartsync/internal/domain"
)

const defaultWatchInterval = 5 * time.Second

// watcher reloads the cart on a fixed interval and prints it whenever the
// server's totals change. Failed reloads are reported and polling goes on.
type watcher struct {
	cart     *cartsync.Synchronizer
	out      io.Writer
	interval time.Duration

	lastItems  int
	lastAmount string
	printed    bool
}

func newWatcher(cart *cartsync.Synchronizer, out io.Writer, interval time.Duration) *watcher {
	return &watcher{cart: cart, out: out, interval: interval}
}

// Run polls until ctx is done.
func (w *watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.poll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *watcher) poll(ctx context.Context) {
	cart, err := w.cart.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w.out, "%s: %s\n", time.Now().Format(time.TimeOnly), w.cart.LastError())
		w.cart.ClearMessages()
		return
	}
	if !w.changed(cart) {
		return
	}
	fmt.Fprintf(w.out, "%s\n", time.Now().Format(time.TimeOnly))
	printCart(w.out, cart)
}

func (w *watcher) changed(cart *domain.CartSnapshot) bool {
	items, amount := cart.ItemCount(), cart.Total().String()
	if w.printed && items == w.lastItems && amount == w.lastAmount {
		return false
	}
	w.printed, w.lastItems, w.lastAmount = true, items, amount
	return true
}
