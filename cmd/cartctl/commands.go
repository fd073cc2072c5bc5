package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fjod/cartsync/internal/cartsync"
	"github.com/fjod/cartsync/internal/domain"
	"github.com/fjod/cartsync/internal/history"
)

var errUsage = errors.New("usage: cartctl [flags] show|add|update|remove|clear|checkout|orders|order|watch")

type app struct {
	cart    *cartsync.Synchronizer
	history *history.History
	out     io.Writer
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "orders":
		page := 1
		if len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil {
				return fmt.Errorf("invalid page %q", rest[0])
			}
			page = n
		}
		return a.orders(ctx, page)
	case "order":
		if len(rest) != 1 {
			return errors.New("usage: cartctl order <order-id>")
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		return a.order(ctx, id)
	case "watch":
		interval := defaultWatchInterval
		if len(rest) > 0 {
			d, err := time.ParseDuration(rest[0])
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid interval %q", rest[0])
			}
			interval = d
		}
		return newWatcher(a.cart, a.out, interval).Run(ctx)
	}

	// cart commands work on the server's current cart
	if _, err := a.cart.LoadCart(ctx); err != nil {
		return err
	}

	switch cmd {
	case "show":
	case "add":
		if len(rest) == 1 {
			rest = append(rest, "1")
		}
		productID, quantity, err := idAndQuantity(rest, "add <product-id> [quantity]")
		if err != nil {
			return err
		}
		if _, err := a.cart.AddItem(ctx, productID, quantity); err != nil {
			return err
		}
	case "update":
		lineID, quantity, err := idAndQuantity(rest, "update <line-id> <quantity>")
		if err != nil {
			return err
		}
		if _, err := a.cart.UpdateItemQuantity(ctx, lineID, quantity); err != nil {
			return err
		}
	case "remove":
		if len(rest) != 1 {
			return errors.New("usage: cartctl remove <line-id>")
		}
		lineID, err := parseID(rest[0])
		if err != nil {
			return err
		}
		if _, err := a.cart.RemoveItem(ctx, lineID); err != nil {
			return err
		}
	case "clear":
		if _, err := a.cart.Clear(ctx); err != nil {
			return err
		}
	case "checkout":
		ref, err := a.cart.Checkout(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: order #%d\n", a.cart.LastNotice(), ref.ID)
		a.cart.ClearLastCompletedOrder()
		return nil
	default:
		return errUsage
	}

	if notice := a.cart.LastNotice(); notice != "" {
		fmt.Fprintln(a.out, notice)
	}
	a.cart.ClearMessages()
	printCart(a.out, a.cart.Snapshot())
	return nil
}

func (a *app) orders(ctx context.Context, page int) error {
	result, err := a.history.Load(ctx, page)
	if err != nil {
		return errors.New(a.history.State().LastError)
	}
	if len(result.Orders) == 0 {
		fmt.Fprintln(a.out, "no orders")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTOTAL\tDESCRIPTION")
	for _, o := range result.Orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", o.ID, formatDate(o), o.Total.StringFixed(2), o.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d (%d orders)\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func (a *app) order(ctx context.Context, id int64) error {
	o, err := a.history.Open(ctx, id)
	if err != nil {
		return errors.New(a.history.State().LastError)
	}

	fmt.Fprintf(a.out, "order #%d  %s\n%s\n", o.ID, formatDate(*o), o.Description)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range o.Lines {
		name := strconv.FormatInt(l.ProductID, 10)
		if l.Product != nil && l.Product.Name != "" {
			name = l.Product.Name
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, l.Quantity, l.UnitPrice.StringFixed(2), l.Subtotal.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "total %s\n", o.Total.StringFixed(2))
	return nil
}

func printCart(w io.Writer, cart *domain.CartSnapshot) {
	if cart.IsEmpty() {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tPRODUCT\tQTY\tSUBTOTAL")
	for _, l := range cart.Items {
		name := strconv.FormatInt(l.ProductID, 10)
		if l.Product != nil && l.Product.Name != "" {
			name = l.Product.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", l.LineID, name, l.Quantity, l.Subtotal.StringFixed(2))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d items, total %s\n", cart.ItemCount(), cart.Total().StringFixed(2))
}

func formatDate(o domain.Order) string {
	if o.PlacedAt.IsZero() {
		return "-"
	}
	return o.PlacedAt.Format("2006-01-02 15:04")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func idAndQuantity(args []string, usage string) (int64, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("usage: cartctl " + usage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quantity %q", args[1])
	}
	return id, quantity, nil
}
