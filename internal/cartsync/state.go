package cartsync

import "github.com/fjod/cartsync/internal/domain"

// Operation names a synchronizer operation.
type Operation string

const (
	OpLoad     Operation = "load_cart"
	OpAdd      Operation = "add_item"
	OpUpdate   Operation = "update_quantity"
	OpRemove   Operation = "remove_item"
	OpClear    Operation = "clear_cart"
	OpCheckout Operation = "checkout"
)

func (o Operation) String() string {
	return string(o)
}

// Pending holds one in-flight flag per operation kind. The flags only drive
// spinners and disabled controls; they never gate an operation.
type Pending struct {
	Loading     bool
	Adding      bool
	Updating    bool
	Removing    bool
	Clearing    bool
	CheckingOut bool
}

func (p *Pending) set(op Operation, v bool) {
	switch op {
	case OpLoad:
		p.Loading = v
	case OpAdd:
		p.Adding = v
	case OpUpdate:
		p.Updating = v
	case OpRemove:
		p.Removing = v
	case OpClear:
		p.Clearing = v
	case OpCheckout:
		p.CheckingOut = v
	}
}

// Any reports whether any operation is in flight.
func (p Pending) Any() bool {
	return p.Loading || p.Adding || p.Updating || p.Removing || p.Clearing || p.CheckingOut
}

// State is what the presentation layer observes. Snapshot is nil until the
// first successful load and is never mutated in place.
type State struct {
	Snapshot            *domain.CartSnapshot
	Pending             Pending
	LastError           string
	LastNotice          string
	LastCompletedOrder  *domain.OrderRef
	CheckoutDescription string
}
