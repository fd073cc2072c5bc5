package cartsync

import (
	"fmt"
	"net/http"
)

// User-facing messages published through State.LastError / State.LastNotice.
const (
	MsgSessionExpired      = "session expired"
	MsgSessionExpiredLogin = "session expired, please log in again"
	MsgConnectionError     = "connection error: %v"

	MsgLoadFailed = "failed to load cart"

	MsgInvalidQuantity  = "quantity must be at least 1"
	MsgProductNotFound  = "product not found"
	MsgStockOrInvalid   = "insufficient stock or invalid data"
	MsgAddFailedWithErr = "failed to add item to cart (%d)"
	MsgItemAdded        = "item added to cart"

	MsgLineNotFound      = "cart item not found"
	MsgInsufficientStock = "insufficient stock"
	MsgUpdateFailed      = "failed to update quantity"
	MsgQuantityUpdated   = "quantity updated"

	MsgRemoveFailed = "failed to remove item from cart"
	MsgItemRemoved  = "item removed from cart"

	MsgClearFailed = "failed to clear cart"
	MsgCartCleared = "cart cleared"

	MsgDescriptionRequired = "enter a description for the order"
	MsgCartEmpty           = "cart is empty"
	MsgInvalidOrder        = "invalid order data"
	MsgCartMissing         = "cart is empty or not found"
	MsgStockConflict       = "insufficient stock for some products"
	MsgCheckoutFailed      = "failed to place order"
	MsgOrderPlaced         = "order placed successfully"
)

func messageFor(op Operation, status int) string {
	switch op {
	case OpLoad:
		return MsgLoadFailed
	case OpAdd:
		switch status {
		case http.StatusNotFound:
			return MsgProductNotFound
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return MsgStockOrInvalid
		case http.StatusUnauthorized:
			return MsgSessionExpiredLogin
		default:
			return fmt.Sprintf(MsgAddFailedWithErr, status)
		}
	case OpUpdate:
		switch status {
		case http.StatusNotFound:
			return MsgLineNotFound
		case http.StatusBadRequest:
			return MsgInsufficientStock
		default:
			return MsgUpdateFailed
		}
	case OpRemove:
		if status == http.StatusNotFound {
			return MsgLineNotFound
		}
		return MsgRemoveFailed
	case OpClear:
		return MsgClearFailed
	case OpCheckout:
		switch status {
		case http.StatusBadRequest:
			return MsgInvalidOrder
		case http.StatusNotFound:
			return MsgCartMissing
		case http.StatusConflict:
			return MsgStockConflict
		default:
			return MsgCheckoutFailed
		}
	}
	return MsgLoadFailed
}
