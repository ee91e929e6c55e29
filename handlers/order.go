package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pizzapizza/pizzeria/api"
	"github.com/pizzapizza/pizzeria/auth"
	"github.com/pizzapizza/pizzeria/events"
	"github.com/pizzapizza/pizzeria/models"
	"github.com/pizzapizza/pizzeria/payment"
	"github.com/pizzapizza/pizzeria/store"
	"github.com/pizzapizza/pizzeria/utils"
)

type OrderHandler struct {
	Users    *store.Collection
	Carts    *store.Collection
	Menus    *store.Collection
	Orders   *store.Collection
	Auth     *auth.Service
	Payments payment.Gateway
	Bus      *events.Bus
	Log      *logrus.Logger
}

const (
	orderIDLength    = 20
	orderDescription = "Pizza Pizza order"

	// Stands in for a card token the client would create against the
	// payment provider.
	paymentSource = "tok_visa"
)

// Place turns the caller's cart into a paid order: the order is persisted
// as outstanding before the capture attempt so a crash mid-payment leaves an
// auditable record, and only a successful capture moves it to paid. A failed
// capture leaves the order outstanding and the cart untouched.
func (h *OrderHandler) Place(ctx context.Context, req *api.Request) (*api.Response, error) {
	email, err := h.Auth.ResolveEmail(req.BearerToken())
	if err != nil {
		return nil, authError()
	}

	var user models.User
	if err := h.Users.Read(email, &user); err != nil {
		return nil, api.Forbidden("could not authenticate")
	}

	var cart models.Cart
	err = h.Carts.Read(email, &cart)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
		return nil, api.BadRequest("there is nothing in your cart, the order can't be processed")
	}
	if err != nil {
		return nil, fmt.Errorf("read cart for %s: %w", email, err)
	}

	var orderValue float64
	for _, item := range cart.Items {
		var menuItem models.MenuItem
		if err := h.Menus.Read(item.MenuID, &menuItem); err != nil {
			// Cart items were validated against the menu when stored.
			return nil, fmt.Errorf("price cart item %s: %w", item.MenuID, err)
		}
		orderValue += menuItem.Price * float64(item.Quantity)
	}

	orderID, err := utils.RandomString(orderIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate order id: %w", err)
	}

	order := models.Order{
		OrderID: orderID,
		UserID:  email,
		ShippingAddress: models.ShippingAddress{
			Street: user.Street,
			Zip:    user.Zip,
			City:   user.City,
		},
		CartItems:     cart.Items,
		PaymentStatus: models.PaymentOutstanding,
	}
	if err := h.Orders.Create(orderID, order); err != nil {
		return nil, fmt.Errorf("persist order %s: %w", orderID, err)
	}

	amountCents := int64(math.Round(orderValue * 100))
	if err := h.Payments.Charge(ctx, paymentSource, amountCents, orderDescription); err != nil {
		h.Log.WithError(err).WithField("orderId", orderID).Error("payment capture failed")
		return nil, api.PaymentFailed("payment failed")
	}

	if err := h.Orders.Update(orderID, map[string]any{"paymentStatus": models.PaymentPaid}); err != nil {
		// The charge went through; without a refund path all that is left
		// is to surface the inconsistency.
		return nil, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}

	if err := h.Carts.Update(email, models.Cart{Items: []models.CartItem{}}); err != nil {
		h.Log.WithError(err).WithField("orderId", orderID).Warn("could not clear cart after order")
	}

	h.Bus.Publish(events.OrderPlaced{OrderID: orderID, User: user})

	return api.OK(map[string]any{
		"orderId":    orderID,
		"orderValue": orderValue,
	}), nil
}
