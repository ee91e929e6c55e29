package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzapizza/pizzeria/models"
)

type recordedCharge struct {
	source      string
	amountCents int64
	description string
}

type stubGateway struct {
	err     error
	charges []recordedCharge
}

func (g *stubGateway) Charge(ctx context.Context, source string, amountCents int64, description string) error {
	g.charges = append(g.charges, recordedCharge{source, amountCents, description})
	return g.err
}

func newOrderHandler(e *env, gateway *stubGateway) *OrderHandler {
	return &OrderHandler{
		Users:    e.users,
		Carts:    e.carts,
		Menus:    e.menus,
		Orders:   e.orders,
		Auth:     e.auth,
		Payments: gateway,
		Bus:      e.bus,
		Log:      e.log,
	}
}

func TestPlaceOrderRequiresToken(t *testing.T) {
	e := newEnv(t)
	h := newOrderHandler(e, &stubGateway{})

	_, err := h.Place(context.Background(), jsonRequest(t, nil))
	apiErr := apiError(t, err)
	assert.Equal(t, 403, apiErr.Status)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	e := newEnv(t)
	token := e.createUser(t, "jane@example.com")
	h := newOrderHandler(e, &stubGateway{})

	// No cart at all.
	_, err := h.Place(context.Background(), withToken(jsonRequest(t, nil), token.TokenID))
	apiErr := apiError(t, err)
	assert.Equal(t, 400, apiErr.Status)

	// An explicitly emptied cart is just as useless.
	require.NoError(t, e.carts.Create("jane@example.com", models.Cart{Items: []models.CartItem{}}))
	_, err = h.Place(context.Background(), withToken(jsonRequest(t, nil), token.TokenID))
	apiErr = apiError(t, err)
	assert.Equal(t, 400, apiErr.Status)
}

func TestPlaceOrderSuccess(t *testing.T) {
	e := newEnv(t)
	token := e.createUser(t, "jane@example.com")
	gateway := &stubGateway{}
	h := newOrderHandler(e, gateway)

	// Two Margaritas at 5.0 each.
	_, err := e.cartHandler.Replace(context.Background(),
		withToken(jsonRequest(t, []map[string]any{{"menuId": "0", "quantity": 2}}), token.TokenID))
	require.NoError(t, err)

	resp, err := h.Place(context.Background(), withToken(jsonRequest(t, nil), token.TokenID))
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status)

	body, ok := resp.Body.(map[string]any)
	require.True(t, ok)
	orderID, ok := body["orderId"].(string)
	require.True(t, ok)
	assert.Len(t, orderID, 20)
	assert.Equal(t, 10.0, body["orderValue"])

	// Exactly one capture for the total in cents.
	require.Len(t, gateway.charges, 1)
	assert.Equal(t, int64(1000), gateway.charges[0].amountCents)

	// The order is paid and carries the shipping address from the account.
	var order models.Order
	require.NoError(t, e.orders.Read(orderID, &order))
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "jane@example.com", order.UserID)
	assert.Equal(t, "Main Street 1", order.ShippingAddress.Street)
	assert.Equal(t, []models.CartItem{{MenuID: "0", Quantity: 2}}, order.CartItems)

	// The cart was cleared.
	var cart models.Cart
	require.NoError(t, e.carts.Read("jane@example.com", &cart))
	assert.Empty(t, cart.Items)

	// The notification event went out without blocking the response.
	select {
	case event := <-e.bus.Events():
		assert.Equal(t, orderID, event.OrderID)
		assert.Equal(t, "jane@example.com", event.User.Email)
	default:
		t.Fatal("expected an order-placed event on the bus")
	}
}

func TestPlaceOrderCaptureFailure(t *testing.T) {
	e := newEnv(t)
	token := e.createUser(t, "jane@example.com")
	gateway := &stubGateway{err: errors.New("card declined")}
	h := newOrderHandler(e, gateway)

	_, err := e.cartHandler.Replace(context.Background(),
		withToken(jsonRequest(t, []map[string]any{{"menuId": "0", "quantity": 2}}), token.TokenID))
	require.NoError(t, err)

	_, err = h.Place(context.Background(), withToken(jsonRequest(t, nil), token.TokenID))
	apiErr := apiError(t, err)
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "payment failed", apiErr.Detail)

	// The order record stays outstanding for audit.
	orderIDs, listErr := e.orders.List()
	require.NoError(t, listErr)
	require.Len(t, orderIDs, 1)
	var order models.Order
	require.NoError(t, e.orders.Read(orderIDs[0], &order))
	assert.Equal(t, models.PaymentOutstanding, order.PaymentStatus)

	// The cart is untouched.
	var cart models.Cart
	require.NoError(t, e.carts.Read("jane@example.com", &cart))
	assert.Equal(t, []models.CartItem{{MenuID: "0", Quantity: 2}}, cart.Items)

	// No event was published.
	select {
	case <-e.bus.Events():
		t.Fatal("no order-placed event expected after a failed capture")
	default:
	}
}

func TestPlaceOrderPricesWholeCart(t *testing.T) {
	e := newEnv(t)
	token := e.createUser(t, "jane@example.com")
	gateway := &stubGateway{}
	h := newOrderHandler(e, gateway)

	// 2×5.0 + 1×6.5 = 16.5
	_, err := e.cartHandler.Replace(context.Background(),
		withToken(jsonRequest(t, []map[string]any{
			{"menuId": "0", "quantity": 2},
			{"menuId": "2"},
		}), token.TokenID))
	require.NoError(t, err)

	resp, err := h.Place(context.Background(), withToken(jsonRequest(t, nil), token.TokenID))
	require.NoError(t, err)

	body := resp.Body.(map[string]any)
	assert.Equal(t, 16.5, body["orderValue"])
	require.Len(t, gateway.charges, 1)
	assert.Equal(t, int64(1650), gateway.charges[0].amountCents)
}
