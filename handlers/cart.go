package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pizzapizza/pizzeria/api"
	"github.com/pizzapizza/pizzeria/auth"
	"github.com/pizzapizza/pizzeria/models"
	"github.com/pizzapizza/pizzeria/store"
)

type CartHandler struct {
	Carts *store.Collection
	Menus *store.Collection
	Auth  *auth.Service
}

// Nobody needs more than a hundred pizzas in one go.
const maxCartItems = 100

// Replace swaps the caller's cart for exactly the submitted item list. The
// cart is keyed by the token's owning email; any valid token may write its
// own cart. This is a replace, not a merge.
func (h *CartHandler) Replace(ctx context.Context, req *api.Request) (*api.Response, error) {
	tokenID := req.BearerToken()
	if !h.Auth.Authenticate(tokenID) {
		return nil, authError()
	}

	var items []struct {
		MenuID   string `json:"menuId"`
		Quantity *int   `json:"quantity"`
	}
	if len(req.Payload) == 0 || json.Unmarshal(req.Payload, &items) != nil || len(items) == 0 {
		return nil, api.BadRequest("payload must be a non-empty array of cart items")
	}
	if len(items) > maxCartItems {
		return nil, api.BadRequest("you may put at most 100 items in your cart")
	}

	menuIDs, err := h.Menus.List()
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	available := make(map[string]bool, len(menuIDs))
	for _, id := range menuIDs {
		available[id] = true
	}

	cleaned := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if !available[item.MenuID] {
			return nil, api.BadRequest("one or more cart items are malformed")
		}
		quantity := 1
		if item.Quantity != nil {
			if *item.Quantity <= 0 {
				return nil, api.BadRequest("one or more cart items are malformed")
			}
			quantity = *item.Quantity
		}
		cleaned = append(cleaned, models.CartItem{MenuID: item.MenuID, Quantity: quantity})
	}

	email, err := h.Auth.ResolveEmail(tokenID)
	if err != nil {
		return nil, fmt.Errorf("resolve token owner: %w", err)
	}

	cart := models.Cart{Items: cleaned}
	exists, err := h.Carts.Exists(email)
	if err != nil {
		return nil, fmt.Errorf("probe cart: %w", err)
	}
	if exists {
		err = h.Carts.Update(email, cart)
	} else {
		err = h.Carts.Create(email, cart)
	}
	if err != nil {
		return nil, fmt.Errorf("store cart for %s: %w", email, err)
	}

	return api.NoContent(), nil
}
