package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/pizzapizza/pizzeria/api"
	"github.com/pizzapizza/pizzeria/auth"
	"github.com/pizzapizza/pizzeria/models"
	"github.com/pizzapizza/pizzeria/store"
)

type MenuHandler struct {
	Menus *store.Collection
	Auth  *auth.Service
}

// List returns every menu item to any authenticated caller.
func (h *MenuHandler) List(ctx context.Context, req *api.Request) (*api.Response, error) {
	if !h.Auth.Authenticate(req.BearerToken()) {
		return nil, authError()
	}

	ids, err := h.Menus.List()
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}

	items := make([]models.MenuItem, 0, len(ids))
	for _, id := range ids {
		var item models.MenuItem
		if err := h.Menus.Read(id, &item); err != nil {
			return nil, fmt.Errorf("read menu item %s: %w", id, err)
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return api.OK(items), nil
}

// SeedMenu writes the fixture items at startup, refreshing items that
// already exist so price changes survive restarts.
func SeedMenu(menus *store.Collection) error {
	for _, item := range models.MenuFixtures() {
		exists, err := menus.Exists(item.ID)
		if err != nil {
			return fmt.Errorf("probe menu item %s: %w", item.ID, err)
		}
		if exists {
			err = menus.Update(item.ID, item)
		} else {
			err = menus.Create(item.ID, item)
		}
		if err != nil {
			return fmt.Errorf("seed menu item %s: %w", item.ID, err)
		}
	}
	return nil
}
