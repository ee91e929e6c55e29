package models

type MenuItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// MenuFixtures is the fixed menu the store opens with. Items are not
// created through the public API.
func MenuFixtures() []MenuItem {
	return []MenuItem{
		{ID: "0", Name: "Pizza Margarita", Price: 5},
		{ID: "1", Name: "Pizza Funghi", Price: 6},
		{ID: "2", Name: "Pizza Gorgonzola", Price: 6.5},
		{ID: "3", Name: "Pizza Calabrese", Price: 7},
		{ID: "4", Name: "Pizza à la Chef", Price: 8.5},
	}
}
