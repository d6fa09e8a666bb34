package model

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
	}
}
