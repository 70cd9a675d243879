package models

// All lists every persisted model, in dependency order, for sqlite
// auto-migration in development and tests.
func All() []any {
	return []any{
		&Vendor{},
		&Branch{},
		&Category{},
		&Item{},
		&Offer{},
		&SurpriseBox{},
		&SurpriseBoxItem{},
		&BoxReservation{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
