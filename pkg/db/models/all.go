package models

// All lists every model in dependency order, for AutoMigrate in local sqlite runs and tests.
func All() []any {
	return []any{
		&Customer{},
		&Admin{},
		&Category{},
		&Product{},
		&DeliveryType{},
		&Order{},
		&OrderLineItem{},
		&OutboxEvent{},
	}
}
