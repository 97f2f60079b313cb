package models

// All lists every table owned by the service, in dependency order.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Profile{},
		&UserRole{},
		&AboutContent{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
